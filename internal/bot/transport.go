package bot

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/tbourn/orion-relay/internal/services"
)

// DMTransport delivers parcels as a direct message with the file attached.
type DMTransport struct {
	Session Session
}

func parcelTitle(p services.Parcel) string {
	if p.Reason == services.ReasonUpdate {
		return "🔄 Updated: " + p.ProductName
	}
	return "🎁 You received: " + p.ProductName
}

func (t *DMTransport) Send(ctx context.Context, chatAccountID string, p services.Parcel) error {
	ch, err := t.Session.OpenDM(ctx, chatAccountID)
	if err != nil {
		return fmt.Errorf("open dm: %w", err)
	}
	msg := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{infoEmbed(parcelTitle(p), p.Description)},
		Files: []*discordgo.File{{
			Name:        p.FileName,
			ContentType: http.DetectContentType(p.Data),
			Reader:      bytes.NewReader(p.Data),
		}},
	}
	return t.Session.SendMessage(ctx, ch, msg)
}

// LogChannel posts audit events to a channel.
type LogChannel struct {
	Session   Session
	ChannelID string
}

var auditTitles = map[string]string{
	services.AuditVerified:        "✅ Verification Linked",
	services.AuditUnlinked:        "♻️ Verification Reset",
	services.AuditProductAdded:    "🛒 Product Added",
	services.AuditProductRemoved:  "🗑 Product Removed",
	services.AuditProductEdited:   "✏️ Product Edited",
	services.AuditGranted:         "🎁 Product Granted",
	services.AuditRevoked:         "🚫 Product Revoked",
	services.AuditDelivered:       "📦 Delivered",
	services.AuditDeliveryFailed:  "⚠️ Delivery Failed",
	services.AuditDowntimeChanged: "🛠 Downtime Changed",
}

func auditColor(action string) int {
	switch action {
	case services.AuditDeliveryFailed:
		return colorError
	case services.AuditProductRemoved, services.AuditRevoked, services.AuditUnlinked:
		return colorWarning
	default:
		return colorInfo
	}
}

func (l *LogChannel) Audit(ctx context.Context, e services.AuditEvent) {
	if l == nil || l.ChannelID == "" {
		return
	}
	title, ok := auditTitles[e.Action]
	if !ok {
		title = e.Action
	}
	emb := newEmbed(title, e.Detail, auditColor(e.Action))
	emb.Timestamp = e.At.UTC().Format(time.RFC3339)
	if e.Actor != "" {
		emb.Fields = append(emb.Fields, &discordgo.MessageEmbedField{Name: "By", Value: e.Actor, Inline: true})
	}
	if e.Target != "" {
		emb.Fields = append(emb.Fields, &discordgo.MessageEmbedField{Name: "Target", Value: e.Target, Inline: true})
	}
	if err := l.Session.SendMessage(ctx, l.ChannelID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{emb}}); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("action", e.Action).Msg("log channel post failed")
	}
}

// Heartbeat reports gateway latency and uptime to status every interval
// until ctx is done.
func Heartbeat(ctx context.Context, s Session, status *services.StatusService, interval time.Duration, version string) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	started := time.Now()
	beat := func() {
		status.Beat(services.Heartbeat{
			PingMS:        s.Latency().Milliseconds(),
			UptimeSeconds: int64(time.Since(started).Seconds()),
			Version:       version,
		})
	}
	beat()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			beat()
		}
	}
}
