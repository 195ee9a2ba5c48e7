package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/orion-relay/internal/observability"
	"github.com/tbourn/orion-relay/internal/services"
)

// Request is one parsed command invocation.
type Request struct {
	Msg  *discordgo.Message
	Name string
	Args []string

	// Channel receives replies. Commands that move into a DM update it so
	// errors land where the conversation is.
	Channel string
}

func (r *Request) author() *discordgo.User { return r.Msg.Author }

// actor names the invoking user in audit events.
func (r *Request) actor() string {
	return r.Msg.Author.Username + " (" + r.Msg.Author.ID + ")"
}

// Command is one entry of the dispatch table.
type Command struct {
	Name      string
	Aliases   []string
	Usage     string
	Help      string
	AdminOnly bool
	Run       func(ctx context.Context, b *Bot, r *Request) error
}

// Bot dispatches chat commands to the services.
type Bot struct {
	Session  Session
	Prefix   string
	Links    *services.LinkService
	Catalog  *services.CatalogService
	Ents     *services.EntitlementService
	Downtime *services.DowntimeService
	Fetch    Fetcher

	StepTimeout time.Duration
	MaxAttempts int

	// IsAdmin overrides the Administrator permission check.
	IsAdmin func(m *discordgo.Message) bool

	// Logger is attached to every command context.
	Logger zerolog.Logger

	table   map[string]*Command
	ordered []*Command
	collect *collector
}

// Options configure New.
type Options struct {
	Prefix      string
	StepTimeout time.Duration
	MaxAttempts int
}

// New returns a Bot with the built-in command table.
func New(s Session, links *services.LinkService, catalog *services.CatalogService, ents *services.EntitlementService, downtime *services.DowntimeService, fetch Fetcher, opt Options) *Bot {
	b := &Bot{
		Session:     s,
		Prefix:      opt.Prefix,
		Links:       links,
		Catalog:     catalog,
		Ents:        ents,
		Downtime:    downtime,
		Fetch:       fetch,
		StepTimeout: opt.StepTimeout,
		MaxAttempts: opt.MaxAttempts,
		Logger:      log.Logger,
		table:       make(map[string]*Command),
		collect:     newCollector(),
	}
	if b.Prefix == "" {
		b.Prefix = "!"
	}
	for _, c := range builtinCommands() {
		b.Register(c)
	}
	return b
}

// Register adds c under its name and aliases, replacing earlier entries.
func (b *Bot) Register(c *Command) {
	if b.table == nil {
		b.table = make(map[string]*Command)
	}
	b.table[strings.ToLower(c.Name)] = c
	for _, a := range c.Aliases {
		b.table[strings.ToLower(a)] = c
	}
	b.ordered = append(b.ordered, c)
}

// Commands returns the registered commands in registration order.
func (b *Bot) Commands() []*Command {
	seen := make(map[*Command]bool, len(b.ordered))
	out := make([]*Command, 0, len(b.ordered))
	for _, c := range b.ordered {
		if b.table[strings.ToLower(c.Name)] == c && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Lookup finds a command by case-insensitive name or alias.
func (b *Bot) Lookup(name string) (*Command, bool) {
	c, ok := b.table[strings.ToLower(name)]
	return c, ok
}

func (b *Bot) stepTimeout() time.Duration {
	if b.StepTimeout <= 0 {
		return 60 * time.Second
	}
	return b.StepTimeout
}

func (b *Bot) maxAttempts() int {
	if b.MaxAttempts <= 0 {
		return 3
	}
	return b.MaxAttempts
}

func (b *Bot) baseContext() context.Context {
	return b.Logger.WithContext(context.Background())
}

func (b *Bot) isAdmin(m *discordgo.Message) bool {
	if b.IsAdmin != nil {
		return b.IsAdmin(m)
	}
	if m.GuildID == "" {
		return false
	}
	perms, err := b.Session.Permissions(m.Author.ID, m.ChannelID)
	if err != nil {
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}

// Handle processes one inbound message. Replies to open conversations are
// routed to them; everything else is parsed as a command.
func (b *Bot) Handle(ctx context.Context, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	if b.collect.offer(m) {
		return
	}
	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, b.Prefix) {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(content, b.Prefix))
	if len(fields) == 0 {
		return
	}
	cmd, ok := b.Lookup(fields[0])
	if !ok {
		return
	}

	lg := zerolog.Ctx(ctx).With().
		Str("command", cmd.Name).
		Str("chat_account_id", m.Author.ID).
		Str("channel_id", m.ChannelID).
		Logger()
	ctx = lg.WithContext(ctx)

	r := &Request{Msg: m, Name: cmd.Name, Args: fields[1:], Channel: m.ChannelID}
	if cmd.AdminOnly && !b.isAdmin(m) {
		observability.BotCommands.WithLabelValues(cmd.Name, "forbidden").Inc()
		b.send(ctx, r.Channel, errorEmbed("⛔ Missing Permission", "This command is for administrators."))
		return
	}

	err := cmd.Run(ctx, b, r)
	observability.BotCommands.WithLabelValues(cmd.Name, outcomeLabel(err)).Inc()
	if err != nil {
		b.reportError(ctx, r.Channel, err)
	}
}

// replyErr is a rejection with its own reply embed.
type replyErr struct {
	title, desc string
}

func (e *replyErr) Error() string { return e.title + ": " + e.desc }

func userErr(title, desc string) error { return &replyErr{title: title, desc: desc} }

func outcomeLabel(err error) string {
	var re *replyErr
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrFlowTimeout):
		return "timeout"
	case errors.Is(err, ErrFlowCanceled):
		return "canceled"
	case errors.As(err, &re), errors.Is(err, ErrFlowAttempts), errors.Is(err, ErrFlowBusy), services.Kind(err) != nil:
		return "rejected"
	default:
		return "error"
	}
}

func (b *Bot) reportError(ctx context.Context, channelID string, err error) {
	var re *replyErr
	switch {
	case errors.As(err, &re):
		b.send(ctx, channelID, errorEmbed(re.title, re.desc))
	case errors.Is(err, ErrFlowTimeout):
		b.sendText(ctx, channelID, "⏳ Timed out.")
	case errors.Is(err, ErrFlowCanceled):
		b.sendText(ctx, channelID, "Cancelled. Nothing was changed.")
	case errors.Is(err, ErrFlowAttempts):
		b.send(ctx, channelID, errorEmbed("❌ Too Many Attempts", "Start the command again when you are ready."))
	case errors.Is(err, ErrFlowBusy):
		b.send(ctx, channelID, errorEmbed("❌ Busy", "Finish or cancel your open prompt first."))
	default:
		title, desc := describeServiceError(err)
		if services.Kind(err) == nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("command failed")
		}
		b.send(ctx, channelID, errorEmbed(title, desc))
	}
}

func describeServiceError(err error) (string, string) {
	switch services.Kind(err) {
	case services.ErrValidation:
		return "❌ Invalid Input", err.Error()
	case services.ErrConflict:
		return "❌ Conflict", err.Error()
	case services.ErrNotFound:
		return "❌ Not Found", err.Error()
	case services.ErrNotLinked:
		return "❌ Not Linked", err.Error()
	case services.ErrDelivery:
		return "⚠️ Delivery Failed", "The change was saved but the file could not be sent."
	case services.ErrUpstream:
		return "⚠️ Game Backend Unreachable", "The change was saved but the game was not notified."
	default:
		return "❌ Something Went Wrong", "Check the server logs."
	}
}

// ----- Replies -----

const (
	colorInfo    = 0x00ffea
	colorOK      = 0x00ff00
	colorError   = 0xff0000
	colorWarning = 0xffaa00
)

func newEmbed(title, desc string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: title, Description: desc, Color: color}
}

func infoEmbed(title, desc string) *discordgo.MessageEmbed  { return newEmbed(title, desc, colorInfo) }
func okEmbed(title, desc string) *discordgo.MessageEmbed    { return newEmbed(title, desc, colorOK) }
func errorEmbed(title, desc string) *discordgo.MessageEmbed { return newEmbed(title, desc, colorError) }

func (b *Bot) send(ctx context.Context, channelID string, e *discordgo.MessageEmbed) {
	if err := b.Session.SendMessage(ctx, channelID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{e}}); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("channel_id", channelID).Msg("reply failed")
	}
}

func (b *Bot) sendText(ctx context.Context, channelID, text string) {
	if err := b.Session.SendMessage(ctx, channelID, &discordgo.MessageSend{Content: text}); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("channel_id", channelID).Msg("reply failed")
	}
}

// openDM moves r into a direct message with its author.
func (b *Bot) openDM(ctx context.Context, r *Request, title, intro string) (*conversation, error) {
	if r.Msg.GuildID != "" {
		ch, err := b.Session.OpenDM(ctx, r.author().ID)
		if err != nil {
			return nil, userErr("❌ DM Failed", "I couldn't DM you. Please enable DMs and try again.")
		}
		r.Channel = ch
	}
	conv, err := b.converse(r.Channel, r.author().ID)
	if err != nil {
		return nil, err
	}
	b.send(ctx, r.Channel, infoEmbed(title, intro+"\nReply within "+b.stepTimeout().String()+" for each step, or type `"+CancelToken+"` to stop."))
	return conv, nil
}
