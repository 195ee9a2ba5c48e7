// Package bot is the chat gateway: it connects to Discord, dispatches
// prefix commands to the services, runs the multi-step admin conversations,
// delivers product payloads by DM and mirrors audit events to a log channel.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Session is the subset of the Discord API the bot uses.
type Session interface {
	SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) error
	OpenDM(ctx context.Context, userID string) (channelID string, err error)
	Permissions(userID, channelID string) (int64, error)
	Latency() time.Duration
}

// Intents requested from the gateway.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Gateway adapts a live discordgo session to Session.
type Gateway struct {
	DG *discordgo.Session
}

func (g *Gateway) SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) error {
	_, err := g.DG.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
	return err
}

func (g *Gateway) OpenDM(ctx context.Context, userID string) (string, error) {
	ch, err := g.DG.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

func (g *Gateway) Permissions(userID, channelID string) (int64, error) {
	return g.DG.UserChannelPermissions(userID, channelID)
}

func (g *Gateway) Latency() time.Duration {
	return g.DG.HeartbeatLatency()
}

// Dial creates a gateway session for token. The connection is not opened.
func Dial(token string) (*Gateway, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	dg.Identify.Intents = Intents
	return &Gateway{DG: dg}, nil
}

// Start registers b's message handler and opens the websocket.
func (g *Gateway) Start(b *Bot) error {
	g.DG.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.Handle(b.baseContext(), m.Message)
	})
	if err := g.DG.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	return nil
}

// Close closes the websocket.
func (g *Gateway) Close() error {
	return g.DG.Close()
}
