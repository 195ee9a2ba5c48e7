package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// CancelToken aborts a conversation when sent as a whole message.
const CancelToken = "cancel"

// Conversation outcomes other than success. None of them commit anything.
var (
	ErrFlowTimeout  = errors.New("flow timed out")
	ErrFlowCanceled = errors.New("flow canceled")
	ErrFlowAttempts = errors.New("too many invalid answers")
	ErrFlowBusy     = errors.New("another prompt is already open")
)

// Answer is one collected reply.
type Answer struct {
	Text     string
	FileName string
	Data     []byte
}

// Step is one prompt of a conversation. Validate may rewrite the answer
// (normalize a hub, resolve a mention); a returned error is shown to the
// user and the step is asked again.
type Step struct {
	Key      string
	Prompt   string
	File     bool
	Validate func(ctx context.Context, a Answer) (Answer, error)
}

// conversation is an ordered sequence of steps in one channel with one
// user. Each step waits at most timeout for a reply.
type conversation struct {
	bot       *Bot
	channelID string
	inbox     <-chan *discordgo.Message
	close     func()
}

func (b *Bot) converse(channelID, userID string) (*conversation, error) {
	inbox, closeFn, ok := b.collect.open(channelID, userID)
	if !ok {
		return nil, ErrFlowBusy
	}
	return &conversation{bot: b, channelID: channelID, inbox: inbox, close: closeFn}, nil
}

// Run asks every step in order and returns the answers by key.
func (c *conversation) Run(ctx context.Context, steps ...Step) (map[string]Answer, error) {
	out := make(map[string]Answer, len(steps))
	for _, st := range steps {
		a, err := c.Ask(ctx, st)
		if err != nil {
			return nil, err
		}
		out[st.Key] = a
	}
	return out, nil
}

// Ask prompts st and waits for a valid reply.
func (c *conversation) Ask(ctx context.Context, st Step) (Answer, error) {
	b := c.bot
	b.send(ctx, c.channelID, infoEmbed("", st.Prompt))
	for attempt := 1; ; attempt++ {
		a, err := c.await(ctx, st)
		if err != nil {
			return Answer{}, err
		}
		if st.Validate == nil {
			return a, nil
		}
		v, verr := st.Validate(ctx, a)
		if verr == nil {
			return v, nil
		}
		if attempt >= b.maxAttempts() {
			return Answer{}, ErrFlowAttempts
		}
		b.send(ctx, c.channelID, errorEmbed("❌ Invalid", fmt.Sprintf("%s\nTry again or type `%s`.", invalidText(verr), CancelToken)))
	}
}

// invalidText renders a validation error as a sentence for the chat reply.
func invalidText(err error) string {
	var re *replyErr
	if errors.As(err, &re) {
		return re.desc
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "Invalid answer."
	}
	r, n := utf8.DecodeRuneInString(msg)
	msg = string(unicode.ToUpper(r)) + msg[n:]
	if !strings.ContainsAny(msg[len(msg)-1:], ".!?") {
		msg += "."
	}
	return msg
}

func (c *conversation) await(ctx context.Context, st Step) (Answer, error) {
	timer := time.NewTimer(c.bot.stepTimeout())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return Answer{}, ctx.Err()
		case <-timer.C:
			return Answer{}, ErrFlowTimeout
		case m := <-c.inbox:
			text := strings.TrimSpace(m.Content)
			if strings.EqualFold(text, CancelToken) {
				return Answer{}, ErrFlowCanceled
			}
			if !st.File {
				return Answer{Text: text}, nil
			}
			if len(m.Attachments) == 0 {
				c.bot.send(ctx, c.channelID, infoEmbed("", "Please attach a file to your message."))
				continue
			}
			att := m.Attachments[0]
			data, err := c.bot.Fetch.Fetch(ctx, att.URL)
			if err != nil {
				return Answer{}, fmt.Errorf("download attachment: %w", err)
			}
			return Answer{Text: text, FileName: att.Filename, Data: data}, nil
		}
	}
}

func (c *conversation) Close() { c.close() }
