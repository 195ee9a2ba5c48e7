package bot

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// collector routes messages to the conversation waiting on their
// (channel, author) pair. At most one conversation per pair is open.
type collector struct {
	mu      sync.Mutex
	inboxes map[string]chan *discordgo.Message
}

func newCollector() *collector {
	return &collector{inboxes: make(map[string]chan *discordgo.Message)}
}

func collectKey(channelID, userID string) string { return channelID + "/" + userID }

// open registers an inbox. ok is false when the pair already has one.
func (c *collector) open(channelID, userID string) (inbox <-chan *discordgo.Message, closeFn func(), ok bool) {
	k := collectKey(channelID, userID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inboxes[k]; busy {
		return nil, nil, false
	}
	ch := make(chan *discordgo.Message, 16)
	c.inboxes[k] = ch
	return ch, func() {
		c.mu.Lock()
		if c.inboxes[k] == ch {
			delete(c.inboxes, k)
		}
		c.mu.Unlock()
	}, true
}

// offer hands m to a waiting conversation and reports whether one claimed
// it. Messages arriving faster than the conversation reads are dropped.
func (c *collector) offer(m *discordgo.Message) bool {
	if m.Author == nil {
		return false
	}
	c.mu.Lock()
	ch, ok := c.inboxes[collectKey(m.ChannelID, m.Author.ID)]
	c.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- m:
	default:
	}
	return true
}
