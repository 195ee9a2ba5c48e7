package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/orion-relay/internal/blob"
	"github.com/tbourn/orion-relay/internal/domain"
	"github.com/tbourn/orion-relay/internal/repo"
	"github.com/tbourn/orion-relay/internal/services"
)

type sentMsg struct {
	channelID string
	msg       *discordgo.MessageSend
}

func (s sentMsg) title() string {
	if len(s.msg.Embeds) == 0 {
		return ""
	}
	return s.msg.Embeds[0].Title
}

type fakeSession struct {
	mu      sync.Mutex
	sent    []sentMsg
	dmFail  map[string]bool
	latency time.Duration
}

func newFakeSession() *fakeSession { return &fakeSession{dmFail: map[string]bool{}} }

func (f *fakeSession) SendMessage(_ context.Context, channelID string, msg *discordgo.MessageSend) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMsg{channelID: channelID, msg: msg})
	return nil
}

func (f *fakeSession) OpenDM(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dmFail[userID] {
		return "", errors.New("cannot send messages to this user")
	}
	return "dm-" + userID, nil
}

func (f *fakeSession) Permissions(string, string) (int64, error) { return 0, nil }

func (f *fakeSession) Latency() time.Duration { return f.latency }

func (f *fakeSession) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeSession) last() sentMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMsg{msg: &discordgo.MessageSend{}}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeSession) to(channelID string) []sentMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMsg
	for _, s := range f.sent {
		if s.channelID == channelID {
			out = append(out, s)
		}
	}
	return out
}

type fakeFetcher map[string][]byte

func (f fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	if b, ok := f[url]; ok {
		return b, nil
	}
	return nil, errors.New("404")
}

type botEnv struct {
	bot     *Bot
	sess    *fakeSession
	links   *services.LinkService
	codes   *services.CodeService
	catalog *services.CatalogService
	ents    *services.EntitlementService
	db      *gorm.DB
}

func newBotEnv(t *testing.T) *botEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:bot_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	sess := newFakeSession()
	codes := services.NewCodeService(services.NewSQLCodeStore(db), 0)
	links := &services.LinkService{DB: db, Codes: codes}
	ledger := &services.LedgerService{DB: db}
	catalog := &services.CatalogService{DB: db, Blobs: blob.NewGormStore(db), Hubs: domain.NewHubSet(domain.DefaultHubs...)}
	delivery := &services.DeliveryService{Links: links, Catalog: catalog, Transport: &DMTransport{Session: sess}}
	catalog.Fanout = &services.Fanout{Ledger: ledger, Delivery: delivery, Concurrency: 1}
	ents := &services.EntitlementService{Links: links, Catalog: catalog, Ledger: ledger, Delivery: delivery}
	downtime := &services.DowntimeService{DB: db}

	b := New(sess, links, catalog, ents, downtime, fakeFetcher{"https://cdn/file.rbxm": []byte("FILE")}, Options{
		StepTimeout: time.Second,
		MaxAttempts: 2,
	})
	b.IsAdmin = func(m *discordgo.Message) bool { return m.Author.ID == "admin" }
	return &botEnv{bot: b, sess: sess, links: links, codes: codes, catalog: catalog, ents: ents, db: db}
}

func msg(channelID, userID, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "m",
		ChannelID: channelID,
		GuildID:   "guild",
		Content:   content,
		Author:    &discordgo.User{ID: userID, Username: "user" + userID},
	}
}

func dm(userID, content string) *discordgo.Message {
	m := msg("dm-"+userID, userID, content)
	m.GuildID = ""
	return m
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// flow starts the command in the background and waits until its DM
// conversation is listening. Replies are queued in order by the collector.
func (e *botEnv) flow(t *testing.T, start *discordgo.Message, replies ...*discordgo.Message) {
	t.Helper()
	finished := make(chan struct{})
	go func() {
		e.bot.Handle(context.Background(), start)
		close(finished)
	}()
	key := collectKey("dm-"+start.Author.ID, start.Author.ID)
	waitUntil(t, func() bool {
		e.bot.collect.mu.Lock()
		defer e.bot.collect.mu.Unlock()
		_, ok := e.bot.collect.inboxes[key]
		return ok
	})
	for _, r := range replies {
		e.bot.Handle(context.Background(), r)
	}
	select {
	case <-finished:
	case <-time.After(3 * time.Second):
		t.Fatalf("flow did not finish")
	}
}

func (e *botEnv) addProduct(t *testing.T, name, ext string) *domain.Product {
	t.Helper()
	p, err := e.catalog.Create(context.Background(), services.ProductInput{
		Hub: "Orion", Name: name, Description: "d", ImageID: "1", ExternalID: ext,
		FileName: name + ".rbxm", FileData: []byte("data-" + name),
	}, "test")
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}
