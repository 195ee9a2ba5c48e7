package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/orion-relay/internal/blob"
	"github.com/tbourn/orion-relay/internal/domain"
	"github.com/tbourn/orion-relay/internal/repo"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// ----- Fakes -----

type sent struct {
	chatID string
	parcel Parcel
}

type fakeTransport struct {
	mu      sync.Mutex
	sent    []sent
	failFor map[string]error
}

func (f *fakeTransport) Send(_ context.Context, chatID string, p Parcel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[chatID]; err != nil {
		return err
	}
	f.sent = append(f.sent, sent{chatID: chatID, parcel: p})
	return nil
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type recordingAudit struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (r *recordingAudit) Audit(_ context.Context, e AuditEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

// ----- Environment -----

type testEnv struct {
	db        *gorm.DB
	codes     *CodeService
	links     *LinkService
	catalog   *CatalogService
	ledger    *LedgerService
	delivery  *DeliveryService
	ents      *EntitlementService
	transport *fakeTransport
	audit     *recordingAudit
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newServiceDB(t)
	audit := &recordingAudit{}
	tr := &fakeTransport{failFor: map[string]error{}}

	codes := NewCodeService(NewSQLCodeStore(db), DefaultCodeTTL)
	links := &LinkService{DB: db, Codes: codes, Audit: audit}
	ledger := &LedgerService{DB: db}
	catalog := &CatalogService{
		DB:    db,
		Blobs: blob.NewGormStore(db),
		Hubs:  domain.NewHubSet(domain.DefaultHubs...),
		Audit: audit,
	}
	delivery := &DeliveryService{Links: links, Catalog: catalog, Transport: tr, Audit: audit}
	catalog.Fanout = &Fanout{Ledger: ledger, Delivery: delivery, Concurrency: 1}
	ents := &EntitlementService{Links: links, Catalog: catalog, Ledger: ledger, Delivery: delivery, Audit: audit}

	return &testEnv{
		db: db, codes: codes, links: links, catalog: catalog, ledger: ledger,
		delivery: delivery, ents: ents, transport: tr, audit: audit,
	}
}

func (e *testEnv) addProduct(t *testing.T, hub, name, ext string) *domain.Product {
	t.Helper()
	p, err := e.catalog.Create(context.Background(), ProductInput{
		Hub:         hub,
		Name:        name,
		Description: name + " description",
		ImageID:     "rbxassetid://1",
		ExternalID:  ext,
		FileName:    name + ".rbxm",
		FileData:    []byte("payload-" + name),
	}, "admin")
	if err != nil {
		t.Fatalf("create product %s: %v", ext, err)
	}
	return p
}

func mustKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}
