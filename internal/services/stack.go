package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/orion-relay/internal/blob"
	"github.com/tbourn/orion-relay/internal/domain"
)

// StackOptions lists the collaborators NewStack wires together.
type StackOptions struct {
	DB        *gorm.DB
	CodeStore CodeStore // defaults to a SQLCodeStore on DB
	CodeTTL   time.Duration
	Blobs     blob.Store // defaults to a GormStore on DB
	Hubs      *domain.HubSet

	MaxFileBytes      int64
	FanoutConcurrency int

	// Transport may be nil until the bot connects; set Delivery.Transport then.
	Transport        Transport
	Broadcaster      Broadcaster
	BroadcastTimeout time.Duration
	Audit            AuditSink

	HeartbeatTimeout time.Duration
	Version          string
}

// Stack is the service graph shared by the HTTP API and the bot.
type Stack struct {
	Codes        *CodeService
	Links        *LinkService
	Catalog      *CatalogService
	Ledger       *LedgerService
	Delivery     *DeliveryService
	Fanout       *Fanout
	Entitlements *EntitlementService
	Downtime     *DowntimeService
	Status       *StatusService
}

// NewStack builds every service from o.
func NewStack(o StackOptions) *Stack {
	store := o.CodeStore
	if store == nil {
		store = NewSQLCodeStore(o.DB)
	}
	blobs := o.Blobs
	if blobs == nil {
		blobs = blob.NewGormStore(o.DB)
	}

	codes := NewCodeService(store, o.CodeTTL)
	links := &LinkService{DB: o.DB, Codes: codes, Audit: o.Audit}
	ledger := &LedgerService{DB: o.DB}
	catalog := &CatalogService{
		DB:           o.DB,
		Blobs:        blobs,
		Hubs:         o.Hubs,
		Audit:        o.Audit,
		MaxFileBytes: o.MaxFileBytes,
	}
	delivery := &DeliveryService{Links: links, Catalog: catalog, Transport: o.Transport, Audit: o.Audit}
	fanout := &Fanout{Ledger: ledger, Delivery: delivery, Concurrency: o.FanoutConcurrency}
	catalog.Fanout = fanout

	return &Stack{
		Codes:    codes,
		Links:    links,
		Catalog:  catalog,
		Ledger:   ledger,
		Delivery: delivery,
		Fanout:   fanout,
		Entitlements: &EntitlementService{
			Links:    links,
			Catalog:  catalog,
			Ledger:   ledger,
			Delivery: delivery,
			Audit:    o.Audit,
		},
		Downtime: &DowntimeService{
			DB:               o.DB,
			Broadcaster:      o.Broadcaster,
			Audit:            o.Audit,
			BroadcastTimeout: o.BroadcastTimeout,
		},
		Status: NewStatusService(o.HeartbeatTimeout, o.Version),
	}
}
