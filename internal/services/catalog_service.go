// Package services – CatalogService
//
// This file implements the product catalog: create, single-field edit, file
// replacement, removal with entitlement cascade, and listing. Product rows
// never hold payload bytes; those live in a blob.Store under a per-version
// key, so listings stay small and a file swap is a single row update.
//
// Validation failures return ErrValidation-kinded errors; duplicate
// devProductIds return ErrDuplicateProduct; unknown ids ErrProductNotFound.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/orion-relay/internal/blob"
	"github.com/tbourn/orion-relay/internal/domain"
	"github.com/tbourn/orion-relay/internal/repo"
)

// ProductInput carries the fields of a new product.
type ProductInput struct {
	Hub         string
	Name        string
	Description string
	ImageID     string
	ExternalID  string
	FileName    string
	FileData    []byte
}

// ProductField names a single editable product attribute.
type ProductField string

const (
	FieldHub         ProductField = "hub"
	FieldName        ProductField = "name"
	FieldDescription ProductField = "description"
	FieldImageID     ProductField = "imageId"
	FieldExternalID  ProductField = "devProductId"
	FieldFile        ProductField = "file"
)

// fieldColumns maps text fields to their column. FieldFile is handled by
// ReplaceFile.
var fieldColumns = map[ProductField]string{
	FieldHub:         "hub",
	FieldName:        "name",
	FieldDescription: "description",
	FieldImageID:     "image_id",
	FieldExternalID:  "external_id",
}

var fieldAliases = map[string]ProductField{
	"hub":          FieldHub,
	"name":         FieldName,
	"description":  FieldDescription,
	"desc":         FieldDescription,
	"imageid":      FieldImageID,
	"image":        FieldImageID,
	"devproductid": FieldExternalID,
	"devproduct":   FieldExternalID,
	"externalid":   FieldExternalID,
	"file":         FieldFile,
}

// ParseProductField resolves a user-typed field name (case-insensitive).
func ParseProductField(s string) (ProductField, bool) {
	f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(s))]
	return f, ok
}

// EditableFields lists the fields accepted by UpdateField and ReplaceFile.
func EditableFields() []ProductField {
	return []ProductField{FieldHub, FieldName, FieldDescription, FieldImageID, FieldExternalID, FieldFile}
}

// CatalogService manages products and their payloads.
type CatalogService struct {
	DB    *gorm.DB
	Blobs blob.Store
	Hubs  *domain.HubSet

	// Fanout redelivers a replaced file to current owners. Optional.
	Fanout *Fanout
	Audit  AuditSink

	// MaxFileBytes caps payload size; 0 disables the cap.
	MaxFileBytes int64
}

// NormalizeHub maps raw to its canonical hub name.
func (s *CatalogService) NormalizeHub(raw string) (string, error) {
	h, ok := s.Hubs.Normalize(raw)
	if !ok {
		return "", ErrUnknownHub
	}
	return h, nil
}

func (s *CatalogService) checkFile(fileName string, data []byte) error {
	if strings.TrimSpace(fileName) == "" {
		return Invalidf("fileName is required")
	}
	if len(data) == 0 {
		return Invalidf("fileData is required")
	}
	if s.MaxFileBytes > 0 && int64(len(data)) > s.MaxFileBytes {
		return Invalidf("file exceeds %d bytes", s.MaxFileBytes)
	}
	return nil
}

// Create validates in and stores a new product with its payload.
func (s *CatalogService) Create(ctx context.Context, in ProductInput, actor string) (*domain.Product, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("product.external_id", in.ExternalID)),
	)
	defer span.End()

	required := []struct{ name, val string }{
		{"hub", in.Hub},
		{"name", in.Name},
		{"description", in.Description},
		{"imageId", in.ImageID},
		{"devProductId", in.ExternalID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return nil, Invalidf("%s is required", r.name)
		}
	}
	if err := s.checkFile(in.FileName, in.FileData); err != nil {
		return nil, err
	}
	hub, err := s.NormalizeHub(in.Hub)
	if err != nil {
		return nil, err
	}

	ext := strings.TrimSpace(in.ExternalID)
	taken, err := repo.ExternalIDTaken(ctx, s.DB, ext, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateProduct
	}

	id := uuid.NewString()
	key := blob.NewKey(id)
	if err := s.Blobs.Put(ctx, key, in.FileData); err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:          id,
		Hub:         hub,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		ImageID:     strings.TrimSpace(in.ImageID),
		ExternalID:  ext,
		FileName:    strings.TrimSpace(in.FileName),
		FileSize:    int64(len(in.FileData)),
		PayloadKey:  key,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.CreateProduct(ctx, s.DB, p); err != nil {
		s.dropBlob(ctx, key)
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateProduct
		}
		return nil, err
	}

	emit(ctx, s.Audit, AuditEvent{Action: AuditProductAdded, Actor: actor, Target: p.ID, Detail: p.Name})
	return p, nil
}

// Get returns a product by id.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := repo.GetProduct(ctx, s.DB, strings.TrimSpace(id))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// FindByExternalID returns the product with the given devProductId.
func (s *CatalogService) FindByExternalID(ctx context.Context, externalID string) (*domain.Product, error) {
	p, err := repo.GetProductByExternalID(ctx, s.DB, strings.TrimSpace(externalID))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// List returns product summaries, optionally restricted to one hub.
func (s *CatalogService) List(ctx context.Context, hub string) ([]domain.Product, error) {
	if strings.TrimSpace(hub) != "" {
		h, err := s.NormalizeHub(hub)
		if err != nil {
			return nil, err
		}
		hub = h
	}
	items, err := repo.ListProducts(ctx, s.DB, hub)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Product{}
	}
	return items, nil
}

// ByIDs returns the products with the given ids in the order of ids,
// skipping ids that no longer exist.
func (s *CatalogService) ByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	rows, err := repo.GetProductsByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Payload loads the file bytes for p.
func (s *CatalogService) Payload(ctx context.Context, p *domain.Product) ([]byte, error) {
	return s.Blobs.Get(ctx, p.PayloadKey)
}

// UpdateField patches one text field. devProductId is re-checked for
// uniqueness against other products and hub is re-normalized.
func (s *CatalogService) UpdateField(ctx context.Context, id string, field ProductField, value, actor string) (*domain.Product, error) {
	if field == FieldFile {
		return nil, Invalidf("file is replaced with an upload, not a text value")
	}
	col, ok := fieldColumns[field]
	if !ok {
		return nil, ErrUnknownField
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, Invalidf("%s must not be empty", field)
	}

	switch field {
	case FieldHub:
		h, err := s.NormalizeHub(value)
		if err != nil {
			return nil, err
		}
		value = h
	case FieldExternalID:
		taken, err := repo.ExternalIDTaken(ctx, s.DB, value, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrDuplicateProduct
		}
	}

	if err := repo.UpdateProductFields(ctx, s.DB, id, map[string]any{col: value}); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrProductNotFound
		case errors.Is(err, repo.ErrDuplicate):
			return nil, ErrDuplicateProduct
		}
		return nil, err
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	emit(ctx, s.Audit, AuditEvent{Action: AuditProductEdited, Actor: actor, Target: id, Detail: string(field)})
	return p, nil
}

// ReplaceFile swaps the payload of a product. The new bytes are stored under
// a fresh key and the row's file name, size and key change in one UPDATE, so
// readers see either the old pair or the new pair. Current owners are then
// notified through Fanout; per-recipient failures do not fail the call.
func (s *CatalogService) ReplaceFile(ctx context.Context, id, fileName string, data []byte, actor string) (*domain.Product, FanoutResult, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "ReplaceFile", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	if err := s.checkFile(fileName, data); err != nil {
		return nil, FanoutResult{}, err
	}
	old, err := s.Get(ctx, id)
	if err != nil {
		return nil, FanoutResult{}, err
	}

	key := blob.NewKey(old.ID)
	if err := s.Blobs.Put(ctx, key, data); err != nil {
		span.RecordError(err)
		return nil, FanoutResult{}, err
	}
	err = repo.UpdateProductFields(ctx, s.DB, old.ID, map[string]any{
		"file_name":   strings.TrimSpace(fileName),
		"file_size":   int64(len(data)),
		"payload_key": key,
	})
	if err != nil {
		s.dropBlob(ctx, key)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, FanoutResult{}, ErrProductNotFound
		}
		return nil, FanoutResult{}, err
	}
	if old.PayloadKey != key {
		s.dropBlob(ctx, old.PayloadKey)
	}

	p, err := s.Get(ctx, old.ID)
	if err != nil {
		return nil, FanoutResult{}, err
	}
	emit(ctx, s.Audit, AuditEvent{Action: AuditProductEdited, Actor: actor, Target: p.ID, Detail: string(FieldFile)})

	var res FanoutResult
	if s.Fanout != nil {
		res = s.Fanout.Redeliver(ctx, p)
	}
	return p, res, nil
}

// Remove deletes a product and every entitlement referencing it in one
// transaction. It returns how many entitlements were removed.
func (s *CatalogService) Remove(ctx context.Context, id, actor string) (int64, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, Invalidf("productId is required")
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}

	var revoked int64
	// Product row first: it blocks or fails a concurrent Grant before the
	// ownership rows are swept.
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.DeleteProduct(ctx, tx, id); err != nil {
			return err
		}
		n, err := (&LedgerService{DB: tx}).RemoveAllForProduct(ctx, id)
		revoked = n
		return err
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}
	s.dropBlob(ctx, p.PayloadKey)

	emit(ctx, s.Audit, AuditEvent{Action: AuditProductRemoved, Actor: actor, Target: id, Detail: p.Name})
	return revoked, nil
}

// dropBlob deletes a payload best-effort; orphans are only wasted space.
func (s *CatalogService) dropBlob(ctx context.Context, key string) {
	if err := s.Blobs.Delete(ctx, key); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("payload_key", key).Msg("payload delete failed")
	}
}
