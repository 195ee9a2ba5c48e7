// Package domain defines the persistence models for account linking,
// the product catalog, entitlements, and the shared downtime flag. These
// types are mapped with GORM and shared across the repository, service, and
// transport layers.
package domain

import "time"

// VerificationCode is a one-time linking code minted by the game backend for
// a game account. A code is consumed by exactly one successful exchange and
// is unusable once it is older than the configured TTL.
//
// Fields:
//   - Code: the numeric token itself (primary key).
//   - Nonce: regenerated on every issue so an exchange only deletes the
//     generation it read.
//   - GameAccountID: the game account the code links to (indexed for
//     invalidation on unlink).
//   - CreatedAt: issue time; expiry is measured from here.
type VerificationCode struct {
	Code          string    `json:"code"            gorm:"type:varchar(32);primaryKey"`
	Nonce         string    `json:"-"               gorm:"type:char(36);not null"`
	GameAccountID string    `json:"game_account_id" gorm:"type:varchar(64);not null;index:idx_codes_account"`
	CreatedAt     time.Time `json:"created_at"      gorm:"not null;index:idx_codes_created"`
}

// TableName returns the database table name for VerificationCode.
func (VerificationCode) TableName() string { return "verification_codes" }

// Expired reports whether the code is older than ttl at now.
func (v VerificationCode) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(v.CreatedAt) > ttl
}

// AccountLink binds a game account to a chat account. There is at most one
// row per game account; the chat account column is indexed for reverse
// lookups.
type AccountLink struct {
	GameAccountID string    `json:"game_account_id" gorm:"type:varchar(64);primaryKey"`
	ChatAccountID string    `json:"chat_account_id" gorm:"type:varchar(64);not null;index:idx_links_chat"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for AccountLink.
func (AccountLink) TableName() string { return "account_links" }

// Product is a purchasable digital good grouped under a hub. The deliverable
// bytes live in a payload store under PayloadKey; the row only carries the
// metadata needed to find and describe them.
//
// Fields:
//   - ID: UUID primary key.
//   - Hub: one of the configured hub names (normalized spelling).
//   - ImageID: external asset id shown by the game UI.
//   - ExternalID: the game platform's developer product id (globally unique).
//   - FileName / FileSize / PayloadKey: the deliverable, replaced together.
type Product struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	Hub         string    `json:"hub"          gorm:"type:varchar(64);not null;index:idx_products_hub"`
	Name        string    `json:"name"         gorm:"type:varchar(255);not null"`
	Description string    `json:"description"  gorm:"type:text;not null"`
	ImageID     string    `json:"imageId"      gorm:"type:varchar(64);not null"`
	ExternalID  string    `json:"devProductId" gorm:"type:varchar(64);not null;uniqueIndex:ux_products_external"`
	FileName    string    `json:"fileName"     gorm:"type:varchar(255);not null"`
	FileSize    int64     `json:"fileSize"     gorm:"not null;default:0"`
	PayloadKey  string    `json:"-"            gorm:"type:varchar(255);not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// ProductPayload holds deliverable bytes when payloads are stored in the
// database rather than an object store.
type ProductPayload struct {
	Key       string    `gorm:"type:varchar(255);primaryKey"`
	Data      []byte    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for ProductPayload.
func (ProductPayload) TableName() string { return "product_payloads" }

// Entitlement records that a game account owns a product. The pair is unique.
type Entitlement struct {
	ID            string    `json:"id"              gorm:"type:char(36);primaryKey"`
	GameAccountID string    `json:"game_account_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_entitlement_owner_product,priority:1"`
	ProductID     string    `json:"product_id"      gorm:"type:char(36);not null;uniqueIndex:ux_entitlement_owner_product,priority:2;index:idx_entitlements_product"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the database table name for Entitlement.
func (Entitlement) TableName() string { return "entitlements" }

// DowntimeKey is the constant key of the singleton downtime record.
const DowntimeKey = "global"

// DowntimeFlag is the singleton maintenance switch read by the game.
type DowntimeFlag struct {
	Key       string    `json:"-"          gorm:"type:varchar(32);primaryKey"`
	Enabled   bool      `json:"enabled"    gorm:"not null;default:false"`
	UpdatedBy string    `json:"updated_by" gorm:"type:varchar(128);not null;default:''"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for DowntimeFlag.
func (DowntimeFlag) TableName() string { return "downtime_flags" }
