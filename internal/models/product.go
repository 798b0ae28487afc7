// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	ProjectID   uuid.UUID `json:"project_id" gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`

	// Remote IDs attached after provisioning succeeds on the provider.
	StripeProductID       string `json:"stripe_product_id,omitempty" gorm:"size:255"`
	LemonSqueezyProductID string `json:"lemonsqueezy_product_id,omitempty" gorm:"size:255"`
	LemonSqueezyStoreID   string `json:"lemonsqueezy_store_id,omitempty" gorm:"size:255"`

	Status ProductStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`

	// Relationships
	Project  Project       `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	User     User          `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Plans    []PricingPlan `json:"plans,omitempty" gorm:"foreignKey:ProductID"`
	Webhooks []Webhook     `json:"webhooks,omitempty" gorm:"foreignKey:ProductID"`
}

// PricingPlan is one priced tier of a product. A provider-ID field is set if
// and only if that provider was enabled for the parent product's generation
// run and provisioning for this plan succeeded.
type PricingPlan struct {
	BaseModel
	ProductID uuid.UUID      `json:"product_id" gorm:"type:uuid;not null;index"`
	Name      string         `json:"name" gorm:"size:100;not null"`
	Amount    int64          `json:"amount" gorm:"not null"` // minor currency units
	Currency  string         `json:"currency" gorm:"size:3;default:'usd'"`
	Interval  PlanInterval   `json:"interval" gorm:"type:varchar(10);not null"`
	TrialDays int            `json:"trial_days" gorm:"default:0"`
	Features  pq.StringArray `json:"features" gorm:"type:text[]"`
	Position  int            `json:"position" gorm:"default:0"`

	StripePriceID         string `json:"stripe_price_id,omitempty" gorm:"size:255"`
	LemonSqueezyVariantID string `json:"lemonsqueezy_variant_id,omitempty" gorm:"size:255"`

	// Relationships
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
