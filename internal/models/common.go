// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type SubscriptionTier string

const (
	SubscriptionTierFree SubscriptionTier = "free"
	SubscriptionTierPro  SubscriptionTier = "pro"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// ProviderType tags a payment platform against which products are provisioned.
type ProviderType string

const (
	ProviderStripe       ProviderType = "stripe"
	ProviderLemonSqueezy ProviderType = "lemonsqueezy"
)

func (p ProviderType) Valid() bool {
	return p == ProviderStripe || p == ProviderLemonSqueezy
}

type ProductStatus string

const (
	ProductStatusDraft  ProductStatus = "draft"
	ProductStatusActive ProductStatus = "active"
)

// PlanInterval is the billing period of a pricing plan. "once" marks a
// non-recurring, one-time price.
type PlanInterval string

const (
	PlanIntervalMonth PlanInterval = "month"
	PlanIntervalYear  PlanInterval = "year"
	PlanIntervalOnce  PlanInterval = "once"
)

func (i PlanInterval) Valid() bool {
	return i == PlanIntervalMonth || i == PlanIntervalYear || i == PlanIntervalOnce
}

type WebhookStatus string

const (
	WebhookStatusActive   WebhookStatus = "active"
	WebhookStatusDisabled WebhookStatus = "disabled"
)

// BackendStack is the code generation target framework flavor.
type BackendStack string

const (
	BackendStackNextJS  BackendStack = "nextjs-api"
	BackendStackExpress BackendStack = "express"
)
