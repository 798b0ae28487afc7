// internal/models/webhook.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Webhook records a remote webhook endpoint registered on a provider during
// provisioning. One row per provider per product.
type Webhook struct {
	BaseModel
	ProductID         uuid.UUID      `json:"product_id" gorm:"type:uuid;not null;index"`
	Provider          ProviderType   `json:"provider" gorm:"type:varchar(20);not null;index"`
	ProviderWebhookID string         `json:"provider_webhook_id" gorm:"size:255;not null"`
	URL               string         `json:"url" gorm:"size:500;not null"`
	SigningSecret     string         `json:"-" gorm:"size:255"`
	Events            pq.StringArray `json:"events" gorm:"type:text[]"`
	Status            WebhookStatus  `json:"status" gorm:"type:varchar(20);default:'active'"`

	// Relationships
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
