// internal/models/credential.go
package models

import (
	"github.com/google/uuid"
)

// Credential stores one user's API keys for a payment provider. Secret fields
// hold ciphertext in the nonce:tag:ciphertext format produced by
// utils.EncryptSecret; plaintext exists only transiently inside the
// orchestrator while a provisioning call runs.
type Credential struct {
	BaseModel
	UserID             uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;index"`
	Provider           ProviderType `json:"provider" gorm:"type:varchar(20);not null;index"`
	Label              string       `json:"label" gorm:"size:100"`
	EncryptedSecretKey string       `json:"-" gorm:"type:text;not null"`
	EncryptedPublicKey string       `json:"-" gorm:"type:text"`
	StoreID            string       `json:"store_id,omitempty" gorm:"size:100"` // Lemon Squeezy only
	Active             bool         `json:"active" gorm:"default:true;index"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
