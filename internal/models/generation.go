// internal/models/generation.go
package models

import (
	"github.com/google/uuid"
)

// CodeGeneration is the persisted trace of a generation event. The generated
// file map itself is ephemeral and never stored as an entity.
type CodeGeneration struct {
	BaseModel
	UserID       uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;index"`
	ProjectID    uuid.UUID    `json:"project_id" gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID    `json:"product_id" gorm:"type:uuid;not null;index"`
	BackendStack BackendStack `json:"backend_stack" gorm:"type:varchar(30);not null"`
	FileCount    int          `json:"file_count" gorm:"default:0"`
	BundleKey    string       `json:"bundle_key,omitempty" gorm:"size:500"` // S3 key when the bundle was stored

	// Relationships
	User    User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Project Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
