// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Email            string           `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Name             string           `json:"name" gorm:"size:100"`
	PasswordHash     string           `json:"-" gorm:"size:255;not null"`
	SubscriptionTier SubscriptionTier `json:"subscription_tier" gorm:"type:varchar(20);default:'free'"`
	Status           UserStatus       `json:"status" gorm:"type:varchar(20);default:'active'"`
	LastLoginAt      *time.Time       `json:"last_login_at"`

	// Relationships
	Projects    []Project    `json:"projects,omitempty" gorm:"foreignKey:UserID"`
	Credentials []Credential `json:"credentials,omitempty" gorm:"foreignKey:UserID"`
	Products    []Product    `json:"products,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// IsFreeTier reports whether the free-tier product quota applies to the user.
func (u *User) IsFreeTier() bool {
	return u.SubscriptionTier == SubscriptionTierFree
}
