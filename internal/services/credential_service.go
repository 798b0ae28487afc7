// internal/services/credential_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/launchkit/launchkit-backend/internal/apperrors"
	"github.com/launchkit/launchkit-backend/internal/config"
	"github.com/launchkit/launchkit-backend/internal/models"
	"github.com/launchkit/launchkit-backend/internal/providers"
	"github.com/launchkit/launchkit-backend/internal/utils"
)

type CredentialService struct {
	db            *gorm.DB
	encryptionKey []byte
}

// NewCredentialService fails when no usable encryption key is configured.
// Accepting an empty key would only defer the failure to every per-request
// encrypt/decrypt call with a far less useful cipher error.
func NewCredentialService(db *gorm.DB, cfg *config.Config) (*CredentialService, error) {
	if cfg.Crypto.EncryptionKey == "" {
		return nil, fmt.Errorf("CREDENTIAL_ENCRYPTION_KEY is not set; provide a 64-character hex key (32 bytes)")
	}
	key, err := cfg.Crypto.KeyBytes()
	if err != nil {
		return nil, err
	}

	return &CredentialService{
		db:            db,
		encryptionKey: key,
	}, nil
}

type CreateCredentialRequest struct {
	Provider  string `json:"provider" validate:"required,provider"`
	Label     string `json:"label" validate:"max=100"`
	SecretKey string `json:"secret_key" validate:"required"`
	PublicKey string `json:"public_key,omitempty"`
	StoreID   string `json:"store_id,omitempty" validate:"max=100"`
}

// Create encrypts and stores a provider credential. The new credential
// becomes the active one for its provider; any previous active row is
// deactivated so Resolve stays unambiguous.
func (s *CredentialService) Create(userID uuid.UUID, req *CreateCredentialRequest) (*models.Credential, error) {
	provider := models.ProviderType(req.Provider)
	if provider == models.ProviderLemonSqueezy && req.StoreID == "" {
		return nil, apperrors.Validation("store_id is required for lemonsqueezy credentials")
	}

	encryptedSecret, err := utils.EncryptSecret(req.SecretKey, s.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt secret key: %w", err)
	}

	var encryptedPublic string
	if req.PublicKey != "" {
		encryptedPublic, err = utils.EncryptSecret(req.PublicKey, s.encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt public key: %w", err)
		}
	}

	credential := &models.Credential{
		UserID:             userID,
		Provider:           provider,
		Label:              req.Label,
		EncryptedSecretKey: encryptedSecret,
		EncryptedPublicKey: encryptedPublic,
		StoreID:            req.StoreID,
		Active:             true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Credential{}).
			Where("user_id = ? AND provider = ? AND active = ?", userID, provider, true).
			Update("active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate previous credentials: %w", err)
		}
		return tx.Create(credential).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	return credential, nil
}

func (s *CredentialService) List(userID uuid.UUID, params utils.PaginationParams) ([]models.Credential, int64, error) {
	query := s.db.Model(&models.Credential{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count credentials: %w", err)
	}

	allowedSortFields := []string{"created_at", "provider", "label"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var credentials []models.Credential
	if err := query.Find(&credentials).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch credentials: %w", err)
	}

	return credentials, total, nil
}

func (s *CredentialService) Delete(userID, credentialID uuid.UUID) error {
	result := s.db.Where("id = ? AND user_id = ?", credentialID, userID).
		Delete(&models.Credential{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete credential: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("credential")
	}
	return nil
}

// Resolve loads and decrypts the user's active credential for a provider.
// The returned plaintext is only valid for the duration of the provisioning
// call; callers must not retain or log it.
func (s *CredentialService) Resolve(userID uuid.UUID, provider models.ProviderType) (providers.Credential, error) {
	var credential models.Credential
	err := s.db.Where("user_id = ? AND provider = ? AND active = ?", userID, provider, true).
		First(&credential).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return providers.Credential{}, apperrors.CredentialNotFound(string(provider))
		}
		return providers.Credential{}, fmt.Errorf("failed to load credential: %w", err)
	}

	return s.decryptCredential(&credential)
}

// decryptCredential unseals a stored credential row. Any failure, whether a
// wrong key, a corrupted ciphertext, or a malformed serialized value, surfaces
// as a decryption_error rather than a raw cipher error.
func (s *CredentialService) decryptCredential(credential *models.Credential) (providers.Credential, error) {
	secretKey, err := utils.DecryptSecret(credential.EncryptedSecretKey, s.encryptionKey)
	if err != nil {
		return providers.Credential{}, apperrors.Decryption(err)
	}

	var publicKey string
	if credential.EncryptedPublicKey != "" {
		publicKey, err = utils.DecryptSecret(credential.EncryptedPublicKey, s.encryptionKey)
		if err != nil {
			return providers.Credential{}, apperrors.Decryption(err)
		}
	}

	return providers.Credential{
		APIKey:    secretKey,
		PublicKey: publicKey,
		StoreID:   credential.StoreID,
	}, nil
}
