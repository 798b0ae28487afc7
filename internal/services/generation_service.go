// internal/services/generation_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/launchkit/launchkit-backend/internal/apperrors"
	"github.com/launchkit/launchkit-backend/internal/codegen"
	"github.com/launchkit/launchkit-backend/internal/config"
	"github.com/launchkit/launchkit-backend/internal/models"
	"github.com/launchkit/launchkit-backend/internal/providers"
	"github.com/launchkit/launchkit-backend/internal/utils"
)

// GenerationService drives the whole generation flow: quota check, local
// product creation, per-provider remote provisioning, plan persistence, and
// code generation. Providers are processed sequentially; there is no
// compensation on partial failure (see Generate).
type GenerationService struct {
	db          *gorm.DB
	cfg         *config.Config
	credentials *CredentialService

	// Injection points for tests.
	newProvider       providers.Factory
	resolveCredential func(userID uuid.UUID, provider models.ProviderType) (providers.Credential, error)
	loadUser          func(userID uuid.UUID) (*models.User, error)
	loadProject       func(userID, projectID uuid.UUID) (*models.Project, error)
	countProducts     func(projectID uuid.UUID) (int64, error)
}

func NewGenerationService(db *gorm.DB, cfg *config.Config, credentials *CredentialService) *GenerationService {
	s := &GenerationService{
		db:          db,
		cfg:         cfg,
		credentials: credentials,
		newProvider: providers.New,
	}
	s.resolveCredential = credentials.Resolve
	s.loadUser = s.findUser
	s.loadProject = s.findProject
	s.countProducts = s.countProjectProducts
	return s
}

func (s *GenerationService) findUser(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *GenerationService) findProject(userID, projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, "id = ? AND user_id = ?", projectID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("project")
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return &project, nil
}

// checkQuota enforces the free-tier product limit per project. Paid tiers
// pass without a count lookup.
func (s *GenerationService) checkQuota(user *models.User, projectID uuid.UUID) error {
	if !user.IsFreeTier() {
		return nil
	}

	productCount, err := s.countProducts(projectID)
	if err != nil {
		return err
	}
	if productCount >= int64(s.cfg.Generation.FreeTierProducts) {
		return apperrors.QuotaExceeded(
			"Free plan users are limited to 1 product per project. Upgrade to generate more products.")
	}
	return nil
}

func (s *GenerationService) countProjectProducts(projectID uuid.UUID) (int64, error) {
	var count int64
	if err := s.db.Model(&models.Product{}).
		Where("project_id = ?", projectID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

type ProductInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
}

type PlanInput struct {
	Name      string   `json:"name" validate:"required,max=100"`
	Price     int64    `json:"price" validate:"min=0"` // minor currency units
	Currency  string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	Interval  string   `json:"interval" validate:"required,plan_interval"`
	TrialDays int      `json:"trial_days,omitempty" validate:"min=0,max=365"`
	Features  []string `json:"features,omitempty"`
}

type IntegrationSettings struct {
	CreateInStripe       bool   `json:"create_in_stripe"`
	CreateInLemonSqueezy bool   `json:"create_in_lemonsqueezy"`
	WebhookURL           string `json:"webhook_url,omitempty" validate:"omitempty,url"`
}

type GenerateRequest struct {
	ProjectID           uuid.UUID           `json:"project_id" validate:"required"`
	Product             ProductInput        `json:"product" validate:"required"`
	PricingPlans        []PlanInput         `json:"pricing_plans" validate:"required,min=1,max=10,dive"`
	IntegrationSettings IntegrationSettings `json:"integration_settings"`
	BackendStack        string              `json:"backend_stack" validate:"required,backend_stack"`
}

type GenerateResult struct {
	Product       *models.Product   `json:"product"`
	GeneratedCode map[string]string `json:"generated_code"`
}

// EnabledProviders returns the providers to provision, in the order they are
// processed.
func (r *GenerateRequest) EnabledProviders() []models.ProviderType {
	var enabled []models.ProviderType
	if r.IntegrationSettings.CreateInStripe {
		enabled = append(enabled, models.ProviderStripe)
	}
	if r.IntegrationSettings.CreateInLemonSqueezy {
		enabled = append(enabled, models.ProviderLemonSqueezy)
	}
	return enabled
}

// provisionOutcome is the in-memory bookkeeping for one provisioning run:
// per-provider remote product IDs plus a parallel per-plan ID array per
// provider, keyed by plan index.
type provisionOutcome struct {
	stripeProductID string
	stripePriceIDs  []string

	lemonProductID  string
	lemonStoreID    string
	lemonVariantIDs []string
}

// Generate runs one generation request end to end.
//
// Failure semantics: anything before provisioning aborts with no side
// effects. A provider failure mid-run aborts the request, but remote objects
// and webhook rows already created for earlier providers are kept, and their
// IDs are still written back onto the product and plan rows, an accepted
// at-least-once partial state. A re-submitted request provisions from
// scratch and can duplicate remote objects.
func (s *GenerationService) Generate(ctx context.Context, userID uuid.UUID, req *GenerateRequest) (*GenerateResult, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}

	project, err := s.loadProject(userID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	// Quota gate runs before any row is written so a rejection has zero side
	// effects.
	if err := s.checkQuota(user, project.ID); err != nil {
		return nil, err
	}

	product := &models.Product{
		ProjectID:   project.ID,
		UserID:      userID,
		Name:        req.Product.Name,
		Description: req.Product.Description,
		Status:      models.ProductStatusDraft,
	}
	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	webhookURL := req.IntegrationSettings.WebhookURL
	if webhookURL == "" {
		webhookURL = s.cfg.Generation.DefaultWebhookURL
	}

	enabled := req.EnabledProviders()
	persistWebhook := func(webhook *models.Webhook) error {
		return s.db.Create(webhook).Error
	}

	outcome, provisionErr := s.provisionProviders(ctx, userID, product.ID, req.PricingPlans, enabled, req.Product, webhookURL, persistWebhook)

	// Write back whatever was obtained, even when a later provider failed:
	// partial state is kept, not rolled back.
	plans, persistErr := s.persistOutcome(product, req.PricingPlans, outcome, provisionErr == nil)
	if persistErr != nil {
		return nil, persistErr
	}
	if provisionErr != nil {
		return nil, provisionErr
	}

	files, err := codegen.Generate(product, plans, codegen.Options{
		Stack:      models.BackendStack(req.BackendStack),
		Providers:  enabled,
		WebhookURL: webhookURL,
	})
	if err != nil {
		return nil, err
	}

	generation := &models.CodeGeneration{
		UserID:       userID,
		ProjectID:    project.ID,
		ProductID:    product.ID,
		BackendStack: models.BackendStack(req.BackendStack),
		FileCount:    len(files),
	}
	if err := s.db.Create(generation).Error; err != nil {
		return nil, fmt.Errorf("failed to record generation: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"product_id": product.ID,
		"providers":  enabled,
		"stack":      req.BackendStack,
		"files":      len(files),
	}).Info("Product generation completed")

	product.Plans = plans
	return &GenerateResult{
		Product:       product,
		GeneratedCode: files,
	}, nil
}

// provisionProviders runs the sequential per-provider loop. On failure it
// returns the outcome accumulated so far together with the error; the caller
// decides what to persist. Webhook rows are persisted through the callback
// the moment each provider's registration succeeds, not at end of run.
func (s *GenerationService) provisionProviders(
	ctx context.Context,
	userID uuid.UUID,
	productID uuid.UUID,
	plans []PlanInput,
	enabled []models.ProviderType,
	productInput ProductInput,
	webhookURL string,
	persistWebhook func(*models.Webhook) error,
) (*provisionOutcome, error) {
	outcome := &provisionOutcome{}

	specs := make([]providers.PlanSpec, len(plans))
	for i, plan := range plans {
		specs[i] = providers.PlanSpec{
			Name:      plan.Name,
			Amount:    plan.Price,
			Currency:  plan.Currency,
			Interval:  models.PlanInterval(plan.Interval),
			TrialDays: plan.TrialDays,
		}
	}

	for _, providerType := range enabled {
		credential, err := s.resolveCredential(userID, providerType)
		if err != nil {
			return outcome, err
		}

		adapter, err := s.newProvider(providerType, credential)
		if err != nil {
			return outcome, fmt.Errorf("failed to build %s adapter: %w", providerType, err)
		}

		provisioned, err := adapter.CreateProductAndPrices(ctx, productInput.Name, productInput.Description, specs)
		if err != nil {
			return outcome, err
		}

		switch providerType {
		case models.ProviderStripe:
			outcome.stripeProductID = provisioned.ProductID
			outcome.stripePriceIDs = provisioned.PriceIDs
		case models.ProviderLemonSqueezy:
			outcome.lemonProductID = provisioned.ProductID
			outcome.lemonStoreID = credential.StoreID
			outcome.lemonVariantIDs = provisioned.PriceIDs
		}

		logrus.WithFields(logrus.Fields{
			"provider":   providerType,
			"product_id": productID,
			"prices":     len(provisioned.PriceIDs),
		}).Info("Provider provisioning succeeded")

		if webhookURL != "" {
			registration, err := adapter.CreateWebhook(ctx, webhookURL)
			if err != nil {
				return outcome, err
			}
			webhook := &models.Webhook{
				ProductID:         productID,
				Provider:          providerType,
				ProviderWebhookID: registration.ID,
				URL:               webhookURL,
				SigningSecret:     registration.SigningSecret,
				Events:            registration.Events,
				Status:            models.WebhookStatusActive,
			}
			if err := persistWebhook(webhook); err != nil {
				return outcome, fmt.Errorf("failed to persist %s webhook: %w", providerType, err)
			}
		}
	}

	return outcome, nil
}

// persistOutcome writes the plan rows and updates the product with whatever
// provider IDs the run obtained. The product only transitions to active when
// every enabled provider succeeded.
func (s *GenerationService) persistOutcome(product *models.Product, planInputs []PlanInput, outcome *provisionOutcome, complete bool) ([]models.PricingPlan, error) {
	plans := make([]models.PricingPlan, len(planInputs))
	for i, input := range planInputs {
		currency := input.Currency
		if currency == "" {
			currency = "usd"
		}
		plans[i] = models.PricingPlan{
			ProductID: product.ID,
			Name:      input.Name,
			Amount:    input.Price,
			Currency:  currency,
			Interval:  models.PlanInterval(input.Interval),
			TrialDays: input.TrialDays,
			Features:  input.Features,
			Position:  i,
		}
		if i < len(outcome.stripePriceIDs) {
			plans[i].StripePriceID = outcome.stripePriceIDs[i]
		}
		if i < len(outcome.lemonVariantIDs) {
			plans[i].LemonSqueezyVariantID = outcome.lemonVariantIDs[i]
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range plans {
			if err := tx.Create(&plans[i]).Error; err != nil {
				return fmt.Errorf("failed to persist plan %q: %w", plans[i].Name, err)
			}
		}

		product.StripeProductID = outcome.stripeProductID
		product.LemonSqueezyProductID = outcome.lemonProductID
		product.LemonSqueezyStoreID = outcome.lemonStoreID
		if complete {
			product.Status = models.ProductStatusActive
		}
		return tx.Save(product).Error
	})
	if err != nil {
		return nil, err
	}

	return plans, nil
}

// RegenerateFiles re-runs code generation for an already provisioned product.
// Generation is deterministic, so the result matches the original run's
// output for the same stored state.
func (s *GenerationService) RegenerateFiles(userID, productID uuid.UUID) (*models.Product, map[string]string, error) {
	var product models.Product
	err := s.db.Preload("Plans", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&product, "id = ? AND user_id = ?", productID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("product")
		}
		return nil, nil, fmt.Errorf("failed to load product: %w", err)
	}

	var generation models.CodeGeneration
	err = s.db.Where("product_id = ?", productID).
		Order("created_at DESC").
		First(&generation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("generation")
		}
		return nil, nil, fmt.Errorf("failed to load generation record: %w", err)
	}

	var enabled []models.ProviderType
	if product.StripeProductID != "" {
		enabled = append(enabled, models.ProviderStripe)
	}
	if product.LemonSqueezyProductID != "" {
		enabled = append(enabled, models.ProviderLemonSqueezy)
	}

	files, err := codegen.Generate(&product, product.Plans, codegen.Options{
		Stack:     generation.BackendStack,
		Providers: enabled,
	})
	if err != nil {
		return nil, nil, err
	}

	return &product, files, nil
}

// RecordBundleKey stores the S3 key of an uploaded bundle on the product's
// latest generation record so the download can be traced later.
func (s *GenerationService) RecordBundleKey(userID, productID uuid.UUID, key string) error {
	var generation models.CodeGeneration
	err := s.db.Where("product_id = ? AND user_id = ?", productID, userID).
		Order("created_at DESC").
		First(&generation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("generation")
		}
		return fmt.Errorf("failed to load generation record: %w", err)
	}

	if err := s.db.Model(&generation).Update("bundle_key", key).Error; err != nil {
		return fmt.Errorf("failed to record bundle key: %w", err)
	}
	return nil
}

// History returns the user's persisted generation log entries.
func (s *GenerationService) History(userID uuid.UUID, params utils.PaginationParams) ([]models.CodeGeneration, int64, error) {
	query := s.db.Model(&models.CodeGeneration{}).
		Where("user_id = ?", userID).
		Preload("Product")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count generations: %w", err)
	}

	allowedSortFields := []string{"created_at", "backend_stack"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var generations []models.CodeGeneration
	if err := query.Find(&generations).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch generations: %w", err)
	}

	return generations, total, nil
}
