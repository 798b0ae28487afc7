// internal/services/generation_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/launchkit-backend/internal/apperrors"
	"github.com/launchkit/launchkit-backend/internal/config"
	"github.com/launchkit/launchkit-backend/internal/models"
	"github.com/launchkit/launchkit-backend/internal/providers"
)

// fakeProvider records the calls made against it and answers from canned
// results, standing in for the real payment platform adapters.
type fakeProvider struct {
	providerType models.ProviderType

	provisioned  *providers.ProvisionedProduct
	provisionErr error
	registration *providers.WebhookRegistration
	webhookErr   error

	productCalls []struct {
		name  string
		plans []providers.PlanSpec
	}
	webhookCalls []string
}

func (f *fakeProvider) Type() models.ProviderType {
	return f.providerType
}

func (f *fakeProvider) CreateProductAndPrices(ctx context.Context, name, description string, plans []providers.PlanSpec) (*providers.ProvisionedProduct, error) {
	f.productCalls = append(f.productCalls, struct {
		name  string
		plans []providers.PlanSpec
	}{name, plans})
	if f.provisionErr != nil {
		return nil, f.provisionErr
	}
	return f.provisioned, nil
}

func (f *fakeProvider) CreateWebhook(ctx context.Context, url string) (*providers.WebhookRegistration, error) {
	f.webhookCalls = append(f.webhookCalls, url)
	if f.webhookErr != nil {
		return nil, f.webhookErr
	}
	return f.registration, nil
}

func newTestService(fakes map[models.ProviderType]*fakeProvider) *GenerationService {
	return &GenerationService{
		newProvider: func(providerType models.ProviderType, cred providers.Credential) (providers.Provider, error) {
			return fakes[providerType], nil
		},
		resolveCredential: func(userID uuid.UUID, provider models.ProviderType) (providers.Credential, error) {
			return providers.Credential{APIKey: "key", StoreID: "42"}, nil
		},
	}
}

func testPlans() []PlanInput {
	return []PlanInput{
		{Name: "Basic", Price: 2900, Interval: "month"},
		{Name: "Team", Price: 9900, Interval: "month", TrialDays: 14},
	}
}

func TestProvisionProvidersBothSucceed(t *testing.T) {
	fakes := map[models.ProviderType]*fakeProvider{
		models.ProviderStripe: {
			providerType: models.ProviderStripe,
			provisioned:  &providers.ProvisionedProduct{ProductID: "prod_123", PriceIDs: []string{"price_1", "price_2"}},
			registration: &providers.WebhookRegistration{ID: "we_1", SigningSecret: "whsec_abc", Events: []string{"checkout.session.completed"}},
		},
		models.ProviderLemonSqueezy: {
			providerType: models.ProviderLemonSqueezy,
			provisioned:  &providers.ProvisionedProduct{ProductID: "789", PriceIDs: []string{"1001", "1002"}},
			registration: &providers.WebhookRegistration{ID: "wh_55", SigningSecret: "lssecret", Events: []string{"subscription_created"}},
		},
	}
	svc := newTestService(fakes)

	var persisted []*models.Webhook
	persistWebhook := func(w *models.Webhook) error {
		persisted = append(persisted, w)
		return nil
	}

	productID := uuid.New()
	outcome, err := svc.provisionProviders(
		context.Background(),
		uuid.New(),
		productID,
		testPlans(),
		[]models.ProviderType{models.ProviderStripe, models.ProviderLemonSqueezy},
		ProductInput{Name: "Acme Pro", Description: "desc"},
		"https://example.com/webhooks",
		persistWebhook,
	)
	require.NoError(t, err)

	assert.Equal(t, "prod_123", outcome.stripeProductID)
	assert.Equal(t, []string{"price_1", "price_2"}, outcome.stripePriceIDs)
	assert.Equal(t, "789", outcome.lemonProductID)
	assert.Equal(t, "42", outcome.lemonStoreID)
	assert.Equal(t, []string{"1001", "1002"}, outcome.lemonVariantIDs)

	// Plan specs reach the adapter in input order.
	require.Len(t, fakes[models.ProviderStripe].productCalls, 1)
	specs := fakes[models.ProviderStripe].productCalls[0].plans
	require.Len(t, specs, 2)
	assert.Equal(t, "Basic", specs[0].Name)
	assert.Equal(t, "Team", specs[1].Name)
	assert.Equal(t, 14, specs[1].TrialDays)

	// One webhook row per provider, persisted as each registration lands.
	require.Len(t, persisted, 2)
	assert.Equal(t, models.ProviderStripe, persisted[0].Provider)
	assert.Equal(t, "we_1", persisted[0].ProviderWebhookID)
	assert.Equal(t, "whsec_abc", persisted[0].SigningSecret)
	assert.Equal(t, productID, persisted[0].ProductID)
	assert.Equal(t, models.ProviderLemonSqueezy, persisted[1].Provider)
	assert.Equal(t, models.WebhookStatusActive, persisted[1].Status)
}

func TestProvisionProvidersSecondProviderFails(t *testing.T) {
	fakes := map[models.ProviderType]*fakeProvider{
		models.ProviderStripe: {
			providerType: models.ProviderStripe,
			provisioned:  &providers.ProvisionedProduct{ProductID: "prod_123", PriceIDs: []string{"price_1", "price_2"}},
			registration: &providers.WebhookRegistration{ID: "we_1", SigningSecret: "whsec_abc"},
		},
		models.ProviderLemonSqueezy: {
			providerType: models.ProviderLemonSqueezy,
			provisionErr: apperrors.Provider("lemonsqueezy", assert.AnError),
		},
	}
	svc := newTestService(fakes)

	var persisted []*models.Webhook
	outcome, err := svc.provisionProviders(
		context.Background(),
		uuid.New(),
		uuid.New(),
		testPlans(),
		[]models.ProviderType{models.ProviderStripe, models.ProviderLemonSqueezy},
		ProductInput{Name: "Acme Pro"},
		"https://example.com/webhooks",
		func(w *models.Webhook) error {
			persisted = append(persisted, w)
			return nil
		},
	)

	require.Error(t, err)
	assert.Equal(t, apperrors.KindProvider, apperrors.KindOf(err))

	// Earlier provider results are kept for write-back, not rolled back.
	assert.Equal(t, "prod_123", outcome.stripeProductID)
	assert.Empty(t, outcome.lemonProductID)
	assert.Empty(t, outcome.lemonVariantIDs)

	require.Len(t, persisted, 1)
	assert.Equal(t, models.ProviderStripe, persisted[0].Provider)
	assert.Empty(t, fakes[models.ProviderLemonSqueezy].webhookCalls,
		"no webhook registration after a failed provisioning call")
}

func TestProvisionProvidersNoWebhookURL(t *testing.T) {
	fakes := map[models.ProviderType]*fakeProvider{
		models.ProviderStripe: {
			providerType: models.ProviderStripe,
			provisioned:  &providers.ProvisionedProduct{ProductID: "prod_123", PriceIDs: []string{"price_1"}},
		},
	}
	svc := newTestService(fakes)

	outcome, err := svc.provisionProviders(
		context.Background(),
		uuid.New(),
		uuid.New(),
		[]PlanInput{{Name: "Basic", Price: 2900, Interval: "month"}},
		[]models.ProviderType{models.ProviderStripe},
		ProductInput{Name: "Acme Pro"},
		"",
		func(w *models.Webhook) error {
			t.Fatal("no webhook row expected without a webhook URL")
			return nil
		},
	)
	require.NoError(t, err)
	assert.Equal(t, "prod_123", outcome.stripeProductID)
	assert.Empty(t, fakes[models.ProviderStripe].webhookCalls)
}

func TestProvisionProvidersCredentialMissing(t *testing.T) {
	fakes := map[models.ProviderType]*fakeProvider{
		models.ProviderStripe: {providerType: models.ProviderStripe},
	}
	svc := newTestService(fakes)
	svc.resolveCredential = func(userID uuid.UUID, provider models.ProviderType) (providers.Credential, error) {
		return providers.Credential{}, apperrors.CredentialNotFound(string(provider))
	}

	_, err := svc.provisionProviders(
		context.Background(),
		uuid.New(),
		uuid.New(),
		testPlans(),
		[]models.ProviderType{models.ProviderStripe},
		ProductInput{Name: "Acme Pro"},
		"https://example.com/webhooks",
		func(w *models.Webhook) error { return nil },
	)

	require.Error(t, err)
	assert.Equal(t, apperrors.KindCredentialNotFound, apperrors.KindOf(err))
	assert.Empty(t, fakes[models.ProviderStripe].productCalls,
		"no remote calls without a resolved credential")
}

func TestProvisionProvidersNoneEnabled(t *testing.T) {
	svc := newTestService(nil)
	svc.resolveCredential = func(userID uuid.UUID, provider models.ProviderType) (providers.Credential, error) {
		t.Fatal("no credential lookup expected with no providers enabled")
		return providers.Credential{}, nil
	}

	outcome, err := svc.provisionProviders(
		context.Background(),
		uuid.New(),
		uuid.New(),
		testPlans(),
		nil,
		ProductInput{Name: "Acme Pro"},
		"https://example.com/webhooks",
		func(w *models.Webhook) error {
			t.Fatal("no webhook rows expected with no providers enabled")
			return nil
		},
	)
	require.NoError(t, err)
	assert.Empty(t, outcome.stripeProductID)
	assert.Empty(t, outcome.lemonProductID)
}

func TestGenerateQuotaRejectionWritesNothing(t *testing.T) {
	userID := uuid.New()
	projectID := uuid.New()

	// db stays nil: any attempted row write would panic, so a clean typed
	// error doubles as proof that nothing was persisted.
	svc := &GenerationService{
		cfg: &config.Config{
			Generation: config.GenerationConfig{FreeTierProducts: 1},
		},
	}
	svc.loadUser = func(id uuid.UUID) (*models.User, error) {
		assert.Equal(t, userID, id)
		return &models.User{SubscriptionTier: models.SubscriptionTierFree}, nil
	}
	svc.loadProject = func(uid, pid uuid.UUID) (*models.Project, error) {
		assert.Equal(t, projectID, pid)
		project := &models.Project{}
		project.ID = pid
		return project, nil
	}
	svc.countProducts = func(pid uuid.UUID) (int64, error) {
		return 1, nil
	}

	_, err := svc.Generate(context.Background(), userID, &GenerateRequest{
		ProjectID:    projectID,
		Product:      ProductInput{Name: "Acme Pro"},
		PricingPlans: testPlans(),
		BackendStack: "nextjs-api",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.KindQuotaExceeded, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "Free plan users are limited")
}

func TestCheckQuota(t *testing.T) {
	svc := &GenerationService{
		cfg: &config.Config{
			Generation: config.GenerationConfig{FreeTierProducts: 1},
		},
	}

	t.Run("free tier at limit", func(t *testing.T) {
		svc.countProducts = func(pid uuid.UUID) (int64, error) { return 1, nil }
		err := svc.checkQuota(&models.User{SubscriptionTier: models.SubscriptionTierFree}, uuid.New())
		require.Error(t, err)
		assert.Equal(t, apperrors.KindQuotaExceeded, apperrors.KindOf(err))
	})

	t.Run("free tier below limit", func(t *testing.T) {
		svc.countProducts = func(pid uuid.UUID) (int64, error) { return 0, nil }
		err := svc.checkQuota(&models.User{SubscriptionTier: models.SubscriptionTierFree}, uuid.New())
		assert.NoError(t, err)
	})

	t.Run("pro tier skips the count", func(t *testing.T) {
		svc.countProducts = func(pid uuid.UUID) (int64, error) {
			t.Fatal("product count must not be consulted for paid tiers")
			return 0, nil
		}
		err := svc.checkQuota(&models.User{SubscriptionTier: models.SubscriptionTierPro}, uuid.New())
		assert.NoError(t, err)
	})
}

func TestEnabledProvidersOrder(t *testing.T) {
	req := &GenerateRequest{
		IntegrationSettings: IntegrationSettings{
			CreateInStripe:       true,
			CreateInLemonSqueezy: true,
		},
	}
	assert.Equal(t,
		[]models.ProviderType{models.ProviderStripe, models.ProviderLemonSqueezy},
		req.EnabledProviders(),
		"stripe is always processed before lemonsqueezy")

	req.IntegrationSettings.CreateInStripe = false
	assert.Equal(t, []models.ProviderType{models.ProviderLemonSqueezy}, req.EnabledProviders())

	req.IntegrationSettings.CreateInLemonSqueezy = false
	assert.Empty(t, req.EnabledProviders())
}
