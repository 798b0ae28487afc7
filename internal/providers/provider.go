// internal/providers/provider.go
package providers

import (
	"context"
	"fmt"

	"github.com/launchkit/launchkit-backend/internal/models"
)

// Credential is a decrypted provider credential. Instances live only for the
// duration of a provisioning call and must never be persisted or logged.
type Credential struct {
	APIKey    string
	PublicKey string
	StoreID   string
}

// PlanSpec describes one price/variant to create on a provider.
type PlanSpec struct {
	Name      string
	Amount    int64 // minor currency units
	Currency  string
	Interval  models.PlanInterval
	TrialDays int
}

// ProvisionedProduct is the result of a successful product+prices run.
// PriceIDs has one entry per input plan, in the same order.
type ProvisionedProduct struct {
	ProductID string
	PriceIDs  []string
}

// WebhookRegistration is the result of registering a remote webhook endpoint.
type WebhookRegistration struct {
	ID            string
	SigningSecret string
	Events        []string
}

// Provider wraps one payment platform's product/price/webhook creation calls.
// Implementations are constructed per call from a decrypted credential; they
// never mutate shared SDK state.
type Provider interface {
	Type() models.ProviderType
	CreateProductAndPrices(ctx context.Context, name, description string, plans []PlanSpec) (*ProvisionedProduct, error)
	CreateWebhook(ctx context.Context, url string) (*WebhookRegistration, error)
}

// Factory builds a Provider for a tag and credential. The orchestrator holds
// one so tests can substitute fakes.
type Factory func(providerType models.ProviderType, cred Credential) (Provider, error)

// New selects the adapter by explicit tag.
func New(providerType models.ProviderType, cred Credential) (Provider, error) {
	switch providerType {
	case models.ProviderStripe:
		return NewStripeAdapter(cred), nil
	case models.ProviderLemonSqueezy:
		return NewLemonSqueezyAdapter(cred), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", providerType)
	}
}
