// internal/providers/stripe.go
package providers

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"

	"github.com/launchkit/launchkit-backend/internal/apperrors"
	"github.com/launchkit/launchkit-backend/internal/models"
)

// Subscription lifecycle events the generated webhook handlers consume.
var stripeWebhookEvents = []string{
	"checkout.session.completed",
	"customer.subscription.created",
	"customer.subscription.updated",
	"customer.subscription.deleted",
	"invoice.payment_failed",
}

// StripeAdapter wraps the Stripe SDK behind the Provider contract. Each
// adapter owns its own client.API instance so one user's key never touches
// shared SDK state.
type StripeAdapter struct {
	api *client.API
}

func NewStripeAdapter(cred Credential) *StripeAdapter {
	api := &client.API{}
	api.Init(cred.APIKey, nil)
	return &StripeAdapter{api: api}
}

func (a *StripeAdapter) Type() models.ProviderType {
	return models.ProviderStripe
}

func (a *StripeAdapter) CreateProductAndPrices(ctx context.Context, name, description string, plans []PlanSpec) (*ProvisionedProduct, error) {
	productParams := &stripe.ProductParams{
		Params: stripe.Params{Context: ctx},
		Name:   stripe.String(name),
	}
	if description != "" {
		productParams.Description = stripe.String(description)
	}

	product, err := a.api.Products.New(productParams)
	if err != nil {
		return nil, apperrors.Provider(string(models.ProviderStripe), fmt.Errorf("create product: %w", err))
	}

	priceIDs := make([]string, 0, len(plans))
	for _, plan := range plans {
		currency := plan.Currency
		if currency == "" {
			currency = "usd"
		}

		priceParams := &stripe.PriceParams{
			Params:     stripe.Params{Context: ctx},
			Product:    stripe.String(product.ID),
			UnitAmount: stripe.Int64(plan.Amount),
			Currency:   stripe.String(currency),
			Nickname:   stripe.String(plan.Name),
		}

		// A one-time plan is a non-recurring price.
		if plan.Interval != models.PlanIntervalOnce {
			recurring := &stripe.PriceRecurringParams{
				Interval: stripe.String(string(plan.Interval)),
			}
			if plan.TrialDays > 0 {
				recurring.TrialPeriodDays = stripe.Int64(int64(plan.TrialDays))
			}
			priceParams.Recurring = recurring
		}

		price, err := a.api.Prices.New(priceParams)
		if err != nil {
			return nil, apperrors.Provider(string(models.ProviderStripe),
				fmt.Errorf("create price for plan %q: %w", plan.Name, err))
		}
		priceIDs = append(priceIDs, price.ID)
	}

	return &ProvisionedProduct{
		ProductID: product.ID,
		PriceIDs:  priceIDs,
	}, nil
}

func (a *StripeAdapter) CreateWebhook(ctx context.Context, url string) (*WebhookRegistration, error) {
	params := &stripe.WebhookEndpointParams{
		Params:        stripe.Params{Context: ctx},
		URL:           stripe.String(url),
		EnabledEvents: stripe.StringSlice(stripeWebhookEvents),
	}

	endpoint, err := a.api.WebhookEndpoints.New(params)
	if err != nil {
		return nil, apperrors.Provider(string(models.ProviderStripe), fmt.Errorf("create webhook endpoint: %w", err))
	}

	return &WebhookRegistration{
		ID:            endpoint.ID,
		SigningSecret: endpoint.Secret,
		Events:        stripeWebhookEvents,
	}, nil
}
