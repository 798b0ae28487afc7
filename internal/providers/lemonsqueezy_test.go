// internal/providers/lemonsqueezy_test.go
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/launchkit-backend/internal/apperrors"
	"github.com/launchkit/launchkit-backend/internal/models"
)

func newTestAdapter(serverURL string) *LemonSqueezyAdapter {
	adapter := NewLemonSqueezyAdapter(Credential{
		APIKey:  "lsq_test_key",
		StoreID: "42",
	})
	adapter.baseURL = serverURL
	return adapter
}

func TestLemonSqueezyCreateProductAndPrices(t *testing.T) {
	var requests []lsDocument
	variantCounter := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer lsq_test_key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.api+json", r.Header.Get("Accept"))
		assert.Equal(t, "application/vnd.api+json", r.Header.Get("Content-Type"))

		var doc lsDocument
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		requests = append(requests, doc)

		w.WriteHeader(http.StatusCreated)
		switch r.URL.Path {
		case "/products":
			fmt.Fprint(w, `{"data":{"type":"products","id":"789"}}`)
		case "/variants":
			variantCounter++
			fmt.Fprintf(w, `{"data":{"type":"variants","id":"%d"}}`, 1000+variantCounter)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	plans := []PlanSpec{
		{Name: "Basic", Amount: 2900, Currency: "usd", Interval: models.PlanIntervalMonth},
		{Name: "Team", Amount: 9900, Currency: "usd", Interval: models.PlanIntervalMonth, TrialDays: 14},
		{Name: "Lifetime", Amount: 49900, Currency: "usd", Interval: models.PlanIntervalOnce},
	}

	result, err := adapter.CreateProductAndPrices(context.Background(), "Acme Pro", "Project management", plans)
	require.NoError(t, err)

	assert.Equal(t, "789", result.ProductID)
	assert.Equal(t, []string{"1001", "1002", "1003"}, result.PriceIDs, "variant IDs must follow plan order")

	require.Len(t, requests, 4)

	productReq := requests[0]
	assert.Equal(t, "products", productReq.Data.Type)
	assert.Equal(t, "Acme Pro", productReq.Data.Attributes["name"])
	assert.Equal(t, "published", productReq.Data.Attributes["status"])
	assert.Equal(t, "42", productReq.Data.Relationships["store"].Data.ID)

	basicReq := requests[1]
	assert.Equal(t, "variants", basicReq.Data.Type)
	assert.Equal(t, "Basic", basicReq.Data.Attributes["name"])
	assert.Equal(t, true, basicReq.Data.Attributes["is_subscription"])
	assert.Equal(t, "month", basicReq.Data.Attributes["interval"])
	assert.Equal(t, "789", basicReq.Data.Relationships["product"].Data.ID)
	assert.NotContains(t, basicReq.Data.Attributes, "has_free_trial")

	teamReq := requests[2]
	assert.Equal(t, true, teamReq.Data.Attributes["has_free_trial"])
	assert.Equal(t, float64(14), teamReq.Data.Attributes["trial_interval_count"])

	lifetimeReq := requests[3]
	assert.Equal(t, false, lifetimeReq.Data.Attributes["is_subscription"])
	assert.NotContains(t, lifetimeReq.Data.Attributes, "interval")
}

func TestLemonSqueezyCreateProductAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"errors":[{"detail":"store not found"}]}`)
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	_, err := adapter.CreateProductAndPrices(context.Background(), "Acme Pro", "", []PlanSpec{
		{Name: "Basic", Amount: 2900, Interval: models.PlanIntervalMonth},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindProvider, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "422")
}

func TestLemonSqueezyVariantFailureStopsRun(t *testing.T) {
	var variantCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products":
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"data":{"type":"products","id":"789"}}`)
		case "/variants":
			variantCalls++
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"errors":[{"detail":"boom"}]}`)
		}
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	_, err := adapter.CreateProductAndPrices(context.Background(), "Acme Pro", "", []PlanSpec{
		{Name: "Basic", Amount: 2900, Interval: models.PlanIntervalMonth},
		{Name: "Team", Amount: 9900, Interval: models.PlanIntervalMonth},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindProvider, apperrors.KindOf(err))
	assert.Equal(t, 1, variantCalls, "run must stop at the first failed variant")
	assert.Contains(t, err.Error(), "Basic")
}

func TestLemonSqueezyCreateWebhook(t *testing.T) {
	var received lsDocument
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webhooks", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"data":{"type":"webhooks","id":"wh_55"}}`)
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	registration, err := adapter.CreateWebhook(context.Background(), "https://example.com/webhooks/lemonsqueezy")
	require.NoError(t, err)

	assert.Equal(t, "wh_55", registration.ID)
	assert.Len(t, registration.SigningSecret, 32, "adapter must mint the signing secret itself")
	assert.Equal(t, lemonSqueezyWebhookEvents, registration.Events)

	assert.Equal(t, "webhooks", received.Data.Type)
	assert.Equal(t, "https://example.com/webhooks/lemonsqueezy", received.Data.Attributes["url"])
	assert.Equal(t, registration.SigningSecret, received.Data.Attributes["secret"])
	assert.Equal(t, "42", received.Data.Relationships["store"].Data.ID)
}

func TestNewSelectsAdapterByTag(t *testing.T) {
	cred := Credential{APIKey: "key", StoreID: "42"}

	stripe, err := New(models.ProviderStripe, cred)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderStripe, stripe.Type())

	lemon, err := New(models.ProviderLemonSqueezy, cred)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderLemonSqueezy, lemon.Type())

	_, err = New(models.ProviderType("paddle"), cred)
	assert.Error(t, err)
}
