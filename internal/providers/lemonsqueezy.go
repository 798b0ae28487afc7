// internal/providers/lemonsqueezy.go
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/launchkit/launchkit-backend/internal/apperrors"
	"github.com/launchkit/launchkit-backend/internal/models"
	"github.com/launchkit/launchkit-backend/internal/utils"
)

const lemonSqueezyAPIBase = "https://api.lemonsqueezy.com/v1"

var lemonSqueezyWebhookEvents = []string{
	"subscription_created",
	"subscription_updated",
	"subscription_cancelled",
	"subscription_expired",
	"subscription_payment_success",
	"subscription_payment_failed",
}

// LemonSqueezyAdapter talks to the Lemon Squeezy JSON:API. Unlike Stripe,
// Lemon Squeezy does not issue webhook signing secrets; the adapter generates
// one and supplies it at registration time.
type LemonSqueezyAdapter struct {
	apiKey     string
	storeID    string
	baseURL    string
	httpClient *http.Client
}

func NewLemonSqueezyAdapter(cred Credential) *LemonSqueezyAdapter {
	return &LemonSqueezyAdapter{
		apiKey:  cred.APIKey,
		storeID: cred.StoreID,
		baseURL: lemonSqueezyAPIBase,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (a *LemonSqueezyAdapter) Type() models.ProviderType {
	return models.ProviderLemonSqueezy
}

// resource is the generic JSON:API document wrapper.
type lsResource struct {
	Type          string                 `json:"type"`
	ID            string                 `json:"id,omitempty"`
	Attributes    map[string]interface{} `json:"attributes"`
	Relationships map[string]lsRelation  `json:"relationships,omitempty"`
}

type lsRelation struct {
	Data lsRelationData `json:"data"`
}

type lsRelationData struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type lsDocument struct {
	Data lsResource `json:"data"`
}

func (a *LemonSqueezyAdapter) CreateProductAndPrices(ctx context.Context, name, description string, plans []PlanSpec) (*ProvisionedProduct, error) {
	productDoc := lsDocument{
		Data: lsResource{
			Type: "products",
			Attributes: map[string]interface{}{
				"name":        name,
				"description": description,
				"status":      "published",
			},
			Relationships: map[string]lsRelation{
				"store": {Data: lsRelationData{Type: "stores", ID: a.storeID}},
			},
		},
	}

	var productResp lsDocument
	if err := a.do(ctx, http.MethodPost, "/products", &productDoc, &productResp); err != nil {
		return nil, apperrors.Provider(string(models.ProviderLemonSqueezy), fmt.Errorf("create product: %w", err))
	}

	variantIDs := make([]string, 0, len(plans))
	for _, plan := range plans {
		attributes := map[string]interface{}{
			"name":            plan.Name,
			"price":           plan.Amount,
			"is_subscription": plan.Interval != models.PlanIntervalOnce,
		}
		if plan.Interval != models.PlanIntervalOnce {
			attributes["interval"] = string(plan.Interval)
			attributes["interval_count"] = 1
		}
		if plan.TrialDays > 0 {
			attributes["has_free_trial"] = true
			attributes["trial_interval"] = "day"
			attributes["trial_interval_count"] = plan.TrialDays
		}

		variantDoc := lsDocument{
			Data: lsResource{
				Type:       "variants",
				Attributes: attributes,
				Relationships: map[string]lsRelation{
					"product": {Data: lsRelationData{Type: "products", ID: productResp.Data.ID}},
				},
			},
		}

		var variantResp lsDocument
		if err := a.do(ctx, http.MethodPost, "/variants", &variantDoc, &variantResp); err != nil {
			return nil, apperrors.Provider(string(models.ProviderLemonSqueezy),
				fmt.Errorf("create variant for plan %q: %w", plan.Name, err))
		}
		variantIDs = append(variantIDs, variantResp.Data.ID)
	}

	return &ProvisionedProduct{
		ProductID: productResp.Data.ID,
		PriceIDs:  variantIDs,
	}, nil
}

func (a *LemonSqueezyAdapter) CreateWebhook(ctx context.Context, url string) (*WebhookRegistration, error) {
	secret, err := utils.GenerateSigningSecret()
	if err != nil {
		return nil, apperrors.Provider(string(models.ProviderLemonSqueezy), fmt.Errorf("generate signing secret: %w", err))
	}

	webhookDoc := lsDocument{
		Data: lsResource{
			Type: "webhooks",
			Attributes: map[string]interface{}{
				"url":    url,
				"events": lemonSqueezyWebhookEvents,
				"secret": secret,
			},
			Relationships: map[string]lsRelation{
				"store": {Data: lsRelationData{Type: "stores", ID: a.storeID}},
			},
		},
	}

	var webhookResp lsDocument
	if err := a.do(ctx, http.MethodPost, "/webhooks", &webhookDoc, &webhookResp); err != nil {
		return nil, apperrors.Provider(string(models.ProviderLemonSqueezy), fmt.Errorf("create webhook: %w", err))
	}

	return &WebhookRegistration{
		ID:            webhookResp.Data.ID,
		SigningSecret: secret,
		Events:        lemonSqueezyWebhookEvents,
	}, nil
}

func (a *LemonSqueezyAdapter) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.api+json")
	req.Header.Set("Content-Type", "application/vnd.api+json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, truncate(string(respBody), 200))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
