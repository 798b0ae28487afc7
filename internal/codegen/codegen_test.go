// internal/codegen/codegen_test.go
package codegen

import (
	"archive/zip"
	"bytes"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/launchkit-backend/internal/apperrors"
	"github.com/launchkit/launchkit-backend/internal/models"
)

func sampleProduct() *models.Product {
	return &models.Product{
		Name:                  "Acme Pro",
		Description:           "Project management for small teams",
		StripeProductID:       "prod_123",
		LemonSqueezyProductID: "789",
		LemonSqueezyStoreID:   "42",
	}
}

func samplePlans() []models.PricingPlan {
	return []models.PricingPlan{
		{
			Name:                  "Basic",
			Amount:                2900,
			Currency:              "usd",
			Interval:              models.PlanIntervalMonth,
			Features:              []string{"5 projects", "Email support"},
			Position:              0,
			StripePriceID:         "price_basic",
			LemonSqueezyVariantID: "1001",
		},
		{
			Name:                  "Team",
			Amount:                9900,
			Currency:              "usd",
			Interval:              models.PlanIntervalMonth,
			TrialDays:             14,
			Features:              []string{"Unlimited projects", "Priority support"},
			Position:              1,
			StripePriceID:         "price_team",
			LemonSqueezyVariantID: "1002",
		},
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	opts := Options{
		Stack:      models.BackendStackNextJS,
		Providers:  []models.ProviderType{models.ProviderStripe, models.ProviderLemonSqueezy},
		WebhookURL: "https://example.com/webhooks",
	}

	first, err := Generate(sampleProduct(), samplePlans(), opts)
	require.NoError(t, err)
	second, err := Generate(sampleProduct(), samplePlans(), opts)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for path, content := range first {
		assert.Equal(t, content, second[path], "file %s must be byte-identical across runs", path)
	}
}

func TestGenerateNextJSStripeOnly(t *testing.T) {
	files, err := Generate(sampleProduct(), samplePlans(), Options{
		Stack:     models.BackendStackNextJS,
		Providers: []models.ProviderType{models.ProviderStripe},
	})
	require.NoError(t, err)

	expected := []string{
		".env.example",
		"lib/subscription.ts",
		"app/api/stripe/checkout/route.ts",
		"app/api/stripe/webhook/route.ts",
		"components/billing/PricingPage.tsx",
		"components/billing/ManageBillingButton.tsx",
		"components/billing/SubscriptionGate.tsx",
		"app/api/usage/record/route.ts",
		"jobs/usage-report.ts",
		"prisma/usage.prisma",
	}
	for _, path := range expected {
		assert.Contains(t, files, path)
	}

	for path := range files {
		assert.NotContains(t, path, "lemonsqueezy", "disabled provider must produce no files")
	}

	checkout := files["app/api/stripe/checkout/route.ts"]
	assert.Contains(t, checkout, "price_basic")
	assert.Contains(t, checkout, "price_team")
	assert.Contains(t, checkout, "'basic'")
	assert.Contains(t, checkout, "'team'")
}

func TestGenerateNextJSLemonSqueezyOnly(t *testing.T) {
	files, err := Generate(sampleProduct(), samplePlans(), Options{
		Stack:     models.BackendStackNextJS,
		Providers: []models.ProviderType{models.ProviderLemonSqueezy},
	})
	require.NoError(t, err)

	assert.Contains(t, files, "app/api/lemonsqueezy/checkout/route.ts")
	assert.Contains(t, files, "app/api/lemonsqueezy/webhook/route.ts")
	assert.NotContains(t, files, "app/api/stripe/checkout/route.ts")
	assert.NotContains(t, files, "app/api/stripe/webhook/route.ts")

	checkout := files["app/api/lemonsqueezy/checkout/route.ts"]
	assert.Contains(t, checkout, "1001")
	assert.Contains(t, checkout, "1002")
}

func TestGenerateExpress(t *testing.T) {
	files, err := Generate(sampleProduct(), samplePlans(), Options{
		Stack:     models.BackendStackExpress,
		Providers: []models.ProviderType{models.ProviderStripe, models.ProviderLemonSqueezy},
	})
	require.NoError(t, err)

	expected := []string{
		".env.example",
		"lib/subscription.js",
		"routes/stripe/checkout.js",
		"routes/stripe/webhook.js",
		"routes/lemonsqueezy/checkout.js",
		"routes/lemonsqueezy/webhook.js",
	}
	for _, path := range expected {
		assert.Contains(t, files, path)
	}

	// The express flavor carries no React components.
	for path := range files {
		assert.False(t, strings.HasSuffix(path, ".tsx"), "unexpected component file %s", path)
	}
}

func TestGenerateRejectsUnknownStack(t *testing.T) {
	_, err := Generate(sampleProduct(), samplePlans(), Options{
		Stack:     models.BackendStack("django"),
		Providers: []models.ProviderType{models.ProviderStripe},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "django")
}

func TestGeneratePreservesPlanOrder(t *testing.T) {
	files, err := Generate(sampleProduct(), samplePlans(), Options{
		Stack:     models.BackendStackNextJS,
		Providers: []models.ProviderType{models.ProviderStripe},
	})
	require.NoError(t, err)

	page := files["components/billing/PricingPage.tsx"]
	basicAt := strings.Index(page, "Basic")
	teamAt := strings.Index(page, "Team")
	require.NotEqual(t, -1, basicAt)
	require.NotEqual(t, -1, teamAt)
	assert.Less(t, basicAt, teamAt, "plans must render in input order")
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Basic":           "basic",
		"Pro Plan":        "pro-plan",
		"  Team (Annual)": "team-annual",
		"UPPER_case-123":  "upper-case-123",
	}
	for input, want := range cases {
		assert.Equal(t, want, Slugify(input))
	}
}

func TestPriceLabel(t *testing.T) {
	assert.Equal(t, "$29/month", priceLabel(2900, "usd", models.PlanIntervalMonth))
	assert.Equal(t, "$29.50/month", priceLabel(2950, "usd", models.PlanIntervalMonth))
	assert.Equal(t, "€99/year", priceLabel(9900, "eur", models.PlanIntervalYear))
	assert.Equal(t, "£49", priceLabel(4900, "gbp", models.PlanIntervalOnce))
}

func TestWriteArchive(t *testing.T) {
	files, err := Generate(sampleProduct(), samplePlans(), Options{
		Stack:     models.BackendStackNextJS,
		Providers: []models.ProviderType{models.ProviderStripe},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, files))

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, reader.File, len(files))

	var wantPaths []string
	for path := range files {
		wantPaths = append(wantPaths, path)
	}
	sort.Strings(wantPaths)

	for i, f := range reader.File {
		assert.Equal(t, wantPaths[i], f.Name, "archive entries must be sorted by path")

		rc, err := f.Open()
		require.NoError(t, err)
		var content bytes.Buffer
		_, err = content.ReadFrom(rc)
		require.NoError(t, err)
		rc.Close()

		assert.Equal(t, files[f.Name], content.String())
	}
}
