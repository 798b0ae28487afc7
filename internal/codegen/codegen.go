// internal/codegen/codegen.go
//
// Package codegen turns a provisioned product and its pricing plans into a
// set of integration source files for a target backend stack. Generation is a
// pure function of its inputs: no randomness, no network calls, no clock
// reads, so identical inputs always yield byte-identical file maps.
package codegen

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/launchkit/launchkit-backend/internal/apperrors"
	"github.com/launchkit/launchkit-backend/internal/models"
)

// Options selects what Generate emits.
type Options struct {
	Stack      models.BackendStack
	Providers  []models.ProviderType
	WebhookURL string
}

type templatePlan struct {
	Slug                  string
	Name                  string
	Amount                int64
	PriceLabel            string
	Currency              string
	Interval              string
	CheckoutMode          string // stripe checkout session mode
	TrialDays             int
	Features              []string
	StripePriceID         string
	LemonSqueezyVariantID string
}

type templateData struct {
	ProductName         string
	ProductDescription  string
	Plans               []templatePlan
	HasStripe           bool
	HasLemonSqueezy     bool
	LemonSqueezyStoreID string
	WebhookURL          string
}

// Generate renders the file map for a provisioned product. Plans are rendered
// in their given order. An unrecognized stack is rejected instead of silently
// emitting a degraded file set.
func Generate(product *models.Product, plans []models.PricingPlan, opts Options) (map[string]string, error) {
	switch opts.Stack {
	case models.BackendStackNextJS, models.BackendStackExpress:
	default:
		return nil, apperrors.Validation(fmt.Sprintf("unsupported backend stack %q", opts.Stack))
	}

	data := buildTemplateData(product, plans, opts)
	files := make(map[string]string)

	render := func(path, tmplName string) error {
		if _, exists := files[path]; exists {
			return apperrors.Internal(fmt.Errorf("duplicate generated file %s", path))
		}
		t, ok := templates[tmplName]
		if !ok {
			return apperrors.Internal(fmt.Errorf("template %q not found", tmplName))
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return apperrors.Internal(fmt.Errorf("render %s: %w", path, err))
		}
		files[path] = buf.String()
		return nil
	}

	// Common to every stack: env template and the subscription gate helper.
	if err := render(".env.example", "env.example"); err != nil {
		return nil, err
	}

	switch opts.Stack {
	case models.BackendStackNextJS:
		if err := renderNextJS(render, data); err != nil {
			return nil, err
		}
	case models.BackendStackExpress:
		if err := renderExpress(render, data); err != nil {
			return nil, err
		}
	}

	return files, nil
}

func renderNextJS(render func(path, tmplName string) error, data templateData) error {
	if err := render("lib/subscription.ts", "nextjs/subscription.ts"); err != nil {
		return err
	}
	if data.HasStripe {
		if err := render("app/api/stripe/checkout/route.ts", "nextjs/stripe-checkout.ts"); err != nil {
			return err
		}
		if err := render("app/api/stripe/webhook/route.ts", "nextjs/stripe-webhook.ts"); err != nil {
			return err
		}
	}
	if data.HasLemonSqueezy {
		if err := render("app/api/lemonsqueezy/checkout/route.ts", "nextjs/lemonsqueezy-checkout.ts"); err != nil {
			return err
		}
		if err := render("app/api/lemonsqueezy/webhook/route.ts", "nextjs/lemonsqueezy-webhook.ts"); err != nil {
			return err
		}
	}

	// UI components and usage metering scaffolding ship with the Next.js
	// flavor only.
	uiFiles := []struct{ path, tmpl string }{
		{"components/billing/PricingPage.tsx", "nextjs/pricing-page.tsx"},
		{"components/billing/ManageBillingButton.tsx", "nextjs/manage-billing-button.tsx"},
		{"components/billing/SubscriptionGate.tsx", "nextjs/subscription-gate.tsx"},
		{"app/api/usage/record/route.ts", "nextjs/usage-record.ts"},
		{"jobs/usage-report.ts", "nextjs/usage-report.ts"},
		{"prisma/usage.prisma", "nextjs/usage.prisma"},
	}
	for _, f := range uiFiles {
		if err := render(f.path, f.tmpl); err != nil {
			return err
		}
	}
	return nil
}

func renderExpress(render func(path, tmplName string) error, data templateData) error {
	if err := render("lib/subscription.js", "express/subscription.js"); err != nil {
		return err
	}
	if data.HasStripe {
		if err := render("routes/stripe/checkout.js", "express/stripe-checkout.js"); err != nil {
			return err
		}
		if err := render("routes/stripe/webhook.js", "express/stripe-webhook.js"); err != nil {
			return err
		}
	}
	if data.HasLemonSqueezy {
		if err := render("routes/lemonsqueezy/checkout.js", "express/lemonsqueezy-checkout.js"); err != nil {
			return err
		}
		if err := render("routes/lemonsqueezy/webhook.js", "express/lemonsqueezy-webhook.js"); err != nil {
			return err
		}
	}
	return nil
}

func buildTemplateData(product *models.Product, plans []models.PricingPlan, opts Options) templateData {
	data := templateData{
		ProductName:         product.Name,
		ProductDescription:  product.Description,
		LemonSqueezyStoreID: product.LemonSqueezyStoreID,
		WebhookURL:          opts.WebhookURL,
	}

	for _, p := range opts.Providers {
		switch p {
		case models.ProviderStripe:
			data.HasStripe = true
		case models.ProviderLemonSqueezy:
			data.HasLemonSqueezy = true
		}
	}

	for _, plan := range plans {
		mode := "subscription"
		if plan.Interval == models.PlanIntervalOnce {
			mode = "payment"
		}
		data.Plans = append(data.Plans, templatePlan{
			Slug:                  Slugify(plan.Name),
			Name:                  plan.Name,
			Amount:                plan.Amount,
			PriceLabel:            priceLabel(plan.Amount, plan.Currency, plan.Interval),
			Currency:              strings.ToLower(nonEmpty(plan.Currency, "usd")),
			Interval:              string(plan.Interval),
			CheckoutMode:          mode,
			TrialDays:             plan.TrialDays,
			Features:              plan.Features,
			StripePriceID:         plan.StripePriceID,
			LemonSqueezyVariantID: plan.LemonSqueezyVariantID,
		})
	}

	return data
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the stable plan identifier used as the lookup key in
// generated checkout routes.
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

func priceLabel(amount int64, currency string, interval models.PlanInterval) string {
	symbol := "$"
	switch strings.ToLower(currency) {
	case "eur":
		symbol = "€"
	case "gbp":
		symbol = "£"
	}

	label := fmt.Sprintf("%s%d", symbol, amount/100)
	if amount%100 != 0 {
		label = fmt.Sprintf("%s%.2f", symbol, float64(amount)/100)
	}

	switch interval {
	case models.PlanIntervalMonth:
		return label + "/month"
	case models.PlanIntervalYear:
		return label + "/year"
	default:
		return label
	}
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
