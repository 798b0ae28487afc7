// internal/codegen/templates.go
package codegen

import (
	"fmt"
	"strings"
	"text/template"
)

var templates = mustParseTemplates()

func mustParseTemplates() map[string]*template.Template {
	funcs := template.FuncMap{
		"join": strings.Join,
	}

	result := make(map[string]*template.Template, len(templateSources))
	for name, src := range templateSources {
		t, err := template.New(name).Funcs(funcs).Parse(src)
		if err != nil {
			panic(fmt.Sprintf("parse template %q: %v", name, err))
		}
		result[name] = t
	}
	return result
}

var templateSources = map[string]string{

	"env.example": `# Environment variables for {{.ProductName}} billing integration.
# Copy to .env and fill in real values. Never commit secrets.

APP_URL=http://localhost:3000
{{if .HasStripe}}
# Stripe
STRIPE_SECRET_KEY=sk_test_xxx
STRIPE_PUBLISHABLE_KEY=pk_test_xxx
STRIPE_WEBHOOK_SECRET=whsec_xxx
{{end}}{{if .HasLemonSqueezy}}
# Lemon Squeezy
LEMONSQUEEZY_API_KEY=lsq_xxx
LEMONSQUEEZY_STORE_ID={{if .LemonSqueezyStoreID}}{{.LemonSqueezyStoreID}}{{else}}your_store_id{{end}}
LEMONSQUEEZY_WEBHOOK_SECRET=your_webhook_secret
{{end}}`,

	// ------------------------------------------------------------------
	// Next.js API routes flavor
	// ------------------------------------------------------------------

	"nextjs/subscription.ts": `// Subscription entitlement helpers for {{.ProductName}}.
import { db } from '@/lib/db';

// Statuses that grant access. Anything else (cancelled, expired, past_due,
// unpaid) is treated as not entitled.
const ENTITLED_STATUSES = ['active', 'on_trial'];

export interface SubscriptionRecord {
  status: string;
  planSlug: string;
  currentPeriodEnd: Date | null;
}

export function isEntitled(status: string | null | undefined): boolean {
  if (!status) {
    return false;
  }
  return ENTITLED_STATUSES.includes(status);
}

export async function getSubscription(userId: string): Promise<SubscriptionRecord | null> {
  return db.subscription.findFirst({
    where: { userId },
    orderBy: { createdAt: 'desc' },
  });
}

export async function hasActiveSubscription(userId: string): Promise<boolean> {
  const subscription = await getSubscription(userId);
  return isEntitled(subscription?.status);
}

export async function requireSubscription(userId: string): Promise<SubscriptionRecord> {
  const subscription = await getSubscription(userId);
  if (!isEntitled(subscription?.status)) {
    throw new Error('Subscription required');
  }
  return subscription as SubscriptionRecord;
}
`,

	"nextjs/stripe-checkout.ts": `// Stripe checkout route for {{.ProductName}}.
import { NextRequest, NextResponse } from 'next/server';
import Stripe from 'stripe';

const stripe = new Stripe(process.env.STRIPE_SECRET_KEY ?? '', {
  apiVersion: '2023-10-16',
});

// Maps a submitted plan identifier to its provisioned Stripe price.
const PLAN_PRICE_IDS: Record<string, string> = {
{{- range .Plans}}
  '{{.Slug}}': '{{.StripePriceID}}',
{{- end}}
};

const PLAN_MODES: Record<string, Stripe.Checkout.SessionCreateParams.Mode> = {
{{- range .Plans}}
  '{{.Slug}}': '{{.CheckoutMode}}',
{{- end}}
};

export async function POST(req: NextRequest) {
  const body = await req.json();
  const plan: string = body.plan;

  const priceId = PLAN_PRICE_IDS[plan];
  if (!priceId) {
    return NextResponse.json({ error: 'Unknown plan: ' + plan }, { status: 400 });
  }

  const session = await stripe.checkout.sessions.create({
    mode: PLAN_MODES[plan],
    line_items: [{ price: priceId, quantity: 1 }],
    success_url: process.env.APP_URL + '/billing/success?session_id={CHECKOUT_SESSION_ID}',
    cancel_url: process.env.APP_URL + '/pricing',
    client_reference_id: body.userId,
  });

  return NextResponse.json({ url: session.url });
}
`,

	"nextjs/stripe-webhook.ts": `// Stripe webhook route for {{.ProductName}}.
// Signature verification is delegated to the Stripe library.
import { NextRequest, NextResponse } from 'next/server';
import Stripe from 'stripe';

const stripe = new Stripe(process.env.STRIPE_SECRET_KEY ?? '', {
  apiVersion: '2023-10-16',
});

export async function POST(req: NextRequest) {
  const payload = await req.text();
  const signature = req.headers.get('stripe-signature') ?? '';

  let event: Stripe.Event;
  try {
    event = stripe.webhooks.constructEvent(
      payload,
      signature,
      process.env.STRIPE_WEBHOOK_SECRET ?? ''
    );
  } catch (err) {
    return NextResponse.json({ error: 'Invalid signature' }, { status: 400 });
  }

  switch (event.type) {
    case 'checkout.session.completed': {
      const session = event.data.object as Stripe.Checkout.Session;
      // TODO: create the subscription record for session.client_reference_id
      break;
    }
    case 'customer.subscription.created':
    case 'customer.subscription.updated': {
      const subscription = event.data.object as Stripe.Subscription;
      // TODO: sync subscription.status onto your subscription record
      break;
    }
    case 'customer.subscription.deleted': {
      const subscription = event.data.object as Stripe.Subscription;
      // TODO: mark the subscription record cancelled
      break;
    }
    case 'invoice.payment_failed': {
      // TODO: notify the customer about the failed payment
      break;
    }
  }

  return NextResponse.json({ received: true });
}
`,

	"nextjs/lemonsqueezy-checkout.ts": `// Lemon Squeezy checkout route for {{.ProductName}}.
import { NextRequest, NextResponse } from 'next/server';

// Maps a submitted plan identifier to its provisioned Lemon Squeezy variant.
const PLAN_VARIANT_IDS: Record<string, string> = {
{{- range .Plans}}
  '{{.Slug}}': '{{.LemonSqueezyVariantID}}',
{{- end}}
};

export async function POST(req: NextRequest) {
  const body = await req.json();
  const plan: string = body.plan;

  const variantId = PLAN_VARIANT_IDS[plan];
  if (!variantId) {
    return NextResponse.json({ error: 'Unknown plan: ' + plan }, { status: 400 });
  }

  const response = await fetch('https://api.lemonsqueezy.com/v1/checkouts', {
    method: 'POST',
    headers: {
      Accept: 'application/vnd.api+json',
      'Content-Type': 'application/vnd.api+json',
      Authorization: 'Bearer ' + process.env.LEMONSQUEEZY_API_KEY,
    },
    body: JSON.stringify({
      data: {
        type: 'checkouts',
        attributes: {
          checkout_data: { custom: { user_id: body.userId } },
          product_options: {
            redirect_url: process.env.APP_URL + '/billing/success',
          },
        },
        relationships: {
          store: {
            data: { type: 'stores', id: process.env.LEMONSQUEEZY_STORE_ID },
          },
          variant: {
            data: { type: 'variants', id: variantId },
          },
        },
      },
    }),
  });

  if (!response.ok) {
    return NextResponse.json({ error: 'Checkout creation failed' }, { status: 502 });
  }

  const checkout = await response.json();
  return NextResponse.json({ url: checkout.data.attributes.url });
}
`,

	"nextjs/lemonsqueezy-webhook.ts": `// Lemon Squeezy webhook route for {{.ProductName}}.
// Verifies the X-Signature header: HMAC-SHA256 over the raw body, compared in
// constant time.
import { NextRequest, NextResponse } from 'next/server';
import crypto from 'crypto';

export async function POST(req: NextRequest) {
  const payload = await req.text();
  const signature = req.headers.get('x-signature') ?? '';

  const digest = crypto
    .createHmac('sha256', process.env.LEMONSQUEEZY_WEBHOOK_SECRET ?? '')
    .update(payload)
    .digest('hex');

  const signatureBuffer = Buffer.from(signature, 'hex');
  const digestBuffer = Buffer.from(digest, 'hex');
  const valid =
    signatureBuffer.length === digestBuffer.length &&
    crypto.timingSafeEqual(digestBuffer, signatureBuffer);

  if (!valid) {
    return NextResponse.json({ error: 'Invalid signature' }, { status: 400 });
  }

  const event = JSON.parse(payload);
  const eventName: string = event.meta.event_name;

  switch (eventName) {
    case 'subscription_created':
    case 'subscription_updated':
      // TODO: sync event.data.attributes.status onto your subscription record
      break;
    case 'subscription_cancelled':
    case 'subscription_expired':
      // TODO: revoke access for event.meta.custom_data.user_id
      break;
    case 'subscription_payment_failed':
      // TODO: notify the customer about the failed payment
      break;
  }

  return NextResponse.json({ received: true });
}
`,

	"nextjs/pricing-page.tsx": `// Pricing table for {{.ProductName}}.
'use client';

import { useState } from 'react';

interface Plan {
  slug: string;
  name: string;
  priceLabel: string;
  trialDays: number;
  features: string[];
}

const PLANS: Plan[] = [
{{- range .Plans}}
  {
    slug: '{{.Slug}}',
    name: '{{.Name}}',
    priceLabel: '{{.PriceLabel}}',
    trialDays: {{.TrialDays}},
    features: [{{range $i, $f := .Features}}{{if $i}}, {{end}}'{{$f}}'{{end}}],
  },
{{- end}}
];

{{if .HasStripe}}const DEFAULT_CHECKOUT = '/api/stripe/checkout';{{else}}const DEFAULT_CHECKOUT = '/api/lemonsqueezy/checkout';{{end}}

export default function PricingPage() {
  const [loading, setLoading] = useState<string | null>(null);

  async function startCheckout(plan: string) {
    setLoading(plan);
    try {
      const res = await fetch(DEFAULT_CHECKOUT, {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify({ plan }),
      });
      const data = await res.json();
      if (data.url) {
        window.location.href = data.url;
      }
    } finally {
      setLoading(null);
    }
  }

  return (
    <div className="pricing-page">
      <h1>{{.ProductName}}</h1>
      <p>{{.ProductDescription}}</p>
      <div className="pricing-grid">
        {PLANS.map((plan) => (
          <div key={plan.slug} className="pricing-card">
            <h2>{plan.name}</h2>
            <p className="price">{plan.priceLabel}</p>
            {plan.trialDays > 0 && <p className="trial">{plan.trialDays}-day free trial</p>}
            <ul>
              {plan.features.map((feature) => (
                <li key={feature}>{feature}</li>
              ))}
            </ul>
            <button
              disabled={loading === plan.slug}
              onClick={() => startCheckout(plan.slug)}
            >
              {loading === plan.slug ? 'Redirecting...' : 'Get started'}
            </button>
          </div>
        ))}
      </div>
    </div>
  );
}
`,

	"nextjs/manage-billing-button.tsx": `// Billing portal entry point for {{.ProductName}}.
'use client';

export default function ManageBillingButton() {
  async function openPortal() {
    // TODO: point this at a portal-session route once one exists
    const res = await fetch('/api/billing/portal', { method: 'POST' });
    const data = await res.json();
    if (data.url) {
      window.location.href = data.url;
    }
  }

  return <button onClick={() => openPortal()}>Manage billing</button>;
}
`,

	"nextjs/subscription-gate.tsx": `// Server component wrapper gating children behind an entitled subscription.
import { ReactNode } from 'react';
import { hasActiveSubscription } from '@/lib/subscription';

interface SubscriptionGateProps {
  userId: string;
  children: ReactNode;
  fallback?: ReactNode;
}

export default async function SubscriptionGate({
  userId,
  children,
  fallback,
}: SubscriptionGateProps) {
  const entitled = await hasActiveSubscription(userId);
  if (!entitled) {
    return <>{fallback ?? <a href="/pricing">Upgrade to unlock this feature</a>}</>;
  }
  return <>{children}</>;
}
`,

	"nextjs/usage-record.ts": `// Usage metering: records one usage event per call.
import { NextRequest, NextResponse } from 'next/server';
import { db } from '@/lib/db';

export async function POST(req: NextRequest) {
  const body = await req.json();
  const feature: string = body.feature;
  const quantity: number = body.quantity ?? 1;

  if (!feature) {
    return NextResponse.json({ error: 'feature is required' }, { status: 400 });
  }
  if (!Number.isFinite(quantity) || quantity <= 0) {
    return NextResponse.json({ error: 'quantity must be positive' }, { status: 400 });
  }

  const event = await db.usageEvent.create({
    data: {
      userId: body.userId,
      feature,
      quantity,
    },
  });

  return NextResponse.json({ id: event.id }, { status: 201 });
}
`,

	"nextjs/usage-report.ts": `// Periodic usage aggregation job for {{.ProductName}}.
// Run on a schedule (cron, Vercel cron, or a worker) to roll up usage events
// and report them to the billing provider.
import { db } from '@/lib/db';

export async function reportUsage() {
  const since = new Date(Date.now() - 24 * 60 * 60 * 1000);

  const totals = await db.usageEvent.groupBy({
    by: ['userId', 'feature'],
    where: { createdAt: { gte: since }, reportedAt: null },
    _sum: { quantity: true },
  });

  for (const row of totals) {
    // TODO: push row._sum.quantity to the provider's usage records API
    await db.usageEvent.updateMany({
      where: { userId: row.userId, feature: row.feature, reportedAt: null },
      data: { reportedAt: new Date() },
    });
  }

  return totals.length;
}
`,

	"nextjs/usage.prisma": `// Usage metering schema fragment. Merge into schema.prisma.

model UsageEvent {
  id         String    @id @default(cuid())
  userId     String
  feature    String
  quantity   Int       @default(1)
  createdAt  DateTime  @default(now())
  reportedAt DateTime?

  @@index([userId, feature])
  @@index([reportedAt])
}
`,

	// ------------------------------------------------------------------
	// Express flavor
	// ------------------------------------------------------------------

	"express/subscription.js": `// Subscription entitlement helpers for {{.ProductName}}.
const { db } = require('../lib/db');

const ENTITLED_STATUSES = ['active', 'on_trial'];

function isEntitled(status) {
  if (!status) {
    return false;
  }
  return ENTITLED_STATUSES.includes(status);
}

async function getSubscription(userId) {
  return db.subscriptions.findLatestByUserId(userId);
}

async function hasActiveSubscription(userId) {
  const subscription = await getSubscription(userId);
  return isEntitled(subscription && subscription.status);
}

// Express middleware rejecting requests without an entitled subscription.
function requireSubscription(req, res, next) {
  hasActiveSubscription(req.user.id).then((entitled) => {
    if (!entitled) {
      return res.status(402).json({ error: 'Subscription required' });
    }
    next();
  }, next);
}

module.exports = { isEntitled, getSubscription, hasActiveSubscription, requireSubscription };
`,

	"express/stripe-checkout.js": `// Stripe checkout route for {{.ProductName}}.
const express = require('express');
const Stripe = require('stripe');

const router = express.Router();
const stripe = new Stripe(process.env.STRIPE_SECRET_KEY || '');

const PLAN_PRICE_IDS = {
{{- range .Plans}}
  '{{.Slug}}': '{{.StripePriceID}}',
{{- end}}
};

const PLAN_MODES = {
{{- range .Plans}}
  '{{.Slug}}': '{{.CheckoutMode}}',
{{- end}}
};

router.post('/', async (req, res) => {
  const plan = req.body.plan;
  const priceId = PLAN_PRICE_IDS[plan];
  if (!priceId) {
    return res.status(400).json({ error: 'Unknown plan: ' + plan });
  }

  const session = await stripe.checkout.sessions.create({
    mode: PLAN_MODES[plan],
    line_items: [{ price: priceId, quantity: 1 }],
    success_url: process.env.APP_URL + '/billing/success?session_id={CHECKOUT_SESSION_ID}',
    cancel_url: process.env.APP_URL + '/pricing',
    client_reference_id: req.body.userId,
  });

  res.json({ url: session.url });
});

module.exports = router;
`,

	"express/stripe-webhook.js": `// Stripe webhook route for {{.ProductName}}.
// Mount with express.raw so the library can verify the signature over the
// untouched body: app.use('/webhooks/stripe', express.raw({ type: 'application/json' }), router)
const express = require('express');
const Stripe = require('stripe');

const router = express.Router();
const stripe = new Stripe(process.env.STRIPE_SECRET_KEY || '');

router.post('/', (req, res) => {
  const signature = req.headers['stripe-signature'] || '';

  let event;
  try {
    event = stripe.webhooks.constructEvent(
      req.body,
      signature,
      process.env.STRIPE_WEBHOOK_SECRET || ''
    );
  } catch (err) {
    return res.status(400).json({ error: 'Invalid signature' });
  }

  switch (event.type) {
    case 'checkout.session.completed':
      // TODO: create the subscription record for event.data.object.client_reference_id
      break;
    case 'customer.subscription.created':
    case 'customer.subscription.updated':
      // TODO: sync event.data.object.status onto your subscription record
      break;
    case 'customer.subscription.deleted':
      // TODO: mark the subscription record cancelled
      break;
    case 'invoice.payment_failed':
      // TODO: notify the customer about the failed payment
      break;
  }

  res.json({ received: true });
});

module.exports = router;
`,

	"express/lemonsqueezy-checkout.js": `// Lemon Squeezy checkout route for {{.ProductName}}.
const express = require('express');

const router = express.Router();

const PLAN_VARIANT_IDS = {
{{- range .Plans}}
  '{{.Slug}}': '{{.LemonSqueezyVariantID}}',
{{- end}}
};

router.post('/', async (req, res) => {
  const plan = req.body.plan;
  const variantId = PLAN_VARIANT_IDS[plan];
  if (!variantId) {
    return res.status(400).json({ error: 'Unknown plan: ' + plan });
  }

  const response = await fetch('https://api.lemonsqueezy.com/v1/checkouts', {
    method: 'POST',
    headers: {
      Accept: 'application/vnd.api+json',
      'Content-Type': 'application/vnd.api+json',
      Authorization: 'Bearer ' + process.env.LEMONSQUEEZY_API_KEY,
    },
    body: JSON.stringify({
      data: {
        type: 'checkouts',
        attributes: {
          checkout_data: { custom: { user_id: req.body.userId } },
          product_options: {
            redirect_url: process.env.APP_URL + '/billing/success',
          },
        },
        relationships: {
          store: { data: { type: 'stores', id: process.env.LEMONSQUEEZY_STORE_ID } },
          variant: { data: { type: 'variants', id: variantId } },
        },
      },
    }),
  });

  if (!response.ok) {
    return res.status(502).json({ error: 'Checkout creation failed' });
  }

  const checkout = await response.json();
  res.json({ url: checkout.data.attributes.url });
});

module.exports = router;
`,

	"express/lemonsqueezy-webhook.js": `// Lemon Squeezy webhook route for {{.ProductName}}.
// Mount with express.raw so the HMAC runs over the untouched body:
// app.use('/webhooks/lemonsqueezy', express.raw({ type: 'application/json' }), router)
const crypto = require('crypto');
const express = require('express');

const router = express.Router();

router.post('/', (req, res) => {
  const signature = req.headers['x-signature'] || '';

  const digest = crypto
    .createHmac('sha256', process.env.LEMONSQUEEZY_WEBHOOK_SECRET || '')
    .update(req.body)
    .digest('hex');

  const signatureBuffer = Buffer.from(signature, 'hex');
  const digestBuffer = Buffer.from(digest, 'hex');
  const valid =
    signatureBuffer.length === digestBuffer.length &&
    crypto.timingSafeEqual(digestBuffer, signatureBuffer);

  if (!valid) {
    return res.status(400).json({ error: 'Invalid signature' });
  }

  const event = JSON.parse(req.body.toString());

  switch (event.meta.event_name) {
    case 'subscription_created':
    case 'subscription_updated':
      // TODO: sync event.data.attributes.status onto your subscription record
      break;
    case 'subscription_cancelled':
    case 'subscription_expired':
      // TODO: revoke access for event.meta.custom_data.user_id
      break;
    case 'subscription_payment_failed':
      // TODO: notify the customer about the failed payment
      break;
  }

  res.json({ received: true });
});

module.exports = router;
`,
}
