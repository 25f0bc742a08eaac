package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// metadataFingerprint is the checkout metadata key that ties a Stripe session
// back to a document.
const metadataFingerprint = "fingerprint"

// GatewayConfig describes the product sold per document.
type GatewayConfig struct {
	SecretKey     string
	WebhookSecret string
	ProductName   string
	PriceCents    int64
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// CompletedPayment is the outcome of a verified checkout.session.completed
// event that carries a document fingerprint.
type CompletedPayment struct {
	Fingerprint string
	Email       string
}

// Gateway creates checkout sessions and verifies webhook deliveries.
type Gateway struct {
	cfg GatewayConfig
	api *client.API
}

// NewGateway builds a gateway from config. The secret key authenticates API
// calls; the webhook secret verifies event signatures.
func NewGateway(cfg GatewayConfig) *Gateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &Gateway{cfg: cfg, api: api}
}

// CreateSession opens a Stripe checkout session for one document and returns
// the hosted payment URL. The fingerprint rides along as session metadata so
// the webhook can attribute the payment without trusting the redirect.
func (g *Gateway) CreateSession(ctx context.Context, fingerprint string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(g.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(g.cfg.ProductName),
					},
					UnitAmount: stripe.Int64(g.cfg.PriceCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(appendQueryParam(g.cfg.SuccessURL, metadataFingerprint, fingerprint)),
		CancelURL:  stripe.String(g.cfg.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(metadataFingerprint, fingerprint)

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return sess.URL, nil
}

// ParseWebhook verifies the payload signature and extracts the completed
// payment, if any. A nil CompletedPayment with nil error means the event was
// authentic but not one we act on (different type, or no fingerprint
// metadata). A bad signature is always an error.
//
// Stripe stamps events with the webhook endpoint's configured API version,
// which rarely matches the SDK's pin, so the version check is disabled;
// signature verification is unaffected.
func (g *Gateway) ParseWebhook(payload []byte, signatureHeader string) (*CompletedPayment, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}
	if event.Type != "checkout.session.completed" {
		return nil, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	fp := sess.Metadata[metadataFingerprint]
	if fp == "" {
		return nil, nil
	}
	cp := &CompletedPayment{Fingerprint: fp}
	if sess.CustomerDetails != nil {
		cp.Email = sess.CustomerDetails.Email
	}
	return cp, nil
}

// appendQueryParam adds key=value to a URL, preserving existing query params.
func appendQueryParam(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
