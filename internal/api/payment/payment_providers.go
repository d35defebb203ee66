package payment

import (
	"context"
	"fmt"
	"net/http"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/FACorreiaa/cv-builder-api/config"
)

// CheckoutItem is the single line item of a checkout session.
type CheckoutItem struct {
	Name       string
	Currency   string
	UnitAmount int64
}

// CheckoutProvider creates hosted checkout sessions.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, item CheckoutItem, successURL, cancelURL string) (sessionID string, err error)
}

// OrderProvider creates payment orders.
type OrderProvider interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (map[string]any, error)
}

var (
	_ CheckoutProvider = (*StripeCheckout)(nil)
	_ OrderProvider    = (*RazorpayOrders)(nil)
)

// StripeCheckout creates Stripe Checkout sessions in payment mode.
type StripeCheckout struct {
	api *client.API
}

// NewStripeCheckout builds a Stripe client whose requests go through httpClient.
func NewStripeCheckout(cfg config.StripeConfig, httpClient *http.Client) *StripeCheckout {
	backends := &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			HTTPClient: httpClient,
		}),
	}
	return &StripeCheckout{api: client.New(cfg.SecretKey, backends)}
}

func (s *StripeCheckout) CreateSession(ctx context.Context, item CheckoutItem, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(item.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(item.Name),
					},
					UnitAmount: stripe.Int64(item.UnitAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.Context = ctx

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe checkout session: %w", err)
	}
	return session.ID, nil
}

// RazorpayOrders creates Razorpay orders. The SDK is not context aware, so
// calls are abandoned (not cancelled) when ctx ends first.
type RazorpayOrders struct {
	client *razorpay.Client
}

func NewRazorpayOrders(cfg config.RazorpayConfig) *RazorpayOrders {
	return &RazorpayOrders{client: razorpay.NewClient(cfg.KeyID, cfg.KeySecret)}
}

func (r *RazorpayOrders) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (map[string]any, error) {
	type result struct {
		order map[string]any
		err   error
	}
	done := make(chan result, 1)
	go func() {
		order, err := r.client.Order.Create(map[string]interface{}{
			"amount":   amount,
			"currency": currency,
			"receipt":  receipt,
		}, nil)
		done <- result{order: order, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("razorpay order: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("razorpay order: %w", res.err)
		}
		return res.order, nil
	}
}
