package payment

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/cv-builder-api/app/observability/metrics"
	"github.com/FACorreiaa/cv-builder-api/config"
	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

const (
	providerStripe   = "stripe"
	providerRazorpay = "razorpay"
)

var _ PaymentService = (*PaymentServiceImpl)(nil)

// PaymentService starts provider-side payments for resume downloads.
type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, resumeID string) (string, error)
	CreateRazorpayOrder(ctx context.Context, amount int64) (types.RazorpayOrder, error)
}

type PaymentServiceImpl struct {
	logger   *slog.Logger
	checkout CheckoutProvider
	orders   OrderProvider
	stripe   config.StripeConfig
	razorpay config.RazorpayConfig
	metrics  *metrics.AppMetrics
}

func NewPaymentService(checkout CheckoutProvider, orders OrderProvider, cfg config.Config, appMetrics *metrics.AppMetrics, logger *slog.Logger) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		logger:   logger,
		checkout: checkout,
		orders:   orders,
		stripe:   cfg.Payments.Stripe,
		razorpay: cfg.Payments.Razorpay,
		metrics:  appMetrics,
	}
}

func recordSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "created")
}

// checkoutURLs returns the pages Stripe redirects to after payment.
func (s *PaymentServiceImpl) checkoutURLs(resumeID string) (success, cancel string) {
	base := strings.TrimRight(s.stripe.FrontendURL, "/")
	cancel = base + "/my-resumes"
	success = cancel + "?" + url.Values{"paidResumeId": {resumeID}}.Encode()
	return success, cancel
}

// CreateCheckoutSession creates a Stripe checkout session for downloading
// resumeID and returns the session id.
func (s *PaymentServiceImpl) CreateCheckoutSession(ctx context.Context, resumeID string) (sessionID string, err error) {
	ctx, span := otel.Tracer("PaymentService").Start(ctx, "CreateCheckoutSession", trace.WithAttributes(
		attribute.String("resume.id", resumeID),
	))
	defer span.End()
	defer func() {
		s.metrics.RecordPayment(ctx, providerStripe, err)
		recordSpan(span, err)
	}()

	successURL, cancelURL := s.checkoutURLs(strings.TrimSpace(resumeID))
	sessionID, err = s.checkout.CreateSession(ctx, CheckoutItem{
		Name:       s.stripe.ProductName,
		Currency:   s.stripe.Currency,
		UnitAmount: s.stripe.UnitAmount,
	}, successURL, cancelURL)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "Stripe checkout session created",
		slog.String("sessionID", sessionID), slog.String("resumeID", resumeID))
	return sessionID, nil
}

// CreateRazorpayOrder creates a Razorpay order for amount, in the smallest
// unit of the configured currency.
func (s *PaymentServiceImpl) CreateRazorpayOrder(ctx context.Context, amount int64) (order types.RazorpayOrder, err error) {
	ctx, span := otel.Tracer("PaymentService").Start(ctx, "CreateRazorpayOrder", trace.WithAttributes(
		attribute.Int64("payment.amount", amount),
	))
	defer span.End()
	defer func() {
		s.metrics.RecordPayment(ctx, providerRazorpay, err)
		recordSpan(span, err)
	}()

	if amount <= 0 {
		return nil, fmt.Errorf("%w: Amount is required for payment.", types.ErrValidation)
	}

	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	created, err := s.orders.CreateOrder(ctx, amount, s.razorpay.Currency, receipt)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Razorpay order created", slog.Any("orderID", created["id"]), slog.String("receipt", receipt))
	return types.RazorpayOrder(created), nil
}
