package payment

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/cv-builder-api/config"
	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

type MockCheckoutProvider struct {
	mock.Mock
}

func (m *MockCheckoutProvider) CreateSession(ctx context.Context, item CheckoutItem, successURL, cancelURL string) (string, error) {
	args := m.Called(ctx, item, successURL, cancelURL)
	return args.String(0), args.Error(1)
}

type MockOrderProvider struct {
	mock.Mock
}

func (m *MockOrderProvider) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (map[string]any, error) {
	args := m.Called(ctx, amount, currency, receipt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func testConfig() config.Config {
	var cfg config.Config
	cfg.Payments.Stripe = config.StripeConfig{
		FrontendURL: "http://localhost:5173/",
		ProductName: "Resume Download",
		Currency:    "usd",
		UnitAmount:  199,
	}
	cfg.Payments.Razorpay = config.RazorpayConfig{Currency: "INR"}
	return cfg
}

func TestCreateCheckoutSession(t *testing.T) {
	checkout := new(MockCheckoutProvider)
	service := NewPaymentService(checkout, new(MockOrderProvider), testConfig(), nil, slog.Default())

	checkout.On("CreateSession", mock.Anything,
		CheckoutItem{Name: "Resume Download", Currency: "usd", UnitAmount: 199},
		"http://localhost:5173/my-resumes?paidResumeId=r1",
		"http://localhost:5173/my-resumes",
	).Return("cs_test_1", nil).Once()

	id, err := service.CreateCheckoutSession(context.Background(), "r1")

	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", id)
	checkout.AssertExpectations(t)
}

func TestCreateCheckoutSessionEscapesResumeID(t *testing.T) {
	service := NewPaymentService(nil, nil, testConfig(), nil, slog.Default())

	success, _ := service.checkoutURLs("a&b")

	assert.Equal(t, "http://localhost:5173/my-resumes?paidResumeId=a%26b", success)
}

func TestCreateCheckoutSessionProviderError(t *testing.T) {
	checkout := new(MockCheckoutProvider)
	service := NewPaymentService(checkout, nil, testConfig(), nil, slog.Default())
	checkout.On("CreateSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("invalid api key")).Once()

	_, err := service.CreateCheckoutSession(context.Background(), "r1")

	assert.EqualError(t, err, "invalid api key")
}

func TestCreateRazorpayOrder(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		orders := new(MockOrderProvider)
		service := NewPaymentService(nil, orders, testConfig(), nil, slog.Default())
		orders.On("CreateOrder", mock.Anything, int64(19900), "INR", mock.MatchedBy(func(receipt string) bool {
			return len(receipt) > 5 && len(receipt) <= 40
		})).Return(map[string]any{"id": "order_1", "amount": float64(19900), "status": "created"}, nil).Once()

		order, err := service.CreateRazorpayOrder(context.Background(), 19900)

		require.NoError(t, err)
		assert.Equal(t, "order_1", order["id"])
		orders.AssertExpectations(t)
	})

	t.Run("MissingAmount", func(t *testing.T) {
		orders := new(MockOrderProvider)
		service := NewPaymentService(nil, orders, testConfig(), nil, slog.Default())

		_, err := service.CreateRazorpayOrder(context.Background(), 0)

		assert.ErrorIs(t, err, types.ErrValidation)
		assert.Contains(t, err.Error(), "Amount is required for payment.")
		orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
