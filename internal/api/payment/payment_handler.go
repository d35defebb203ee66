package payment

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/cv-builder-api/internal/api"
	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	DownloadCV(w http.ResponseWriter, r *http.Request)
	RazorpayOrder(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	paymentService PaymentService
	logger         *slog.Logger
}

func NewHandlerImpl(paymentService PaymentService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		paymentService: paymentService,
		logger:         logger,
	}
}

// DownloadCV godoc
// @Summary      Start a Stripe checkout for a resume download
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body types.CheckoutRequest true "Resume to unlock"
// @Success      200 {object} types.CheckoutResponse
// @Failure      500 {object} types.Response "Stripe error"
// @Router       /api/download-cv [post]
func (h *HandlerImpl) DownloadCV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "DownloadCV"))

	var req types.CheckoutRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponseWithDetail(w, r, http.StatusInternalServerError, "Error creating checkout session", err.Error())
		return
	}

	sessionID, err := h.paymentService.CreateCheckoutSession(ctx, req.ResumeID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create checkout session", slog.Any("error", err))
		api.ErrorResponseWithDetail(w, r, http.StatusInternalServerError, "Error creating checkout session", err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.CheckoutResponse{
		Success: true,
		Message: "Checkout session created successfully",
		ID:      sessionID,
	})
}

// RazorpayOrder godoc
// @Summary      Create a Razorpay order
// @Description  Returns the Razorpay order entity with the success envelope keys added.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body types.RazorpayOrderRequest true "Amount in paise"
// @Success      200 {object} map[string]any
// @Failure      400 {object} types.Response "Amount is required for payment."
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      500 {object} types.Response "Razorpay error"
// @Security     BearerAuth
// @Router       /api/cv/payment/razorpay [post]
func (h *HandlerImpl) RazorpayOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "RazorpayOrder"))

	var req types.RazorpayOrderRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Amount is required for payment.")
		return
	}

	order, err := h.paymentService.CreateRazorpayOrder(ctx, req.Amount)
	if err != nil {
		status := api.StatusFromError(err)
		if status != http.StatusInternalServerError {
			api.ErrorResponse(w, r, status, api.ClientMessage(err, "Amount is required for payment."))
			return
		}
		l.ErrorContext(ctx, "Failed to create Razorpay order", slog.Any("error", err))
		api.ErrorResponseWithDetail(w, r, status, "Error processing Razorpay payment", err.Error())
		return
	}

	resp := make(map[string]any, len(order)+2)
	for k, v := range order {
		resp[k] = v
	}
	resp["success"] = true
	resp["message"] = "Razorpay order created successfully"
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}
