package types

// CheckoutRequest is the body of the resume download endpoint.
type CheckoutRequest struct {
	ResumeID string `json:"resumeId"`
}

// CheckoutResponse carries the id of the created Stripe checkout session.
type CheckoutResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message"`
	ID      string `json:"id" example:"cs_test_a1b2c3"`
}

// RazorpayOrderRequest is the body of the Razorpay order endpoint.
// Amount is expressed in the smallest currency unit (paise).
type RazorpayOrderRequest struct {
	Amount int64 `json:"amount" example:"19900"`
}

// RazorpayOrder is the order entity returned by Razorpay.
type RazorpayOrder map[string]any
