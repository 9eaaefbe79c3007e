package dto

// GeneratePaymentRequest is the request body for issuing a payment request.
type GeneratePaymentRequest struct {
	ItemPrice       float64 `json:"item_price" binding:"required,gt=0"`
	RecipientWallet string  `json:"recipient_wallet" binding:"required,sol_address"`
	ItemSlot        string  `json:"item_slot" binding:"required,max=32"`
}

// GeneratePaymentResponse is the response body for a newly issued payment request.
type GeneratePaymentResponse struct {
	PaymentURL string `json:"payment_url"`
	QRCodePath string `json:"qr_code_path"`
	Memo       string `json:"memo"`
}

// VerifyPaymentRequest is the request body for settlement verification.
type VerifyPaymentRequest struct {
	Memo string `json:"memo" binding:"required,max=64"`
}

// StatusResponse reports the outcome or stored status of a payment.
type StatusResponse struct {
	Status string `json:"status"`
}
