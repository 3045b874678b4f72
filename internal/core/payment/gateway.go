package payment

import (
	"time"

	"github.com/google/uuid"
)

// Gateway defines the interface for payment processing
// This allows us to swap between manual and automated payment methods
type Gateway interface {
	// Process initiates payment for a purchase
	// For manual: returns bank/UPI transfer instructions
	// For automated: generates a payment link
	Process(p *Purchase) (*ProcessResult, error)

	// GetStatus retrieves current payment status by purchase reference
	GetStatus(reference string) (*PaymentStatus, error)

	// VerifyWebhookSignature checks a webhook payload's signature
	VerifyWebhookSignature(body []byte, signature string) bool

	// Name returns the gateway provider name
	Name() string
}

// Purchase kinds
const (
	KindSubscription = "subscription"
	KindCreditPack   = "credit_pack"
	KindChai         = "chai"
)

// Purchase represents something a user is paying for
type Purchase struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Reference     string    `json:"reference"` // internal receipt reference
	Kind          string    `json:"kind"`      // subscription, credit_pack, chai
	Description   string    `json:"description"`
	AmountINR     float64   `json:"amount_inr"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProcessResult contains the result of payment processing
type ProcessResult struct {
	Success        bool       `json:"success"`
	PaymentLink    string     `json:"payment_link,omitempty"`     // For automated
	GatewayOrderID string     `json:"gateway_order_id,omitempty"` // Gateway-side id
	Message        string     `json:"message"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Instructions   string     `json:"instructions,omitempty"` // For manual
}

// PaymentStatus represents the current status of a payment
type PaymentStatus struct {
	Reference        string     `json:"reference"`
	Status           string     `json:"status"` // pending, paid, failed, cancelled, expired
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	GatewayPaymentID string     `json:"gateway_payment_id,omitempty"`
	Method           string     `json:"method,omitempty"` // upi, card, netbanking, manual
}

// Payment status constants
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// MethodManual marks payments settled outside the gateway
const MethodManual = "manual"
