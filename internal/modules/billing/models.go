package billing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studymatehq/studymate-be/internal/modules/credits"
)

// Purchase is one payment attempt. The webhook flips Status to paid exactly
// once; fulfillment (plan change or credit top-up) rides on that flip.
type Purchase struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Reference string    `gorm:"type:text;unique;not null" json:"reference"`

	Kind        string  `gorm:"type:text;not null" json:"kind"`
	Description string  `gorm:"type:text" json:"description"`
	AmountINR   float64 `gorm:"not null" json:"amount_inr"`

	// What the purchase buys; exactly one of these is set per kind.
	Plan        string `gorm:"type:text" json:"plan,omitempty"`
	CreditCount int    `json:"credit_count,omitempty"`

	Status           string     `gorm:"type:text;not null;default:'pending'" json:"status"`
	Gateway          string     `gorm:"type:text" json:"gateway"`
	GatewayOrderID   string     `gorm:"type:text" json:"gateway_order_id,omitempty"`
	GatewayPaymentID string     `gorm:"type:text" json:"gateway_payment_id,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Purchase) TableName() string {
	return "purchases"
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Monthly plan prices in INR.
var planPrices = map[string]float64{
	credits.PlanPro:     99,
	credits.PlanPremium: 199,
	credits.PlanProMax:  299,
}

// CreditPack is a one-time purchasable bundle of extra credits.
type CreditPack struct {
	Credits  int     `json:"credits"`
	PriceINR float64 `json:"price_inr"`
}

var creditPacks = map[string]CreditPack{
	"pack_100": {Credits: 100, PriceINR: 49},
	"pack_500": {Credits: 500, PriceINR: 199},
}

// Request types

type SubscribeRequest struct {
	Plan string `json:"plan"`
}

type BuyCreditsRequest struct {
	Pack string `json:"pack"`
}

// CheckoutResponse is what the client needs to complete a payment.
type CheckoutResponse struct {
	PurchaseID   uuid.UUID  `json:"purchase_id"`
	Reference    string     `json:"reference"`
	AmountINR    float64    `json:"amount_inr"`
	PaymentLink  string     `json:"payment_link,omitempty"`
	Instructions string     `json:"instructions,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Gateway      string     `json:"gateway"`
}
