package payment

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// ManualGateway handles payment through manual admin verification.
// Used for early deployments: a student pays by UPI transfer and an admin
// marks the purchase paid from the dashboard.
type ManualGateway struct {
	db    *gorm.DB
	upiID string
}

// NewManualGateway creates a new manual payment gateway
func NewManualGateway(db *gorm.DB, upiID string) *ManualGateway {
	return &ManualGateway{
		db:    db,
		upiID: upiID,
	}
}

// Process returns transfer instructions; the purchase stays pending until
// an admin confirms it.
func (g *ManualGateway) Process(p *Purchase) (*ProcessResult, error) {
	log.Printf("💳 Manual payment requested: %s (₹%.2f)", p.Reference, p.AmountINR)

	return &ProcessResult{
		Success:      true,
		Message:      "Transfer the amount and we will activate your purchase within a few hours.",
		Instructions: g.buildInstructions(p),
	}, nil
}

// GetStatus reads the purchase row the billing module keeps up to date
func (g *ManualGateway) GetStatus(reference string) (*PaymentStatus, error) {
	var purchase struct {
		Status string
		PaidAt *time.Time
	}

	err := g.db.Table("purchases").
		Select("status, paid_at").
		Where("reference = ?", reference).
		First(&purchase).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &PaymentStatus{Reference: reference, Status: StatusPending}, nil
		}
		return nil, err
	}

	return &PaymentStatus{
		Reference: reference,
		Status:    purchase.Status,
		PaidAt:    purchase.PaidAt,
		Method:    MethodManual,
	}, nil
}

// VerifyWebhookSignature always fails: the manual gateway has no webhooks
func (g *ManualGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return false
}

// Name returns the gateway provider name
func (g *ManualGateway) Name() string {
	return "manual"
}

func (g *ManualGateway) buildInstructions(p *Purchase) string {
	return fmt.Sprintf(
		"Pay ₹%.2f to UPI ID %s and put %s in the transfer note. Your purchase activates once the transfer is verified.",
		p.AmountINR, g.upiID, p.Reference,
	)
}
