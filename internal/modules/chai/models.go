package chai

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supporter is one "buy us a chai" tip. Name and message are what the
// supporter chose to show on the public feed.
type Supporter struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Reference string    `gorm:"type:text;unique;not null" json:"-"`

	Name    string  `gorm:"type:text;not null" json:"name"`
	Message string  `gorm:"type:text" json:"message,omitempty"`
	Cups    int     `gorm:"not null" json:"cups"`
	Amount  float64 `gorm:"not null" json:"amount_inr"`

	// Visible on the feed only after the payment settles.
	Settled bool `gorm:"not null;default:false" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Supporter) TableName() string {
	return "chai_supporters"
}

func (s *Supporter) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type BuyChaiRequest struct {
	Cups    int    `json:"cups"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// BuyChaiResponse carries the checkout details plus a scannable UPI QR.
type BuyChaiResponse struct {
	Reference    string  `json:"reference"`
	AmountINR    float64 `json:"amount_inr"`
	PaymentLink  string  `json:"payment_link,omitempty"`
	Instructions string  `json:"instructions,omitempty"`
	QRCodePNG    string  `json:"qr_code_png,omitempty"` // base64 PNG of the UPI deeplink
}
