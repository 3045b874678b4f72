package credits

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreditAccount tracks a user's credit balance for the current monthly
// cycle. It is mutated only through the Ledger; every other module treats
// it as read-only.
type CreditAccount struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Plan        string    `gorm:"type:text;not null;default:'free'" json:"plan"`
	Allotted    int       `gorm:"not null;default:0" json:"allotted"`
	Consumed    int       `gorm:"not null;default:0" json:"consumed"`
	CycleAnchor time.Time `gorm:"not null" json:"cycle_anchor"`

	// Audit of the most recent top-up. Purchased credits are folded into
	// Allotted and reset with it at month boundary; these columns only keep
	// the trail for support and reconciliation.
	LastTopupAmount int            `gorm:"not null;default:0" json:"last_topup_amount"`
	LastTopupAt     *time.Time     `json:"last_topup_at,omitempty"`
	LastTopupSource string         `gorm:"type:text" json:"last_topup_source,omitempty"`
	LastTopupMeta   datatypes.JSON `json:"last_topup_meta,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (CreditAccount) TableName() string {
	return "credit_accounts"
}

// BeforeCreate sets UUID before creating
func (a *CreditAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Available returns the spendable balance, clamped at zero.
func (a *CreditAccount) Available() int {
	if v := a.Allotted - a.Consumed; v > 0 {
		return v
	}
	return 0
}

// UnlimitedAvailable is the sentinel reported as `available` for unlimited
// plans. It is a display value only and never used for arithmetic.
const UnlimitedAvailable = -1

// Balance is the JSON-serializable view returned by GetAvailable.
type Balance struct {
	Available int    `json:"available"`
	Total     int    `json:"total"`
	Used      int    `json:"used"`
	Plan      string `json:"plan"`
	Unlimited bool   `json:"is_unlimited"`
}

// ChargeResult reports the outcome of a successful charge.
type ChargeResult struct {
	Cost      int  `json:"cost"`
	Available int  `json:"available"`
	Unlimited bool `json:"is_unlimited"`
}
