package billing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(purchase *Purchase) error {
	return r.db.Create(purchase).Error
}

func (r *Repository) GetByReference(reference string) (*Purchase, error) {
	var purchase Purchase
	err := r.db.Where("reference = ?", reference).First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *Repository) GetByID(userID, purchaseID uuid.UUID) (*Purchase, error) {
	var purchase Purchase
	err := r.db.Where("id = ? AND user_id = ?", purchaseID, userID).First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *Repository) ListForUser(userID uuid.UUID, limit int) ([]Purchase, error) {
	var purchases []Purchase
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&purchases).Error
	return purchases, err
}

// MarkPaid flips a pending purchase to paid. The WHERE on status makes the
// flip atomic: a replayed webhook matches zero rows and fulfillment is
// skipped.
func (r *Repository) MarkPaid(reference, gatewayPaymentID string, paidAt time.Time) (bool, error) {
	res := r.db.Model(&Purchase{}).
		Where("reference = ? AND status = ?", reference, "pending").
		Updates(map[string]interface{}{
			"status":             "paid",
			"gateway_payment_id": gatewayPaymentID,
			"paid_at":            paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) MarkFailed(reference, status string) error {
	return r.db.Model(&Purchase{}).
		Where("reference = ? AND status = ?", reference, "pending").
		Update("status", status).Error
}
