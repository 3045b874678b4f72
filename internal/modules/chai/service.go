package chai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/studymatehq/studymate-be/internal/modules/billing"
	"github.com/studymatehq/studymate-be/internal/shared/utils"
)

type Service struct {
	db       *gorm.DB
	billing  *billing.Service
	upiID    string
	cupPrice float64
}

func NewService(db *gorm.DB, billingSvc *billing.Service, upiID string, cupPriceINR float64) *Service {
	if cupPriceINR <= 0 {
		cupPriceINR = 25
	}
	return &Service{db: db, billing: billingSvc, upiID: upiID, cupPrice: cupPriceINR}
}

// BuyChai starts a tip checkout and returns a scannable UPI QR alongside
// the gateway's payment link.
func (s *Service) BuyChai(ctx context.Context, userID uuid.UUID, req *BuyChaiRequest) (*BuyChaiResponse, error) {
	if req.Cups <= 0 {
		req.Cups = 1
	}
	if req.Cups > 50 {
		req.Cups = 50
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Anonymous"
	}

	amount := float64(req.Cups) * s.cupPrice
	description := fmt.Sprintf("%d chai for the StudyMate team", req.Cups)

	checkout, err := s.billing.CheckoutChai(ctx, userID, description, amount)
	if err != nil {
		return nil, err
	}

	supporter := &Supporter{
		UserID:    userID,
		Reference: checkout.Reference,
		Name:      name,
		Message:   strings.TrimSpace(req.Message),
		Cups:      req.Cups,
		Amount:    amount,
	}
	if err := s.db.Create(supporter).Error; err != nil {
		return nil, fmt.Errorf("failed to record supporter: %w", err)
	}

	resp := &BuyChaiResponse{
		Reference:    checkout.Reference,
		AmountINR:    amount,
		PaymentLink:  checkout.PaymentLink,
		Instructions: checkout.Instructions,
	}

	if s.upiID != "" {
		png, err := upiQR(s.upiID, amount, checkout.Reference)
		if err != nil {
			// The payment link still works without the QR.
			utils.LogError("Failed to render UPI QR", err, map[string]interface{}{
				"reference": checkout.Reference,
			})
		} else {
			resp.QRCodePNG = png
		}
	}

	return resp, nil
}

// MarkSettled makes the supporter visible on the feed. Billing calls this
// indirectly through purchase confirmation; the feed also tolerates it
// running more than once.
func (s *Service) MarkSettled(reference string) error {
	return s.db.Model(&Supporter{}).
		Where("reference = ?", reference).
		Update("settled", true).Error
}

// Feed lists settled supporters, newest first.
func (s *Service) Feed() ([]Supporter, error) {
	var supporters []Supporter
	err := s.db.Where("settled = ?", true).
		Order("created_at DESC").
		Limit(50).
		Find(&supporters).Error
	return supporters, err
}

// Confirm polls the purchase and settles the supporter entry when paid.
func (s *Service) Confirm(ctx context.Context, userID uuid.UUID, reference string) (*Supporter, error) {
	purchase, err := s.billing.ConfirmPurchase(ctx, userID, reference)
	if err != nil {
		return nil, err
	}

	if purchase.Status == "paid" {
		if err := s.MarkSettled(reference); err != nil {
			return nil, fmt.Errorf("failed to settle supporter: %w", err)
		}
	}

	var supporter Supporter
	if err := s.db.Where("reference = ?", reference).First(&supporter).Error; err != nil {
		return nil, err
	}
	return &supporter, nil
}

// upiQR renders a upi:// deeplink QR as a base64 PNG.
func upiQR(upiID string, amount float64, reference string) (string, error) {
	params := url.Values{}
	params.Set("pa", upiID)
	params.Set("pn", "StudyMate")
	params.Set("am", fmt.Sprintf("%.2f", amount))
	params.Set("cu", "INR")
	params.Set("tn", reference)
	link := "upi://pay?" + params.Encode()

	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
