package payment

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/studymatehq/studymate-be/internal/shared/config"
)

// NewGateway creates a payment gateway based on configuration
func NewGateway(cfg *config.Config, db *gorm.DB) (Gateway, error) {
	switch cfg.PaymentMode {
	case "manual":
		log.Println("💳 Using Manual Payment Gateway")
		return NewManualGateway(db, cfg.ChaiUPIID), nil

	case "razorpay":
		if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
			return nil, fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required for razorpay payment mode")
		}
		log.Println("💳 Using Razorpay Payment Gateway")
		return NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret), nil

	default:
		// Default to manual
		log.Printf("⚠️  Unknown payment mode '%s', defaulting to manual", cfg.PaymentMode)
		return NewManualGateway(db, cfg.ChaiUPIID), nil
	}
}
