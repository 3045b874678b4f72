package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string
	Env         string

	// Auth
	JWTSecret      string
	GoogleClientID string

	// AI generation
	OpenAIKey   string
	LLMProvider string
	LLMModel    string

	// Payments
	PaymentMode           string // "razorpay" or "manual"
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string

	// Email
	EmailProvider string // "brevo" or "resend"
	BrevoAPIKey   string
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string

	// Chai (supporter payments)
	ChaiUPIID    string
	ChaiPriceINR string

	// Reminders
	ReminderCron string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using system environment variables")
	}

	cfg := &Config{
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		Port:                  os.Getenv("PORT"),
		Env:                   os.Getenv("ENV"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		GoogleClientID:        os.Getenv("GOOGLE_CLIENT_ID"),
		OpenAIKey:             os.Getenv("OPENAI_API_KEY"),
		LLMProvider:           os.Getenv("LLM_PROVIDER"),
		LLMModel:              os.Getenv("LLM_MODEL"),
		PaymentMode:           os.Getenv("PAYMENT_MODE"),
		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		EmailProvider:         os.Getenv("EMAIL_PROVIDER"),
		BrevoAPIKey:           os.Getenv("BREVO_API_KEY"),
		ResendAPIKey:          os.Getenv("RESEND_API_KEY"),
		EmailFrom:             os.Getenv("EMAIL_FROM"),
		EmailFromName:         os.Getenv("EMAIL_FROM_NAME"),
		ChaiUPIID:             os.Getenv("CHAI_UPI_ID"),
		ChaiPriceINR:          os.Getenv("CHAI_PRICE_INR"),
		ReminderCron:          os.Getenv("REMINDER_CRON"),
	}

	// Default values
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.PaymentMode == "" {
		cfg.PaymentMode = "manual"
	}
	if cfg.EmailFromName == "" {
		cfg.EmailFromName = "StudyMate"
	}
	if cfg.ChaiPriceINR == "" {
		cfg.ChaiPriceINR = "25"
	}
	if cfg.ReminderCron == "" {
		// 08:00 server time, daily
		cfg.ReminderCron = "0 8 * * *"
	}

	return cfg
}
