package email

import (
	"log"

	"github.com/studymatehq/studymate-be/internal/shared/config"
)

// NewProviderFromConfig creates the configured email provider. With no
// provider configured the service still constructs; sends just fail with a
// clear error.
func NewProviderFromConfig(cfg *config.Config) Provider {
	switch cfg.EmailProvider {
	case "brevo":
		if cfg.BrevoAPIKey == "" {
			log.Println("⚠️  BREVO_API_KEY missing, email disabled")
			return nil
		}
		log.Println("📧 Using Brevo email provider")
		return NewBrevoProvider(cfg.BrevoAPIKey, cfg.EmailFrom, cfg.EmailFromName)

	case "resend":
		if cfg.ResendAPIKey == "" {
			log.Println("⚠️  RESEND_API_KEY missing, email disabled")
			return nil
		}
		log.Println("📧 Using Resend email provider")
		return NewResendProvider(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailFromName)

	default:
		log.Printf("⚠️  No email provider configured (EMAIL_PROVIDER=%q), email disabled", cfg.EmailProvider)
		return nil
	}
}
