package email

import (
	"fmt"
)

// Provider defines the interface for email providers
type Provider interface {
	SendEmail(to, subject, body string) error
	SendTemplateEmail(to, subject string, templateData map[string]interface{}) error
	GetProviderName() string
}

// Service wraps the email provider
type Service struct {
	provider Provider
}

// NewService creates a new email service with the specified provider
func NewService(provider Provider) *Service {
	return &Service{
		provider: provider,
	}
}

// SendEmail sends a plain text or HTML email
func (s *Service) SendEmail(to, subject, body string) error {
	if s.provider == nil {
		return fmt.Errorf("no email provider configured")
	}
	return s.provider.SendEmail(to, subject, body)
}

// SendTemplateEmail sends an email using a template
func (s *Service) SendTemplateEmail(to, subject string, templateData map[string]interface{}) error {
	if s.provider == nil {
		return fmt.Errorf("no email provider configured")
	}
	return s.provider.SendTemplateEmail(to, subject, templateData)
}

// SendWelcome greets a freshly registered student
func (s *Service) SendWelcome(to, name string) error {
	return s.SendTemplateEmail(to, "Welcome to StudyMate 🎓", map[string]interface{}{
		"title":   "Welcome to StudyMate!",
		"message": fmt.Sprintf("Hi %s, your account is ready. You start on the free plan with 5 credits every month: generate notes, build quizzes, and join study groups.", name),
	})
}

// SendPurchaseReceipt confirms a settled payment
func (s *Service) SendPurchaseReceipt(to, name, description string, amountINR float64) error {
	return s.SendTemplateEmail(to, "Your StudyMate receipt", map[string]interface{}{
		"title":   "Payment received",
		"message": fmt.Sprintf("Hi %s, we received ₹%.2f for %s. Thank you!", name, amountINR, description),
	})
}

// SendStudyReminder nudges an opted-in student
func (s *Service) SendStudyReminder(to, name string) error {
	return s.SendTemplateEmail(to, "Time to study 📚", map[string]interface{}{
		"title":   "Daily study reminder",
		"message": fmt.Sprintf("Hi %s, this is your daily nudge. A short focused session today beats a long one tomorrow.", name),
	})
}

// GetProviderName returns the name of the current provider
func (s *Service) GetProviderName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.GetProviderName()
}
