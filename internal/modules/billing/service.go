package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studymatehq/studymate-be/internal/core/auth"
	"github.com/studymatehq/studymate-be/internal/core/email"
	"github.com/studymatehq/studymate-be/internal/core/payment"
	"github.com/studymatehq/studymate-be/internal/modules/credits"
	"github.com/studymatehq/studymate-be/internal/shared/utils"
)

var (
	ErrUnknownPlan      = errors.New("billing: unknown plan")
	ErrUnknownPack      = errors.New("billing: unknown credit pack")
	ErrBadSignature     = errors.New("billing: webhook signature verification failed")
	ErrPurchaseNotFound = errors.New("billing: purchase not found")
)

type Service struct {
	repo    *Repository
	gateway payment.Gateway
	ledger  *credits.Ledger
	users   *auth.Repository
	email   *email.Service

	// chaiSettled is invoked when a chai purchase settles, so the supporter
	// feed updates on webhook settlement too. Set by the chai module at
	// wiring time; billing cannot import it directly.
	chaiSettled func(reference string) error
}

func NewService(repo *Repository, gateway payment.Gateway, ledger *credits.Ledger, users *auth.Repository, emailSvc *email.Service) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		ledger:  ledger,
		users:   users,
		email:   emailSvc,
	}
}

// SetChaiSettledHook registers the callback run when a chai purchase settles.
func (s *Service) SetChaiSettledHook(fn func(reference string) error) {
	s.chaiSettled = fn
}

// Subscribe starts a checkout for a paid plan.
func (s *Service) Subscribe(ctx context.Context, userID uuid.UUID, plan string) (*CheckoutResponse, error) {
	price, ok := planPrices[plan]
	if !ok {
		return nil, ErrUnknownPlan
	}

	return s.checkout(ctx, userID, &Purchase{
		Kind:        payment.KindSubscription,
		Description: fmt.Sprintf("StudyMate %s plan (monthly)", plan),
		AmountINR:   price,
		Plan:        plan,
	})
}

// BuyCredits starts a checkout for a one-time credit pack.
func (s *Service) BuyCredits(ctx context.Context, userID uuid.UUID, packName string) (*CheckoutResponse, error) {
	pack, ok := creditPacks[packName]
	if !ok {
		return nil, ErrUnknownPack
	}

	return s.checkout(ctx, userID, &Purchase{
		Kind:        payment.KindCreditPack,
		Description: fmt.Sprintf("StudyMate credit pack (%d credits)", pack.Credits),
		AmountINR:   pack.PriceINR,
		CreditCount: pack.Credits,
	})
}

// CheckoutChai starts a checkout for a chai (tip) payment on behalf of the
// chai module.
func (s *Service) CheckoutChai(ctx context.Context, userID uuid.UUID, description string, amountINR float64) (*CheckoutResponse, error) {
	if amountINR <= 0 {
		return nil, fmt.Errorf("billing: amount must be positive")
	}
	return s.checkout(ctx, userID, &Purchase{
		Kind:        payment.KindChai,
		Description: description,
		AmountINR:   amountINR,
	})
}

func (s *Service) checkout(ctx context.Context, userID uuid.UUID, purchase *Purchase) (*CheckoutResponse, error) {
	user, err := s.users.GetUserByID(userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	purchase.ID = uuid.New()
	purchase.UserID = userID
	purchase.Reference = newReference(purchase.Kind)
	purchase.Status = payment.StatusPending
	purchase.Gateway = s.gateway.Name()

	result, err := s.gateway.Process(&payment.Purchase{
		ID:            purchase.ID,
		UserID:        userID,
		Reference:     purchase.Reference,
		Kind:          purchase.Kind,
		Description:   purchase.Description,
		AmountINR:     purchase.AmountINR,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("payment processing failed: %w", err)
	}

	purchase.GatewayOrderID = result.GatewayOrderID
	if err := s.repo.Create(purchase); err != nil {
		return nil, fmt.Errorf("failed to save purchase: %w", err)
	}

	utils.LogInfo("Checkout created", map[string]interface{}{
		"reference": purchase.Reference,
		"kind":      purchase.Kind,
		"amount":    purchase.AmountINR,
		"gateway":   purchase.Gateway,
	})

	return &CheckoutResponse{
		PurchaseID:   purchase.ID,
		Reference:    purchase.Reference,
		AmountINR:    purchase.AmountINR,
		PaymentLink:  result.PaymentLink,
		Instructions: result.Instructions,
		ExpiresAt:    result.ExpiresAt,
		Gateway:      purchase.Gateway,
	}, nil
}

// razorpayWebhook is the part of the payment_link webhook payload we read.
type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		PaymentLink struct {
			Entity struct {
				ReferenceID string `json:"reference_id"`
				Status      string `json:"status"`
			} `json:"entity"`
		} `json:"payment_link"`
		Payment struct {
			Entity struct {
				ID     string `json:"id"`
				Method string `json:"method"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook verifies and applies a gateway webhook. Replays are safe:
// the paid flip happens at most once per purchase.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		return ErrBadSignature
	}

	var event razorpayWebhook
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("billing: malformed webhook payload: %w", err)
	}

	reference := event.Payload.PaymentLink.Entity.ReferenceID
	if reference == "" {
		return fmt.Errorf("billing: webhook carries no reference")
	}

	switch event.Event {
	case "payment_link.paid":
		return s.settle(ctx, reference, event.Payload.Payment.Entity.ID)
	case "payment_link.expired":
		return s.repo.MarkFailed(reference, payment.StatusExpired)
	case "payment_link.cancelled":
		return s.repo.MarkFailed(reference, payment.StatusCancelled)
	default:
		// Unknown events are acknowledged, not retried.
		utils.LogInfo("Ignoring webhook event", map[string]interface{}{
			"event": event.Event,
		})
		return nil
	}
}

// ConfirmPurchase polls the gateway for a purchase's status and settles it
// if paid. This is the path for the manual gateway and for clients polling
// after checkout.
func (s *Service) ConfirmPurchase(ctx context.Context, userID uuid.UUID, reference string) (*Purchase, error) {
	purchase, err := s.repo.GetByReference(reference)
	if err != nil {
		return nil, ErrPurchaseNotFound
	}
	if purchase.UserID != userID {
		return nil, ErrPurchaseNotFound
	}
	if purchase.Status != payment.StatusPending {
		return purchase, nil
	}

	status, err := s.gateway.GetStatus(reference)
	if err != nil {
		return nil, fmt.Errorf("failed to check payment status: %w", err)
	}
	if status.Status == payment.StatusPaid {
		if err := s.settle(ctx, reference, status.GatewayPaymentID); err != nil {
			return nil, err
		}
	}

	return s.repo.GetByReference(reference)
}

// settle flips the purchase to paid and fulfills what it bought.
func (s *Service) settle(ctx context.Context, reference, gatewayPaymentID string) error {
	flipped, err := s.repo.MarkPaid(reference, gatewayPaymentID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark purchase paid: %w", err)
	}
	if !flipped {
		// Already settled (webhook replay) or not pending anymore.
		return nil
	}

	purchase, err := s.repo.GetByReference(reference)
	if err != nil {
		return fmt.Errorf("failed to reload purchase: %w", err)
	}

	if err := s.fulfill(ctx, purchase); err != nil {
		// The money is in but fulfillment failed. Log loudly with the
		// reference so support can reconcile by hand.
		utils.LogError("Fulfillment failed for paid purchase", err, map[string]interface{}{
			"reference": reference,
			"kind":      purchase.Kind,
		})
		return err
	}

	s.sendReceipt(purchase)

	utils.LogInfo("Purchase settled", map[string]interface{}{
		"reference": reference,
		"kind":      purchase.Kind,
		"amount":    purchase.AmountINR,
	})
	return nil
}

func (s *Service) fulfill(ctx context.Context, purchase *Purchase) error {
	switch purchase.Kind {
	case payment.KindSubscription:
		if err := s.users.UpdateSubscriptionPlan(purchase.UserID.String(), purchase.Plan); err != nil {
			return fmt.Errorf("failed to update plan: %w", err)
		}
		return s.ledger.ChangePlan(ctx, purchase.UserID, purchase.Plan)

	case payment.KindCreditPack:
		_, err := s.ledger.TopUp(ctx, purchase.UserID, purchase.CreditCount, "purchase", map[string]interface{}{
			"reference": purchase.Reference,
		})
		return err

	case payment.KindChai:
		// Nothing to grant; chai is a tip. Flip the supporter feed entry.
		if s.chaiSettled != nil {
			return s.chaiSettled(purchase.Reference)
		}
		return nil

	default:
		return fmt.Errorf("billing: unknown purchase kind %q", purchase.Kind)
	}
}

func (s *Service) sendReceipt(purchase *Purchase) {
	user, err := s.users.GetUserByID(purchase.UserID.String())
	if err != nil {
		utils.LogError("Failed to load user for receipt", err, map[string]interface{}{
			"reference": purchase.Reference,
		})
		return
	}
	if err := s.email.SendPurchaseReceipt(user.Email, user.Name, purchase.Description, purchase.AmountINR); err != nil {
		utils.LogError("Failed to send receipt", err, map[string]interface{}{
			"reference": purchase.Reference,
		})
	}
}

func (s *Service) ListPurchases(userID uuid.UUID) ([]Purchase, error) {
	return s.repo.ListForUser(userID, 50)
}

// Plans returns the purchasable plan catalog for the pricing page.
func (s *Service) Plans() map[string]float64 {
	return planPrices
}

// CreditPacks returns the purchasable credit packs.
func (s *Service) CreditPacks() map[string]CreditPack {
	return creditPacks
}

func newReference(kind string) string {
	return fmt.Sprintf("sm_%s_%s", kind, uuid.NewString()[:8])
}
