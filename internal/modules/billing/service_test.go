package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studymatehq/studymate-be/internal/core/auth"
	"github.com/studymatehq/studymate-be/internal/core/email"
	"github.com/studymatehq/studymate-be/internal/core/payment"
	"github.com/studymatehq/studymate-be/internal/modules/credits"
)

// fakeGateway is an in-memory payment.Gateway for tests.
type fakeGateway struct {
	sigOK    bool
	statuses map[string]string
}

func (g *fakeGateway) Process(p *payment.Purchase) (*payment.ProcessResult, error) {
	return &payment.ProcessResult{
		Success:        true,
		PaymentLink:    "https://pay.test/" + p.Reference,
		GatewayOrderID: "order_" + p.Reference,
		Message:        "ok",
	}, nil
}

func (g *fakeGateway) GetStatus(reference string) (*payment.PaymentStatus, error) {
	status := g.statuses[reference]
	if status == "" {
		status = payment.StatusPending
	}
	var paidAt *time.Time
	if status == payment.StatusPaid {
		now := time.Now()
		paidAt = &now
	}
	return &payment.PaymentStatus{
		Reference:        reference,
		Status:           status,
		PaidAt:           paidAt,
		GatewayPaymentID: "pay_test",
	}, nil
}

func (g *fakeGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return g.sigOK
}

func (g *fakeGateway) Name() string { return "fake" }

// sinkProvider swallows emails.
type sinkProvider struct{ sent int }

func (p *sinkProvider) SendEmail(to, subject, body string) error {
	p.sent++
	return nil
}

func (p *sinkProvider) SendTemplateEmail(to, subject string, templateData map[string]interface{}) error {
	p.sent++
	return nil
}

func (p *sinkProvider) GetProviderName() string { return "sink" }

func newTestService(t *testing.T) (*Service, *fakeGateway, *credits.Ledger, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&auth.User{}, &credits.CreditAccount{}, &Purchase{}))

	gateway := &fakeGateway{sigOK: true, statuses: map[string]string{}}
	ledger := credits.NewLedger(db)
	svc := NewService(NewRepository(db), gateway, ledger, auth.NewRepository(db), email.NewService(&sinkProvider{}))
	return svc, gateway, ledger, db
}

func createUser(t *testing.T, db *gorm.DB, ledger *credits.Ledger, plan string) uuid.UUID {
	t.Helper()
	user := &auth.User{
		Email:            uuid.NewString() + "@test.edu",
		Name:             "Test Student",
		SubscriptionPlan: plan,
		GoogleID:         uuid.NewString(),
	}
	require.NoError(t, db.Create(user).Error)
	_, err := ledger.EnsureInitialized(context.Background(), user.ID)
	require.NoError(t, err)
	return user.ID
}

func paidWebhookBody(reference string) []byte {
	return []byte(fmt.Sprintf(`{
		"event": "payment_link.paid",
		"payload": {
			"payment_link": {"entity": {"reference_id": %q, "status": "paid"}},
			"payment": {"entity": {"id": "pay_abc123", "method": "upi"}}
		}
	}`, reference))
}

func TestSubscribeCreatesPendingPurchase(t *testing.T) {
	svc, _, ledger, db := newTestService(t)
	userID := createUser(t, db, ledger, credits.PlanFree)

	checkout, err := svc.Subscribe(context.Background(), userID, credits.PlanPro)
	require.NoError(t, err)
	require.NotEmpty(t, checkout.Reference)
	require.Contains(t, checkout.PaymentLink, checkout.Reference)

	purchase, err := svc.repo.GetByReference(checkout.Reference)
	require.NoError(t, err)
	require.Equal(t, payment.StatusPending, purchase.Status)
	require.Equal(t, credits.PlanPro, purchase.Plan)

	// The plan must not change before payment.
	var user auth.User
	require.NoError(t, db.First(&user, "id = ?", userID).Error)
	require.Equal(t, credits.PlanFree, user.SubscriptionPlan)
}

func TestSubscribeUnknownPlanRejected(t *testing.T) {
	svc, _, ledger, db := newTestService(t)
	userID := createUser(t, db, ledger, credits.PlanFree)

	_, err := svc.Subscribe(context.Background(), userID, "platinum")
	require.ErrorIs(t, err, ErrUnknownPlan)
}

func TestWebhookSettlesSubscription(t *testing.T) {
	svc, _, ledger, db := newTestService(t)
	userID := createUser(t, db, ledger, credits.PlanFree)

	checkout, err := svc.Subscribe(context.Background(), userID, credits.PlanPro)
	require.NoError(t, err)

	err = svc.HandleWebhook(context.Background(), paidWebhookBody(checkout.Reference), "sig")
	require.NoError(t, err)

	var user auth.User
	require.NoError(t, db.First(&user, "id = ?", userID).Error)
	require.Equal(t, credits.PlanPro, user.SubscriptionPlan)

	bal, err := ledger.GetAvailable(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 50, bal.Available, "the pro allotment applies immediately")

	purchase, err := svc.repo.GetByReference(checkout.Reference)
	require.NoError(t, err)
	require.Equal(t, payment.StatusPaid, purchase.Status)
	require.Equal(t, "pay_abc123", purchase.GatewayPaymentID)
	require.NotNil(t, purchase.PaidAt)
}

func TestWebhookReplayIsIdempotent(t *testing.T) {
	svc, _, ledger, db := newTestService(t)
	userID := createUser(t, db, ledger, credits.PlanFree)

	checkout, err := svc.BuyCredits(context.Background(), userID, "pack_100")
	require.NoError(t, err)

	body := paidWebhookBody(checkout.Reference)
	require.NoError(t, svc.HandleWebhook(context.Background(), body, "sig"))
	require.NoError(t, svc.HandleWebhook(context.Background(), body, "sig"))
	require.NoError(t, svc.HandleWebhook(context.Background(), body, "sig"))

	bal, err := ledger.GetAvailable(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 105, bal.Available, "replayed webhooks must grant the pack once")
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc, gateway, ledger, db := newTestService(t)
	userID := createUser(t, db, ledger, credits.PlanFree)

	checkout, err := svc.BuyCredits(context.Background(), userID, "pack_100")
	require.NoError(t, err)

	gateway.sigOK = false
	err = svc.HandleWebhook(context.Background(), paidWebhookBody(checkout.Reference), "bad")
	require.ErrorIs(t, err, ErrBadSignature)

	bal, err := ledger.GetAvailable(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 5, bal.Available)
}

func TestConfirmPurchaseSettlesWhenGatewayReportsPaid(t *testing.T) {
	svc, gateway, ledger, db := newTestService(t)
	userID := createUser(t, db, ledger, credits.PlanFree)

	checkout, err := svc.BuyCredits(context.Background(), userID, "pack_500")
	require.NoError(t, err)

	// Still pending at the gateway.
	purchase, err := svc.ConfirmPurchase(context.Background(), userID, checkout.Reference)
	require.NoError(t, err)
	require.Equal(t, payment.StatusPending, purchase.Status)

	gateway.statuses[checkout.Reference] = payment.StatusPaid
	purchase, err = svc.ConfirmPurchase(context.Background(), userID, checkout.Reference)
	require.NoError(t, err)
	require.Equal(t, payment.StatusPaid, purchase.Status)

	bal, err := ledger.GetAvailable(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 505, bal.Available)
}

func TestConfirmPurchaseHidesOtherUsersPurchases(t *testing.T) {
	svc, _, ledger, db := newTestService(t)
	buyer := createUser(t, db, ledger, credits.PlanFree)
	other := createUser(t, db, ledger, credits.PlanFree)

	checkout, err := svc.BuyCredits(context.Background(), buyer, "pack_100")
	require.NoError(t, err)

	_, err = svc.ConfirmPurchase(context.Background(), other, checkout.Reference)
	require.ErrorIs(t, err, ErrPurchaseNotFound)
}

func TestWebhookExpiredMarksPurchase(t *testing.T) {
	svc, _, ledger, db := newTestService(t)
	userID := createUser(t, db, ledger, credits.PlanFree)

	checkout, err := svc.BuyCredits(context.Background(), userID, "pack_100")
	require.NoError(t, err)

	body := []byte(fmt.Sprintf(`{
		"event": "payment_link.expired",
		"payload": {"payment_link": {"entity": {"reference_id": %q, "status": "expired"}}}
	}`, checkout.Reference))
	require.NoError(t, svc.HandleWebhook(context.Background(), body, "sig"))

	purchase, err := svc.repo.GetByReference(checkout.Reference)
	require.NoError(t, err)
	require.Equal(t, payment.StatusExpired, purchase.Status)
}
