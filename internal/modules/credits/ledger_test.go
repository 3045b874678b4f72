package credits

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestLedger(t *testing.T) (*Ledger, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database visible to every
	// query issued through the pool.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&CreditAccount{}))
	require.NoError(t, db.Exec(`CREATE TABLE users (id TEXT PRIMARY KEY, subscription_plan TEXT)`).Error)

	return NewLedger(db), db
}

func createUser(t *testing.T, db *gorm.DB, plan string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(`INSERT INTO users (id, subscription_plan) VALUES (?, ?)`, id, plan).Error)
	return id
}

func loadAccount(t *testing.T, db *gorm.DB, userID uuid.UUID) CreditAccount {
	t.Helper()
	var acct CreditAccount
	require.NoError(t, db.Where("user_id = ?", userID).First(&acct).Error)
	return acct
}

func fixedClock(l *Ledger, t time.Time) {
	l.now = func() time.Time { return t }
}

func TestEnsureInitializedLazyCreate(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()

	tests := []struct {
		name         string
		plan         string
		wantAllotted int
	}{
		{name: "free plan gets free allotment", plan: "free", wantAllotted: 5},
		{name: "pro plan gets pro allotment", plan: "pro", wantAllotted: 50},
		{name: "unknown plan falls back to free, not unlimited", plan: "legacy_gold", wantAllotted: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID := createUser(t, db, tt.plan)

			acct, err := ledger.EnsureInitialized(ctx, userID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllotted, acct.Allotted)
			assert.Equal(t, 0, acct.Consumed)

			// Second call observes the existing row and does not reinitialize.
			again, err := ledger.EnsureInitialized(ctx, userID)
			require.NoError(t, err)
			assert.Equal(t, acct.ID, again.ID)

			var count int64
			require.NoError(t, db.Model(&CreditAccount{}).Where("user_id = ?", userID).Count(&count).Error)
			assert.Equal(t, int64(1), count)
		})
	}
}

func TestEnsureInitializedUnknownUser(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.EnsureInitialized(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestChargeSequenceFreePlan(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()
	userID := createUser(t, db, PlanFree)

	// free allotment 5, quiz cost 2: success, success, insufficient
	res, err := ledger.Charge(ctx, userID, FeatureAIQuiz)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Cost)
	assert.Equal(t, 3, res.Available)

	res, err = ledger.Charge(ctx, userID, FeatureAIQuiz)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Available)

	_, err = ledger.Charge(ctx, userID, FeatureAIQuiz)
	ice, ok := AsInsufficient(err)
	require.True(t, ok, "expected InsufficientCreditsError, got %v", err)
	assert.Equal(t, 1, ice.Available)
	assert.Equal(t, 2, ice.Required)

	// failed charge must not mutate the record
	acct := loadAccount(t, db, userID)
	assert.Equal(t, 4, acct.Consumed)
}

func TestChargeThenRefundProPlan(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()
	userID := createUser(t, db, PlanPro)

	_, err := ledger.EnsureInitialized(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&CreditAccount{}).Where("user_id = ?", userID).
		Update("consumed", 48).Error)

	res, err := ledger.Charge(ctx, userID, FeatureAINotes)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cost)
	assert.Equal(t, 1, res.Available)

	require.NoError(t, ledger.Refund(ctx, userID, 1, "generation_failed"))

	// Refund of N undoes exactly N: 48 -> 49 -> 48, available back to 2.
	acct := loadAccount(t, db, userID)
	assert.Equal(t, 48, acct.Consumed)
	assert.Equal(t, 2, acct.Available())
}

func TestUnlimitedPlansNeverDeduct(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()

	for _, plan := range []string{PlanPremium, PlanProMax} {
		t.Run(plan, func(t *testing.T) {
			userID := createUser(t, db, plan)

			for i := 0; i < 10; i++ {
				res, err := ledger.Charge(ctx, userID, FeatureAIQuiz)
				require.NoError(t, err)
				assert.Equal(t, 0, res.Cost)
				assert.True(t, res.Unlimited)
			}

			acct := loadAccount(t, db, userID)
			assert.Equal(t, 0, acct.Consumed)

			bal, err := ledger.GetAvailable(ctx, userID)
			require.NoError(t, err)
			assert.True(t, bal.Unlimited)
			assert.Equal(t, UnlimitedAvailable, bal.Available)
		})
	}
}

func TestMonthlyResetIsIdempotent(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()
	userID := createUser(t, db, PlanFree)

	march := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	fixedClock(ledger, march)

	_, err := ledger.Charge(ctx, userID, FeatureAIQuiz)
	require.NoError(t, err)

	// Cross into April: one reset happens.
	april := time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC)
	fixedClock(ledger, april)

	acct, err := ledger.MaybeResetCycle(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, acct.Allotted)
	assert.Equal(t, 0, acct.Consumed)
	assert.True(t, acct.CycleAnchor.Equal(time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)))

	// Later in the same month: no further change.
	fixedClock(ledger, april.Add(20*24*time.Hour))
	_, err = ledger.Charge(ctx, userID, FeatureAINotes)
	require.NoError(t, err)

	again, err := ledger.MaybeResetCycle(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, again.Allotted)
	assert.Equal(t, 1, again.Consumed)
	assert.True(t, again.CycleAnchor.Equal(acct.CycleAnchor))
}

func TestResetForfeitsPurchasedCredits(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()
	userID := createUser(t, db, PlanFree)

	march := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	fixedClock(ledger, march)

	bal, err := ledger.TopUp(ctx, userID, 30, "purchase", map[string]interface{}{"payment_id": "pay_123"})
	require.NoError(t, err)
	assert.Equal(t, 35, bal.Total)

	_, err = ledger.Charge(ctx, userID, FeatureAIQuiz)
	require.NoError(t, err)

	// The whole pool, base allotment and top-up alike, resets at month boundary.
	fixedClock(ledger, time.Date(2026, time.April, 1, 0, 0, 1, 0, time.UTC))
	acct, err := ledger.MaybeResetCycle(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, acct.Allotted)
	assert.Equal(t, 0, acct.Consumed)

	// The audit trail of the purchase survives the reset.
	row := loadAccount(t, db, userID)
	assert.Equal(t, 30, row.LastTopupAmount)
	assert.Equal(t, "purchase", row.LastTopupSource)
}

func TestTopUpAfterMonthBoundarySurvivesReset(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()
	userID := createUser(t, db, PlanFree)

	march := time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC)
	fixedClock(ledger, march)
	_, err := ledger.Charge(ctx, userID, FeatureAIQuiz)
	require.NoError(t, err)

	// First touch of the account in April is the purchase itself. The
	// stale March cycle must be reset before the credits are added, so
	// the new pool is base 5 plus the 100 bought.
	fixedClock(ledger, time.Date(2026, time.April, 10, 12, 0, 0, 0, time.UTC))
	bal, err := ledger.TopUp(ctx, userID, 100, "purchase", nil)
	require.NoError(t, err)
	assert.Equal(t, 105, bal.Total)
	assert.Equal(t, 105, bal.Available)

	// A later read in the same month sees the purchased credits intact.
	bal, err = ledger.GetAvailable(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 105, bal.Total)
	assert.Equal(t, 105, bal.Available)

	acct := loadAccount(t, db, userID)
	assert.True(t, acct.CycleAnchor.Equal(time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)))
}

func TestRefundClampsAtZero(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()
	userID := createUser(t, db, PlanFree)

	_, err := ledger.Charge(ctx, userID, FeatureAIQuiz)
	require.NoError(t, err)

	require.NoError(t, ledger.Refund(ctx, userID, 10, "over_refund"))

	acct := loadAccount(t, db, userID)
	assert.Equal(t, 0, acct.Consumed)
}

func TestRefundRejectsNonPositiveAmount(t *testing.T) {
	ledger, db := newTestLedger(t)
	userID := createUser(t, db, PlanFree)

	assert.ErrorIs(t, ledger.Refund(context.Background(), userID, 0, "noop"), ErrInvalidAmount)
	assert.ErrorIs(t, ledger.Refund(context.Background(), userID, -3, "noop"), ErrInvalidAmount)
}

func TestTopUpRejectsNonPositiveAmount(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()
	userID := createUser(t, db, PlanFree)

	_, err := ledger.EnsureInitialized(ctx, userID)
	require.NoError(t, err)
	before := loadAccount(t, db, userID)

	for _, amount := range []int{0, -5} {
		_, err := ledger.TopUp(ctx, userID, amount, "purchase", nil)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}

	after := loadAccount(t, db, userID)
	assert.Equal(t, before.Allotted, after.Allotted)
	assert.Equal(t, before.Consumed, after.Consumed)
	assert.Equal(t, before.LastTopupAmount, after.LastTopupAmount)
}

func TestTopUpLeavesConsumedAndAnchorAlone(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()
	userID := createUser(t, db, PlanFree)

	_, err := ledger.Charge(ctx, userID, FeatureAIQuiz)
	require.NoError(t, err)
	before := loadAccount(t, db, userID)

	bal, err := ledger.TopUp(ctx, userID, 100, "purchase", map[string]interface{}{"payment_id": "pay_456"})
	require.NoError(t, err)
	assert.Equal(t, 105, bal.Total)
	assert.Equal(t, 103, bal.Available)

	after := loadAccount(t, db, userID)
	assert.Equal(t, before.Consumed, after.Consumed)
	assert.True(t, before.CycleAnchor.Equal(after.CycleAnchor))
}

func TestUnknownFeatureChargesNothing(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()
	userID := createUser(t, db, PlanFree)

	res, err := ledger.Charge(ctx, userID, "feature_that_does_not_exist")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Cost)
	assert.Equal(t, 5, res.Available)

	acct := loadAccount(t, db, userID)
	assert.Equal(t, 0, acct.Consumed)
}

func TestConcurrentChargesSingleSuccess(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()
	userID := createUser(t, db, PlanFree)

	_, err := ledger.EnsureInitialized(ctx, userID)
	require.NoError(t, err)

	// Balance covers exactly one quiz charge.
	require.NoError(t, db.Model(&CreditAccount{}).Where("user_id = ?", userID).
		Update("allotted", 2).Error)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Charge(ctx, userID, FeatureAIQuiz)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		_, ok := AsInsufficient(err)
		require.True(t, ok, "unexpected error: %v", err)
		rejections++
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejections)

	acct := loadAccount(t, db, userID)
	assert.Equal(t, acct.Allotted, acct.Consumed)
}

func TestGetAvailableClampsNegativeBalance(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()
	userID := createUser(t, db, PlanFree)

	_, err := ledger.EnsureInitialized(ctx, userID)
	require.NoError(t, err)

	// Simulate a record damaged out-of-band (e.g. a catalog shrink).
	require.NoError(t, db.Model(&CreditAccount{}).Where("user_id = ?", userID).
		Updates(map[string]interface{}{"allotted": 3, "consumed": 7}).Error)

	bal, err := ledger.GetAvailable(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Available)
	assert.Equal(t, 7, bal.Used)
}

func TestChangePlanReallots(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()
	userID := createUser(t, db, PlanFree)

	_, err := ledger.Charge(ctx, userID, FeatureAIQuiz)
	require.NoError(t, err)

	require.NoError(t, ledger.ChangePlan(ctx, userID, PlanPro))

	acct := loadAccount(t, db, userID)
	assert.Equal(t, PlanPro, acct.Plan)
	assert.Equal(t, 50, acct.Allotted)
	assert.Equal(t, 0, acct.Consumed)
}

func TestResetPicksUpPlanChange(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()
	userID := createUser(t, db, PlanFree)

	march := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	fixedClock(ledger, march)
	require.NoError(t, ledger.ChangePlan(ctx, userID, PlanPro))

	fixedClock(ledger, time.Date(2026, time.April, 3, 0, 0, 0, 0, time.UTC))
	_, err := ledger.MaybeResetCycle(ctx, userID)
	require.NoError(t, err)

	acct := loadAccount(t, db, userID)
	assert.Equal(t, 50, acct.Allotted)
	assert.Equal(t, 0, acct.Consumed)
}
