package credits

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studymatehq/studymate-be/internal/shared/utils"
)

// Ledger is the single code path for reading and mutating credit balances.
// It holds no in-process state: every mutation is a conditional update
// against the credit_accounts row, so concurrent requests, including ones
// served by other server processes, serialize at the database.
type Ledger struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLedger creates a ledger on top of the shared GORM handle.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// firstOfMonth truncates t to midnight on the first of its month, in UTC.
func firstOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// EnsureInitialized returns the user's credit account, lazily creating it
// from the plan catalog on first touch. Safe to call on every request; it
// writes at most once per account.
func (l *Ledger) EnsureInitialized(ctx context.Context, userID uuid.UUID) (*CreditAccount, error) {
	acct, err := l.load(ctx, userID)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, unavailable(err)
	}

	plan, err := l.lookupPlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	quota := QuotaFor(plan)
	acct = &CreditAccount{
		UserID:      userID,
		Plan:        plan,
		Allotted:    quota.MonthlyCredits,
		Consumed:    0,
		CycleAnchor: firstOfMonth(l.now()),
	}

	if err := l.db.WithContext(ctx).Create(acct).Error; err != nil {
		// A concurrent request may have initialized the row first; the
		// unique index on user_id makes that loser path safe to re-read.
		if existing, loadErr := l.load(ctx, userID); loadErr == nil {
			return existing, nil
		}
		return nil, unavailable(err)
	}

	return acct, nil
}

// MaybeResetCycle rolls the account into the current calendar month if its
// cycle anchor is stale: allotted returns to the plan's base amount,
// consumed to zero. Unspent credits, plan-allotted and purchased alike,
// are forfeited. The update is guarded on `cycle_anchor < monthStart`, so
// at most one reset happens per month however many requests race over the
// boundary.
func (l *Ledger) MaybeResetCycle(ctx context.Context, userID uuid.UUID) (*CreditAccount, error) {
	acct, err := l.EnsureInitialized(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.resetIfStale(ctx, acct)
}

func (l *Ledger) resetIfStale(ctx context.Context, acct *CreditAccount) (*CreditAccount, error) {
	monthStart := firstOfMonth(l.now())
	if !acct.CycleAnchor.Before(monthStart) {
		return acct, nil
	}

	quota := QuotaFor(acct.Plan)
	res := l.db.WithContext(ctx).Model(&CreditAccount{}).
		Where("user_id = ? AND cycle_anchor < ?", acct.UserID, monthStart).
		Updates(map[string]interface{}{
			"allotted":     quota.MonthlyCredits,
			"consumed":     0,
			"cycle_anchor": monthStart,
		})
	if res.Error != nil {
		return nil, unavailable(res.Error)
	}

	// Re-read whether this request or a concurrent one won the reset.
	fresh, err := l.load(ctx, acct.UserID)
	if err != nil {
		return nil, unavailable(err)
	}
	return fresh, nil
}

// GetAvailable reports the balance for the current cycle, resetting it
// first if the month rolled over.
func (l *Ledger) GetAvailable(ctx context.Context, userID uuid.UUID) (*Balance, error) {
	acct, err := l.MaybeResetCycle(ctx, userID)
	if err != nil {
		return nil, err
	}
	return balanceOf(acct), nil
}

// Charge atomically deducts the feature's cost from the user's balance.
// Unlimited plans succeed immediately without touching the row. The
// deduction is a single conditional UPDATE guarded by
// `consumed + cost <= allotted`: two concurrent charges against a balance
// sufficient for only one of them get exactly one success and one
// InsufficientCreditsError.
func (l *Ledger) Charge(ctx context.Context, userID uuid.UUID, feature string) (*ChargeResult, error) {
	acct, err := l.MaybeResetCycle(ctx, userID)
	if err != nil {
		return nil, err
	}

	if QuotaFor(acct.Plan).Unlimited {
		return &ChargeResult{Cost: 0, Available: UnlimitedAvailable, Unlimited: true}, nil
	}

	cost := CostOf(feature)
	if cost == 0 {
		// Unknown or free feature: no mutation.
		return &ChargeResult{Cost: 0, Available: acct.Available()}, nil
	}

	res := l.db.WithContext(ctx).Model(&CreditAccount{}).
		Where("user_id = ? AND consumed + ? <= allotted", userID, cost).
		UpdateColumn("consumed", gorm.Expr("consumed + ?", cost))
	if res.Error != nil {
		return nil, unavailable(res.Error)
	}

	if res.RowsAffected == 0 {
		fresh, err := l.load(ctx, userID)
		if err != nil {
			return nil, unavailable(err)
		}
		return nil, &InsufficientCreditsError{Available: fresh.Available(), Required: cost}
	}

	fresh, err := l.load(ctx, userID)
	if err != nil {
		return nil, unavailable(err)
	}
	return &ChargeResult{Cost: cost, Available: fresh.Available()}, nil
}

// Refund returns previously charged credits after a billable action failed
// downstream. Consumed is clamped at zero, and unlimited plans are a no-op.
// Pairing refunds with charges is the caller's responsibility.
func (l *Ledger) Refund(ctx context.Context, userID uuid.UUID, amount int, reason string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	acct, err := l.MaybeResetCycle(ctx, userID)
	if err != nil {
		return err
	}
	if QuotaFor(acct.Plan).Unlimited {
		return nil
	}

	res := l.db.WithContext(ctx).Model(&CreditAccount{}).
		Where("user_id = ?", userID).
		UpdateColumn("consumed", gorm.Expr("CASE WHEN consumed > ? THEN consumed - ? ELSE 0 END", amount, amount))
	if res.Error != nil {
		return unavailable(res.Error)
	}

	utils.LogInfo("credits refunded", map[string]interface{}{
		"user_id": userID.String(),
		"amount":  amount,
		"reason":  reason,
	})
	return nil
}

// TopUp grants purchased credits: allotted grows by amount, consumed and
// the cycle anchor are untouched. The stale-cycle check runs first so the
// purchase lands in the current month's pool instead of one about to be
// reset away. The purchase is recorded in the last_topup_* audit columns.
func (l *Ledger) TopUp(ctx context.Context, userID uuid.UUID, amount int, source string, metadata map[string]interface{}) (*Balance, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if _, err := l.MaybeResetCycle(ctx, userID); err != nil {
		return nil, err
	}

	var metaJSON datatypes.JSON
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, unavailable(err)
		}
		metaJSON = raw
	}

	now := l.now()
	res := l.db.WithContext(ctx).Model(&CreditAccount{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"allotted":          gorm.Expr("allotted + ?", amount),
			"last_topup_amount": amount,
			"last_topup_at":     now,
			"last_topup_source": source,
			"last_topup_meta":   metaJSON,
		})
	if res.Error != nil {
		return nil, unavailable(res.Error)
	}

	fresh, err := l.load(ctx, userID)
	if err != nil {
		return nil, unavailable(err)
	}

	utils.LogInfo("credits topped up", map[string]interface{}{
		"user_id": userID.String(),
		"amount":  amount,
		"source":  source,
	})
	return balanceOf(fresh), nil
}

// ChangePlan moves the account onto a new plan, re-allotting the new plan's
// monthly credits and starting a fresh cycle. Called by billing after a
// verified subscription payment.
func (l *Ledger) ChangePlan(ctx context.Context, userID uuid.UUID, plan string) error {
	if _, err := l.EnsureInitialized(ctx, userID); err != nil {
		return err
	}

	quota := QuotaFor(plan)
	res := l.db.WithContext(ctx).Model(&CreditAccount{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"plan":         plan,
			"allotted":     quota.MonthlyCredits,
			"consumed":     0,
			"cycle_anchor": firstOfMonth(l.now()),
		})
	if res.Error != nil {
		return unavailable(res.Error)
	}
	return nil
}

func (l *Ledger) load(ctx context.Context, userID uuid.UUID) (*CreditAccount, error) {
	var acct CreditAccount
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&acct).Error; err != nil {
		return nil, err
	}
	return &acct, nil
}

// lookupPlan reads the plan name off the account store's user record.
func (l *Ledger) lookupPlan(ctx context.Context, userID uuid.UUID) (string, error) {
	row := l.db.WithContext(ctx).Table("users").
		Select("subscription_plan").
		Where("id = ?", userID).
		Row()

	var plan sql.NullString
	if err := row.Scan(&plan); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrAccountNotFound
		}
		return "", unavailable(err)
	}
	if !plan.Valid || plan.String == "" {
		return PlanFree, nil
	}
	return plan.String, nil
}

func balanceOf(acct *CreditAccount) *Balance {
	bal := &Balance{
		Total: acct.Allotted,
		Used:  acct.Consumed,
		Plan:  acct.Plan,
	}
	if QuotaFor(acct.Plan).Unlimited {
		bal.Unlimited = true
		bal.Available = UnlimitedAvailable
		return bal
	}
	bal.Available = acct.Available()
	return bal
}
