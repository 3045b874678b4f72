package groups

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studymatehq/studymate-be/internal/modules/credits"
)

func newTestService(t *testing.T) (*Service, *credits.Ledger, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&credits.CreditAccount{}, &StudyGroup{}, &GroupMember{}, &GroupMessage{}))
	require.NoError(t, db.Exec(`CREATE TABLE users (id TEXT PRIMARY KEY, subscription_plan TEXT NOT NULL DEFAULT 'free')`).Error)

	ledger := credits.NewLedger(db)
	return NewService(NewRepository(db), ledger), ledger, db
}

func createUser(t *testing.T, db *gorm.DB, ledger *credits.Ledger, plan string) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	require.NoError(t, db.Exec(`INSERT INTO users (id, subscription_plan) VALUES (?, ?)`, userID.String(), plan).Error)
	_, err := ledger.EnsureInitialized(context.Background(), userID)
	require.NoError(t, err)
	return userID
}

func availableCredits(t *testing.T, ledger *credits.Ledger, userID uuid.UUID) int {
	t.Helper()
	bal, err := ledger.GetAvailable(context.Background(), userID)
	require.NoError(t, err)
	return bal.Available
}

func TestCreateGroupIsFreeAndOwnerJoins(t *testing.T) {
	svc, ledger, db := newTestService(t)
	owner := createUser(t, db, ledger, credits.PlanFree)

	group, err := svc.CreateGroup(context.Background(), owner, &CreateGroupRequest{
		Name:    "Thermo study circle",
		Subject: "Physics",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), group.MemberCount)
	require.Equal(t, 5, availableCredits(t, ledger, owner), "creating a group must not cost credits")

	member, err := svc.repo.IsMember(group.ID, owner)
	require.NoError(t, err)
	require.True(t, member)
}

func TestJoinGroupChargesOneCredit(t *testing.T) {
	svc, ledger, db := newTestService(t)
	owner := createUser(t, db, ledger, credits.PlanFree)
	joiner := createUser(t, db, ledger, credits.PlanFree)

	group, err := svc.CreateGroup(context.Background(), owner, &CreateGroupRequest{Name: "Circle"})
	require.NoError(t, err)

	charge, err := svc.JoinGroup(context.Background(), joiner, group.ID)
	require.NoError(t, err)
	require.Equal(t, 1, charge.Cost)
	require.Equal(t, 4, availableCredits(t, ledger, joiner))
}

func TestJoinGroupTwiceRejectedBeforeCharge(t *testing.T) {
	svc, ledger, db := newTestService(t)
	owner := createUser(t, db, ledger, credits.PlanFree)
	joiner := createUser(t, db, ledger, credits.PlanFree)

	group, err := svc.CreateGroup(context.Background(), owner, &CreateGroupRequest{Name: "Circle"})
	require.NoError(t, err)

	_, err = svc.JoinGroup(context.Background(), joiner, group.ID)
	require.NoError(t, err)

	_, err = svc.JoinGroup(context.Background(), joiner, group.ID)
	require.ErrorIs(t, err, ErrAlreadyMember)
	require.Equal(t, 4, availableCredits(t, ledger, joiner), "a rejected rejoin must not charge again")
}

func TestJoinFullGroupRejected(t *testing.T) {
	svc, ledger, db := newTestService(t)
	owner := createUser(t, db, ledger, credits.PlanFree)
	joiner := createUser(t, db, ledger, credits.PlanFree)

	group, err := svc.CreateGroup(context.Background(), owner, &CreateGroupRequest{
		Name:       "Tiny",
		MaxMembers: 1,
	})
	require.NoError(t, err)

	_, err = svc.JoinGroup(context.Background(), joiner, group.ID)
	require.ErrorIs(t, err, ErrGroupFull)
	require.Equal(t, 5, availableCredits(t, ledger, joiner))
}

func TestJoinWithoutCreditsRejected(t *testing.T) {
	svc, ledger, db := newTestService(t)
	owner := createUser(t, db, ledger, credits.PlanFree)
	joiner := createUser(t, db, ledger, credits.PlanFree)

	group, err := svc.CreateGroup(context.Background(), owner, &CreateGroupRequest{Name: "Circle"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := ledger.Charge(context.Background(), joiner, credits.FeatureAINotes)
		require.NoError(t, err)
	}

	_, err = svc.JoinGroup(context.Background(), joiner, group.ID)
	ice, ok := credits.AsInsufficient(err)
	require.True(t, ok)
	require.Equal(t, 0, ice.Available)

	member, err := svc.repo.IsMember(group.ID, joiner)
	require.NoError(t, err)
	require.False(t, member, "a rejected charge must not create a membership")
}

func TestOwnerCannotLeave(t *testing.T) {
	svc, ledger, db := newTestService(t)
	owner := createUser(t, db, ledger, credits.PlanFree)

	group, err := svc.CreateGroup(context.Background(), owner, &CreateGroupRequest{Name: "Circle"})
	require.NoError(t, err)

	err = svc.LeaveGroup(context.Background(), owner, group.ID)
	require.ErrorIs(t, err, ErrOwnerCantLeave)
}

func TestMessagingRequiresMembership(t *testing.T) {
	svc, ledger, db := newTestService(t)
	owner := createUser(t, db, ledger, credits.PlanFree)
	outsider := createUser(t, db, ledger, credits.PlanFree)

	group, err := svc.CreateGroup(context.Background(), owner, &CreateGroupRequest{Name: "Circle"})
	require.NoError(t, err)

	_, err = svc.PostMessage(context.Background(), outsider, group.ID, "hello")
	require.ErrorIs(t, err, ErrNotMember)

	msg, err := svc.PostMessage(context.Background(), owner, group.ID, "welcome all")
	require.NoError(t, err)
	require.Equal(t, "welcome all", msg.Body)

	messages, err := svc.ListMessages(owner, group.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
}
