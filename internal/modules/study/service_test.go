package study

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studymatehq/studymate-be/internal/core/llm"
	"github.com/studymatehq/studymate-be/internal/modules/credits"
)

// fakeProvider is a canned LLM for tests.
type fakeProvider struct {
	response string
	err      error
	calls    int
}

func (f *fakeProvider) GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeProvider) GetProviderName() string { return "fake" }

func newTestService(t *testing.T, provider *fakeProvider) (*Service, *credits.Ledger, *gorm.DB, uuid.UUID) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&credits.CreditAccount{}, &StudyNote{}, &Quiz{}, &FocusSession{}))
	require.NoError(t, db.Exec(`CREATE TABLE users (id TEXT PRIMARY KEY, subscription_plan TEXT NOT NULL DEFAULT 'free')`).Error)

	userID := uuid.New()
	require.NoError(t, db.Exec(`INSERT INTO users (id, subscription_plan) VALUES (?, ?)`, userID.String(), credits.PlanFree).Error)

	ledger := credits.NewLedger(db)
	_, err = ledger.EnsureInitialized(context.Background(), userID)
	require.NoError(t, err)

	svc := NewService(NewRepository(db), ledger, llm.NewServiceWithProvider(provider))
	return svc, ledger, db, userID
}

func availableCredits(t *testing.T, ledger *credits.Ledger, userID uuid.UUID) int {
	t.Helper()
	bal, err := ledger.GetAvailable(context.Background(), userID)
	require.NoError(t, err)
	return bal.Available
}

func TestGenerateNotesChargesOneCredit(t *testing.T) {
	provider := &fakeProvider{response: "## Thermodynamics\n- Heat flows from hot to cold"}
	svc, ledger, _, userID := newTestService(t, provider)

	note, charge, err := svc.GenerateNotes(context.Background(), userID, &GenerateNotesRequest{
		Subject:  "Physics",
		Material: "Chapter 4: the laws of thermodynamics...",
	})
	require.NoError(t, err)
	require.Equal(t, 1, charge.Cost)
	require.Contains(t, note.Content, "Thermodynamics")
	require.Equal(t, 4, availableCredits(t, ledger, userID))
}

func TestGenerateNotesRefundsOnLLMFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream timeout")}
	svc, ledger, db, userID := newTestService(t, provider)

	_, _, err := svc.GenerateNotes(context.Background(), userID, &GenerateNotesRequest{
		Subject:  "Physics",
		Material: "some material",
	})
	require.Error(t, err)
	require.Equal(t, 5, availableCredits(t, ledger, userID), "failed generation must not cost credits")

	var count int64
	require.NoError(t, db.Model(&StudyNote{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestGenerateNotesRequiresMaterial(t *testing.T) {
	provider := &fakeProvider{response: "notes"}
	svc, ledger, _, userID := newTestService(t, provider)

	_, _, err := svc.GenerateNotes(context.Background(), userID, &GenerateNotesRequest{Subject: "Physics"})
	require.ErrorIs(t, err, ErrEmptyMaterial)
	require.Zero(t, provider.calls, "validation must run before the charge and the LLM call")
	require.Equal(t, 5, availableCredits(t, ledger, userID))
}

func TestGenerateQuizParsesFencedJSON(t *testing.T) {
	provider := &fakeProvider{response: "```json\n" + `[
		{"question": "2+2?", "options": ["1", "2", "3", "4"], "answer_index": 3, "explanation": "basic arithmetic"},
		{"question": "3*3?", "options": ["6", "9", "12", "3"], "answer_index": 1, "explanation": "basic arithmetic"}
	]` + "\n```"}
	svc, ledger, _, userID := newTestService(t, provider)

	quiz, charge, err := svc.GenerateQuiz(context.Background(), userID, &GenerateQuizRequest{
		Subject:      "Math",
		Material:     "arithmetic basics",
		NumQuestions: 2,
	})
	require.NoError(t, err)
	require.Equal(t, 2, charge.Cost)
	require.Equal(t, 2, quiz.NumQuestions)
	require.Equal(t, 3, availableCredits(t, ledger, userID))
}

func TestGenerateQuizRefundsOnMalformedJSON(t *testing.T) {
	provider := &fakeProvider{response: "Sorry, I cannot generate a quiz right now."}
	svc, ledger, _, userID := newTestService(t, provider)

	_, _, err := svc.GenerateQuiz(context.Background(), userID, &GenerateQuizRequest{
		Subject:  "Math",
		Material: "arithmetic basics",
	})
	require.ErrorIs(t, err, ErrBadQuizJSON)
	require.Equal(t, 5, availableCredits(t, ledger, userID))
}

func TestGenerateQuizInsufficientCreditsSkipsLLM(t *testing.T) {
	provider := &fakeProvider{response: "[]"}
	svc, ledger, _, userID := newTestService(t, provider)

	// Burn down to 1 available; a quiz costs 2.
	for i := 0; i < 4; i++ {
		_, err := ledger.Charge(context.Background(), userID, credits.FeatureAINotes)
		require.NoError(t, err)
	}

	_, _, err := svc.GenerateQuiz(context.Background(), userID, &GenerateQuizRequest{
		Subject:  "Math",
		Material: "arithmetic basics",
	})
	ice, ok := credits.AsInsufficient(err)
	require.True(t, ok)
	require.Equal(t, 1, ice.Available)
	require.Equal(t, 2, ice.Required)
	require.Zero(t, provider.calls, "a rejected charge must not reach the LLM")
}

func TestPredictFocusRequiresSessions(t *testing.T) {
	provider := &fakeProvider{response: "study in the morning"}
	svc, _, _, userID := newTestService(t, provider)

	_, err := svc.PredictFocus(context.Background(), userID)
	require.ErrorIs(t, err, ErrNoSessions)
	require.Zero(t, provider.calls)
}

func TestPredictFocusChargesAndSummarizes(t *testing.T) {
	provider := &fakeProvider{response: "You focus best in 45 minute morning blocks."}
	svc, ledger, _, userID := newTestService(t, provider)

	for i := 0; i < 3; i++ {
		_, err := svc.LogSession(context.Background(), userID, &LogSessionRequest{
			Subject:    "Physics",
			Minutes:    45,
			FocusScore: 7,
			StartedAt:  time.Date(2025, 6, 1+i, 9, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	prediction, err := svc.PredictFocus(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 3, prediction.SessionsUsed)
	require.Equal(t, 1, prediction.CreditsDeducted)
	require.Contains(t, prediction.Summary, "morning")
	require.Equal(t, 4, availableCredits(t, ledger, userID))
}

func TestLogSessionValidation(t *testing.T) {
	provider := &fakeProvider{}
	svc, _, _, userID := newTestService(t, provider)

	cases := []struct {
		name string
		req  LogSessionRequest
	}{
		{"zero minutes", LogSessionRequest{Minutes: 0, FocusScore: 5}},
		{"negative minutes", LogSessionRequest{Minutes: -10, FocusScore: 5}},
		{"score too high", LogSessionRequest{Minutes: 30, FocusScore: 11}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.LogSession(context.Background(), userID, &tc.req)
			require.Error(t, err)
		})
	}
}

func TestParseQuizJSONRejectsBadShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"prose only", "no json here"},
		{"empty array", "[]"},
		{"three options", `[{"question": "q", "options": ["a", "b", "c"], "answer_index": 0}]`},
		{"answer out of range", `[{"question": "q", "options": ["a", "b", "c", "d"], "answer_index": 4}]`},
		{"missing question", `[{"question": "", "options": ["a", "b", "c", "d"], "answer_index": 0}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseQuizJSON(tc.raw)
			require.ErrorIs(t, err, ErrBadQuizJSON, fmt.Sprintf("raw: %s", tc.raw))
		})
	}
}
