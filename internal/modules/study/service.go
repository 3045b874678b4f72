package study

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studymatehq/studymate-be/internal/core/llm"
	"github.com/studymatehq/studymate-be/internal/modules/credits"
	"github.com/studymatehq/studymate-be/internal/shared/utils"
)

var (
	ErrEmptyMaterial = errors.New("study: material is required")
	ErrBadQuizJSON   = errors.New("study: model returned malformed quiz JSON")
	ErrNoSessions    = errors.New("study: no logged sessions to analyze")
)

// Service charges credits, calls the LLM, and persists the result. A charge
// is taken before generation and refunded when generation fails, so failed
// calls never cost the user anything.
type Service struct {
	repo   *Repository
	ledger *credits.Ledger
	llm    *llm.Service
}

func NewService(repo *Repository, ledger *credits.Ledger, llmSvc *llm.Service) *Service {
	return &Service{repo: repo, ledger: ledger, llm: llmSvc}
}

// GenerateNotes produces revision notes from the given material.
func (s *Service) GenerateNotes(ctx context.Context, userID uuid.UUID, req *GenerateNotesRequest) (*StudyNote, *credits.ChargeResult, error) {
	if strings.TrimSpace(req.Material) == "" {
		return nil, nil, ErrEmptyMaterial
	}

	charge, err := s.ledger.Charge(ctx, userID, credits.FeatureAINotes)
	if err != nil {
		return nil, nil, err
	}

	content, err := s.llm.GenerateResponse(ctx, llm.BuildNotesPrompt(req.Subject), req.Material)
	if err != nil {
		s.refund(ctx, userID, charge.Cost, "notes generation failed")
		return nil, nil, fmt.Errorf("failed to generate notes: %w", err)
	}

	note := &StudyNote{
		UserID:  userID,
		Subject: req.Subject,
		Content: content,
	}
	if err := s.repo.CreateNote(note); err != nil {
		s.refund(ctx, userID, charge.Cost, "notes persistence failed")
		return nil, nil, fmt.Errorf("failed to save note: %w", err)
	}

	return note, charge, nil
}

// GenerateQuiz produces a multiple-choice quiz from the given material.
func (s *Service) GenerateQuiz(ctx context.Context, userID uuid.UUID, req *GenerateQuizRequest) (*Quiz, *credits.ChargeResult, error) {
	if strings.TrimSpace(req.Material) == "" {
		return nil, nil, ErrEmptyMaterial
	}
	if req.NumQuestions <= 0 {
		req.NumQuestions = 5
	}
	if req.NumQuestions > 20 {
		req.NumQuestions = 20
	}

	charge, err := s.ledger.Charge(ctx, userID, credits.FeatureAIQuiz)
	if err != nil {
		return nil, nil, err
	}

	raw, err := s.llm.GenerateResponse(ctx, llm.BuildQuizPrompt(req.Subject, req.NumQuestions), req.Material)
	if err != nil {
		s.refund(ctx, userID, charge.Cost, "quiz generation failed")
		return nil, nil, fmt.Errorf("failed to generate quiz: %w", err)
	}

	questions, err := parseQuizJSON(raw)
	if err != nil {
		s.refund(ctx, userID, charge.Cost, "quiz response unparsable")
		return nil, nil, err
	}

	encoded, err := json.Marshal(questions)
	if err != nil {
		s.refund(ctx, userID, charge.Cost, "quiz encoding failed")
		return nil, nil, fmt.Errorf("failed to encode quiz: %w", err)
	}

	quiz := &Quiz{
		UserID:       userID,
		Subject:      req.Subject,
		NumQuestions: len(questions),
		Questions:    datatypes.JSON(encoded),
	}
	if err := s.repo.CreateQuiz(quiz); err != nil {
		s.refund(ctx, userID, charge.Cost, "quiz persistence failed")
		return nil, nil, fmt.Errorf("failed to save quiz: %w", err)
	}

	return quiz, charge, nil
}

// LogSession records a study session. Logging is free; only the prediction
// feature is billed.
func (s *Service) LogSession(ctx context.Context, userID uuid.UUID, req *LogSessionRequest) (*FocusSession, error) {
	if req.Minutes <= 0 {
		return nil, fmt.Errorf("study: minutes must be positive")
	}
	if req.FocusScore < 0 || req.FocusScore > 10 {
		return nil, fmt.Errorf("study: focus_score must be between 0 and 10")
	}

	session := &FocusSession{
		UserID:     userID,
		Subject:    req.Subject,
		Minutes:    req.Minutes,
		FocusScore: req.FocusScore,
		StartedAt:  req.StartedAt,
	}
	if err := s.repo.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// PredictFocus analyzes the user's recent sessions with the LLM.
func (s *Service) PredictFocus(ctx context.Context, userID uuid.UUID) (*FocusPrediction, error) {
	sessions, err := s.repo.RecentSessions(userID, 30)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}

	charge, err := s.ledger.Charge(ctx, userID, credits.FeatureFocusPrediction)
	if err != nil {
		return nil, err
	}

	summary, err := s.llm.GenerateResponse(ctx, llm.BuildFocusPrompt(), formatSessions(sessions))
	if err != nil {
		s.refund(ctx, userID, charge.Cost, "focus prediction failed")
		return nil, fmt.Errorf("failed to predict focus: %w", err)
	}

	return &FocusPrediction{
		Summary:         summary,
		SessionsUsed:    len(sessions),
		CreditsDeducted: charge.Cost,
	}, nil
}

func (s *Service) ListNotes(userID uuid.UUID) ([]StudyNote, error) {
	return s.repo.ListNotes(userID, 50)
}

func (s *Service) GetNote(userID, noteID uuid.UUID) (*StudyNote, error) {
	return s.repo.GetNote(userID, noteID)
}

func (s *Service) ListQuizzes(userID uuid.UUID) ([]Quiz, error) {
	return s.repo.ListQuizzes(userID, 50)
}

func (s *Service) GetQuiz(userID, quizID uuid.UUID) (*Quiz, error) {
	return s.repo.GetQuiz(userID, quizID)
}

// refund returns credits taken for a failed action. A refund failure is
// logged, not surfaced: the caller already has a real error to report.
func (s *Service) refund(ctx context.Context, userID uuid.UUID, cost int, reason string) {
	if cost <= 0 {
		return
	}
	if err := s.ledger.Refund(ctx, userID, cost, reason); err != nil {
		utils.LogError("Failed to refund credits", err, map[string]interface{}{
			"user_id": userID.String(),
			"amount":  cost,
			"reason":  reason,
		})
	}
}

// parseQuizJSON parses the model's quiz response, tolerating stray prose or
// code fences around the JSON array.
func parseQuizJSON(raw string) ([]QuizQuestion, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, ErrBadQuizJSON
	}

	var questions []QuizQuestion
	if err := json.Unmarshal([]byte(raw[start:end+1]), &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadQuizJSON, err)
	}
	if len(questions) == 0 {
		return nil, ErrBadQuizJSON
	}
	for _, q := range questions {
		if q.Question == "" || len(q.Options) != 4 {
			return nil, ErrBadQuizJSON
		}
		if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
			return nil, ErrBadQuizJSON
		}
	}
	return questions, nil
}

func formatSessions(sessions []FocusSession) string {
	var sb strings.Builder
	sb.WriteString("Recent study sessions (newest first):\n")
	for _, s := range sessions {
		sb.WriteString(fmt.Sprintf("- %s: %d min, focus %d/10, subject %q\n",
			s.StartedAt.Format("Mon 15:04"), s.Minutes, s.FocusScore, s.Subject))
	}
	return sb.String()
}
