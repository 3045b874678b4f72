package study

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StudyNote is an AI generated study summary for a subject.
type StudyNote struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Subject string    `gorm:"type:text;not null" json:"subject"`
	Content string    `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (StudyNote) TableName() string {
	return "study_notes"
}

func (n *StudyNote) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Quiz is an AI generated multiple-choice quiz. Questions holds the parsed
// question array as JSON.
type Quiz struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Subject      string         `gorm:"type:text;not null" json:"subject"`
	NumQuestions int            `gorm:"not null" json:"num_questions"`
	Questions    datatypes.JSON `json:"questions"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// QuizQuestion is one entry of the generated question array.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
	Explanation string   `json:"explanation"`
}

// FocusSession is a logged study session used as input for the focus
// prediction feature.
type FocusSession struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Subject    string    `gorm:"type:text" json:"subject"`
	Minutes    int       `gorm:"not null" json:"minutes"`
	FocusScore int       `gorm:"not null" json:"focus_score"`
	StartedAt  time.Time `gorm:"not null" json:"started_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (FocusSession) TableName() string {
	return "focus_sessions"
}

func (s *FocusSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Request/response types

type GenerateNotesRequest struct {
	Subject  string `json:"subject"`
	Material string `json:"material"`
}

type GenerateQuizRequest struct {
	Subject      string `json:"subject"`
	Material     string `json:"material"`
	NumQuestions int    `json:"num_questions"`
}

type LogSessionRequest struct {
	Subject    string    `json:"subject"`
	Minutes    int       `json:"minutes"`
	FocusScore int       `json:"focus_score"`
	StartedAt  time.Time `json:"started_at"`
}

// FocusPrediction is the AI assessment of the user's recent study rhythm.
type FocusPrediction struct {
	Summary         string `json:"summary"`
	SessionsUsed    int    `json:"sessions_used"`
	CreditsDeducted int    `json:"credits_deducted"`
}
