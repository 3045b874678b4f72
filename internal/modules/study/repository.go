package study

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateNote(note *StudyNote) error {
	return r.db.Create(note).Error
}

func (r *Repository) ListNotes(userID uuid.UUID, limit int) ([]StudyNote, error) {
	var notes []StudyNote
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notes).Error
	return notes, err
}

func (r *Repository) GetNote(userID, noteID uuid.UUID) (*StudyNote, error) {
	var note StudyNote
	err := r.db.Where("id = ? AND user_id = ?", noteID, userID).First(&note).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *Repository) CreateQuiz(quiz *Quiz) error {
	return r.db.Create(quiz).Error
}

func (r *Repository) ListQuizzes(userID uuid.UUID, limit int) ([]Quiz, error) {
	var quizzes []Quiz
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&quizzes).Error
	return quizzes, err
}

func (r *Repository) GetQuiz(userID, quizID uuid.UUID) (*Quiz, error) {
	var quiz Quiz
	err := r.db.Where("id = ? AND user_id = ?", quizID, userID).First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *Repository) CreateSession(session *FocusSession) error {
	return r.db.Create(session).Error
}

func (r *Repository) RecentSessions(userID uuid.UUID, limit int) ([]FocusSession, error) {
	var sessions []FocusSession
	err := r.db.Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}
