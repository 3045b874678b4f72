package groups

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudyGroup is a shared study room students join to co-work.
type StudyGroup struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name        string    `gorm:"type:text;not null" json:"name"`
	Subject     string    `gorm:"type:text" json:"subject"`
	Description string    `gorm:"type:text" json:"description"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	MaxMembers  int       `gorm:"not null;default:20" json:"max_members"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	MemberCount int64 `gorm:"-" json:"member_count,omitempty"`
}

func (StudyGroup) TableName() string {
	return "study_groups"
}

func (g *StudyGroup) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// GroupMember links a user to a group. Role is "owner" or "member".
type GroupMember struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	GroupID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_user" json:"group_id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_user" json:"user_id"`
	Role    string    `gorm:"type:text;not null;default:'member'" json:"role"`

	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (GroupMember) TableName() string {
	return "group_members"
}

func (m *GroupMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// GroupMessage is one chat message inside a group.
type GroupMessage struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	GroupID uuid.UUID `gorm:"type:uuid;not null;index" json:"group_id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Body    string    `gorm:"type:text;not null" json:"body"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (GroupMessage) TableName() string {
	return "group_messages"
}

func (m *GroupMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Request types

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	MaxMembers  int    `json:"max_members"`
}

type PostMessageRequest struct {
	Body string `json:"body"`
}
