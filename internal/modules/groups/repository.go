package groups

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

// CreateGroup inserts the group and its owner membership in one transaction.
func (r *Repository) CreateGroup(group *StudyGroup) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return tx.Create(&GroupMember{
			GroupID: group.ID,
			UserID:  group.OwnerID,
			Role:    RoleOwner,
		}).Error
	})
}

func (r *Repository) GetGroup(groupID uuid.UUID) (*StudyGroup, error) {
	var group StudyGroup
	if err := r.db.Where("id = ?", groupID).First(&group).Error; err != nil {
		return nil, err
	}
	count, err := r.MemberCount(groupID)
	if err != nil {
		return nil, err
	}
	group.MemberCount = count
	return &group, nil
}

func (r *Repository) ListGroups(limit int) ([]StudyGroup, error) {
	var groups []StudyGroup
	err := r.db.Order("created_at DESC").Limit(limit).Find(&groups).Error
	return groups, err
}

func (r *Repository) ListGroupsForUser(userID uuid.UUID) ([]StudyGroup, error) {
	var groups []StudyGroup
	err := r.db.
		Joins("JOIN group_members ON group_members.group_id = study_groups.id").
		Where("group_members.user_id = ?", userID).
		Order("study_groups.created_at DESC").
		Find(&groups).Error
	return groups, err
}

func (r *Repository) IsMember(groupID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) MemberCount(groupID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&GroupMember{}).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}

func (r *Repository) AddMember(member *GroupMember) error {
	return r.db.Create(member).Error
}

func (r *Repository) RemoveMember(groupID, userID uuid.UUID) error {
	return r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&GroupMember{}).Error
}

func (r *Repository) CreateMessage(message *GroupMessage) error {
	return r.db.Create(message).Error
}

func (r *Repository) ListMessages(groupID uuid.UUID, limit int) ([]GroupMessage, error) {
	var messages []GroupMessage
	err := r.db.Where("group_id = ?", groupID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
