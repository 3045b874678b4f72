package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studymatehq/studymate-be/internal/modules/credits"
	"github.com/studymatehq/studymate-be/internal/shared/utils"
)

var (
	ErrGroupNotFound  = errors.New("groups: group not found")
	ErrAlreadyMember  = errors.New("groups: already a member")
	ErrNotMember      = errors.New("groups: not a member")
	ErrGroupFull      = errors.New("groups: group is full")
	ErrOwnerCantLeave = errors.New("groups: the owner cannot leave their own group")
)

type Service struct {
	repo   *Repository
	ledger *credits.Ledger
}

func NewService(repo *Repository, ledger *credits.Ledger) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// CreateGroup creates a group with the caller as owner. Creating is free;
// only joining someone else's group is billed.
func (s *Service) CreateGroup(ctx context.Context, userID uuid.UUID, req *CreateGroupRequest) (*StudyGroup, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("groups: name is required")
	}
	if req.MaxMembers <= 0 {
		req.MaxMembers = 20
	}
	if req.MaxMembers > 100 {
		req.MaxMembers = 100
	}

	group := &StudyGroup{
		Name:        strings.TrimSpace(req.Name),
		Subject:     req.Subject,
		Description: req.Description,
		OwnerID:     userID,
		MaxMembers:  req.MaxMembers,
	}
	if err := s.repo.CreateGroup(group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	group.MemberCount = 1
	return group, nil
}

// JoinGroup adds the user to a group for 1 credit. Membership and capacity
// are checked before the charge so a rejected join never costs anything.
func (s *Service) JoinGroup(ctx context.Context, userID, groupID uuid.UUID) (*credits.ChargeResult, error) {
	group, err := s.repo.GetGroup(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to load group: %w", err)
	}

	member, err := s.repo.IsMember(groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if member {
		return nil, ErrAlreadyMember
	}
	if group.MemberCount >= int64(group.MaxMembers) {
		return nil, ErrGroupFull
	}

	charge, err := s.ledger.Charge(ctx, userID, credits.FeatureGroupJoin)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddMember(&GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Role:    RoleMember,
	}); err != nil {
		// A concurrent duplicate join lands here via the unique index.
		if refundErr := s.ledger.Refund(ctx, userID, charge.Cost, "group join failed"); refundErr != nil {
			utils.LogError("Failed to refund group join", refundErr, map[string]interface{}{
				"user_id":  userID.String(),
				"group_id": groupID.String(),
			})
		}
		return nil, fmt.Errorf("failed to join group: %w", err)
	}

	return charge, nil
}

// LeaveGroup removes the user from a group. No refund: the credit bought
// the join, not the stay.
func (s *Service) LeaveGroup(ctx context.Context, userID, groupID uuid.UUID) error {
	group, err := s.repo.GetGroup(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("failed to load group: %w", err)
	}
	if group.OwnerID == userID {
		return ErrOwnerCantLeave
	}

	member, err := s.repo.IsMember(groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return ErrNotMember
	}

	return s.repo.RemoveMember(groupID, userID)
}

func (s *Service) GetGroup(groupID uuid.UUID) (*StudyGroup, error) {
	group, err := s.repo.GetGroup(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

func (s *Service) ListGroups() ([]StudyGroup, error) {
	return s.repo.ListGroups(50)
}

func (s *Service) ListMyGroups(userID uuid.UUID) ([]StudyGroup, error) {
	return s.repo.ListGroupsForUser(userID)
}

// PostMessage posts to a group the user belongs to. Messaging is free.
func (s *Service) PostMessage(ctx context.Context, userID, groupID uuid.UUID, body string) (*GroupMessage, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("groups: message body is required")
	}

	member, err := s.repo.IsMember(groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, ErrNotMember
	}

	message := &GroupMessage{
		GroupID: groupID,
		UserID:  userID,
		Body:    body,
	}
	if err := s.repo.CreateMessage(message); err != nil {
		return nil, fmt.Errorf("failed to post message: %w", err)
	}
	return message, nil
}

func (s *Service) ListMessages(userID, groupID uuid.UUID) ([]GroupMessage, error) {
	member, err := s.repo.IsMember(groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, ErrNotMember
	}
	return s.repo.ListMessages(groupID, 100)
}
