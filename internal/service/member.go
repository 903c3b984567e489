package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"split-bill/internal/domain"
	"split-bill/internal/models"
)

// AddMember adds a user to a group with the member role. The actor must be
// a member holding the admin role (superusers bypass); the target must not
// already be a member.
func (s *Service) AddMember(actor Actor, groupID, memberUserID uint) error {
	const op = "service.AddMember"

	group, err := s.findGroup(groupID)
	if err != nil {
		return err
	}

	if !actor.Superuser {
		var m models.Membership
		err := s.db.Where("group_id = ? AND user_id = ?", group.ID, actor.UserID).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Forbidden("you are not a member of this group")
		}
		if err != nil {
			return err
		}
		if m.Role != models.RoleAdmin {
			return domain.Forbidden("you do not have permission to add members to this group")
		}
	}

	var user models.User
	if err := s.db.First(&user, memberUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFound("user not found")
		}
		return err
	}

	exists, err := isMember(s.db, memberUserID, group.ID)
	if err != nil {
		return err
	}
	if exists {
		return domain.Conflict("user is already a member of this group")
	}

	membership := models.Membership{
		GroupID: group.ID,
		UserID:  memberUserID,
		Role:    models.RoleMember,
	}
	if err := s.db.Create(&membership).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("member added", "group_id", group.ID, "user_id", memberUserID, "by", actor.UserID)
	return nil
}

// RemoveMember deletes a user's membership from a group. The target
// membership must exist; the actor must be a member and pass the admin
// gate (creator holding the admin role), superusers bypass.
func (s *Service) RemoveMember(actor Actor, groupID, memberUserID uint) error {
	const op = "service.RemoveMember"

	group, err := s.findGroup(groupID)
	if err != nil {
		return err
	}

	var target models.Membership
	err = s.db.Where("group_id = ? AND user_id = ?", group.ID, memberUserID).First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound("member with ID %d is not part of this group", memberUserID)
	}
	if err != nil {
		return err
	}

	if err := requireAdmin(s.db, actor, group); err != nil {
		return err
	}

	if err := s.db.Delete(&target).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("member removed", "group_id", group.ID, "user_id", memberUserID, "by", actor.UserID)
	return nil
}
