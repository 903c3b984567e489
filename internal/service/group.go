package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"split-bill/internal/domain"
	"split-bill/internal/models"
)

// MemberDetail is a membership joined with its user, as returned in group details.
type MemberDetail struct {
	User     models.User `json:"user"`
	Role     string      `json:"role"`
	JoinedAt time.Time   `json:"joined_at"`
}

// GroupDetail is a group together with its members.
type GroupDetail struct {
	models.Group
	Members []MemberDetail `json:"members"`
}

// groupUpdatableFields is the allow-list for UpdateGroup. Any other key in
// the payload rejects the whole request.
var groupUpdatableFields = map[string]bool{
	"name": true,
}

// CreateGroup creates a group owned by the actor and grants the actor an
// admin membership. Both rows commit together or neither does.
func (s *Service) CreateGroup(actor Actor, name string) (*GroupDetail, error) {
	const op = "service.CreateGroup"

	if strings.TrimSpace(name) == "" {
		return nil, domain.Validation("name is required")
	}

	group := models.Group{
		Name:      name,
		CreatedBy: actor.UserID,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		membership := models.Membership{
			GroupID: group.ID,
			UserID:  actor.UserID,
			Role:    models.RoleAdmin,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("group created", "group_id", group.ID, "created_by", actor.UserID)
	return s.groupDetail(&group)
}

// GetGroup returns a group with its members. Members and superusers only.
func (s *Service) GetGroup(actor Actor, groupID uint) (*GroupDetail, error) {
	const op = "service.GetGroup"

	group, err := s.findGroup(groupID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(s.db, actor, group.ID); err != nil {
		return nil, err
	}

	detail, err := s.groupDetail(group)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return detail, nil
}

// ListGroups returns groups the actor created or belongs to, deduplicated.
func (s *Service) ListGroups(actor Actor) ([]models.Group, error) {
	const op = "service.ListGroups"

	var groups []models.Group
	err := s.db.Distinct("groups.*").
		Joins("LEFT JOIN memberships ON memberships.group_id = groups.id").
		Where("memberships.user_id = ? OR groups.created_by = ?", actor.UserID, actor.UserID).
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return groups, nil
}

// UpdateGroup applies fields to a group. Only "name" may change; if the
// payload contains anything else the whole request is rejected and no field
// is applied. Requires the admin gate or superuser.
func (s *Service) UpdateGroup(actor Actor, groupID uint, fields map[string]any) (*GroupDetail, error) {
	const op = "service.UpdateGroup"

	group, err := s.findGroup(groupID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(s.db, actor, group); err != nil {
		return nil, err
	}

	var invalid []string
	for key := range fields {
		if !groupUpdatableFields[key] {
			invalid = append(invalid, key)
		}
	}
	if len(invalid) > 0 {
		return nil, domain.Validation("invalid fields provided: %s", strings.Join(invalid, ", "))
	}

	if raw, ok := fields["name"]; ok {
		name, ok := raw.(string)
		if !ok || strings.TrimSpace(name) == "" {
			return nil, domain.Validation("name must be a non-empty string")
		}
		group.Name = name
		if err := s.db.Save(group).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return s.groupDetail(group)
}

// DeleteGroup removes a group and everything under it: memberships,
// expenses, items and item shares, all in one transaction. Requires the
// admin gate or superuser.
func (s *Service) DeleteGroup(actor Actor, groupID uint) error {
	const op = "service.DeleteGroup"

	group, err := s.findGroup(groupID)
	if err != nil {
		return err
	}
	if err := requireAdmin(s.db, actor, group); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var expenseIDs []uint
		if err := tx.Model(&models.Expense{}).
			Where("group_id = ?", group.ID).
			Pluck("id", &expenseIDs).Error; err != nil {
			return err
		}
		if len(expenseIDs) > 0 {
			var itemIDs []uint
			if err := tx.Model(&models.Item{}).
				Where("expense_id IN ?", expenseIDs).
				Pluck("id", &itemIDs).Error; err != nil {
				return err
			}
			if len(itemIDs) > 0 {
				if err := tx.Where("item_id IN ?", itemIDs).Delete(&models.ItemShare{}).Error; err != nil {
					return err
				}
				if err := tx.Where("id IN ?", itemIDs).Delete(&models.Item{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("id IN ?", expenseIDs).Delete(&models.Expense{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("group_id = ?", group.ID).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		return tx.Delete(group).Error
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("group deleted", "group_id", group.ID, "by", actor.UserID)
	return nil
}

func (s *Service) findGroup(groupID uint) (*models.Group, error) {
	var group models.Group
	err := s.db.First(&group, groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("group not found")
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *Service) groupDetail(group *models.Group) (*GroupDetail, error) {
	var memberships []models.Membership
	if err := s.db.Where("group_id = ?", group.ID).Find(&memberships).Error; err != nil {
		return nil, err
	}

	detail := &GroupDetail{Group: *group, Members: make([]MemberDetail, 0, len(memberships))}
	for _, m := range memberships {
		var user models.User
		if err := s.db.First(&user, m.UserID).Error; err != nil {
			return nil, err
		}
		detail.Members = append(detail.Members, MemberDetail{
			User:     user,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}
	return detail, nil
}
