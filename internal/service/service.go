// Package service implements the domain operations behind the HTTP layer.
// Every operation takes an explicit Actor and resolves authorization before
// touching anything; compound mutations run inside one gorm transaction.
package service

import (
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"split-bill/internal/domain"
	"split-bill/internal/models"
)

// Actor is the authenticated identity performing a request.
type Actor struct {
	UserID    uint
	Superuser bool
}

type Service struct {
	db  *gorm.DB
	log *slog.Logger
}

func New(db *gorm.DB, log *slog.Logger) *Service {
	return &Service{db: db, log: log}
}

// isMember reports whether a membership row exists for (group, user).
func isMember(tx *gorm.DB, userID, groupID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.Membership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// requireMember rejects actors without a membership in the group.
// Superusers bypass the check.
func requireMember(tx *gorm.DB, actor Actor, groupID uint) error {
	if actor.Superuser {
		return nil
	}
	ok, err := isMember(tx, actor.UserID, groupID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Forbidden("you are not a member of this group")
	}
	return nil
}

// requireAdmin enforces the admin gate for destructive group operations:
// the actor must be the group's creator AND hold the admin role. The
// conjunction mirrors the product's current rule; a promoted co-admin or a
// creator whose role was revoked is rejected. Superusers bypass the check.
func requireAdmin(tx *gorm.DB, actor Actor, group *models.Group) error {
	if actor.Superuser {
		return nil
	}
	var m models.Membership
	err := tx.Where("group_id = ? AND user_id = ?", group.ID, actor.UserID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Forbidden("you are not a member of this group")
	}
	if err != nil {
		return err
	}
	if group.CreatedBy != actor.UserID || m.Role != models.RoleAdmin {
		return domain.Forbidden("you do not have permission to perform this action")
	}
	return nil
}
