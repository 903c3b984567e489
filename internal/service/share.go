package service

import (
	"fmt"
	"math"

	"gorm.io/gorm"

	"split-bill/internal/domain"
	"split-bill/internal/models"
)

// SetShares replaces all shares of an item with an equal split over the
// given users. Every user must be a member of the item's group; if any one
// is not, the whole request is rejected and existing shares stay untouched.
// Each share gets round(1/n, 2), so with three users the shares are 0.33
// apiece and sum to 0.99 rather than 1. That drift matches the product's
// rounding rule and is covered by tests.
func (s *Service) SetShares(actor Actor, itemID uint, userIDs []uint) error {
	const op = "service.SetShares"

	item, expense, err := s.findItem(itemID)
	if err != nil {
		return err
	}
	if err := requireMember(s.db, actor, expense.GroupID); err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return domain.Validation("no user IDs provided")
	}

	// A duplicated id makes the membership count fall short of len(userIDs),
	// so duplicates are rejected by the same check as non-members.
	var memberCount int64
	err = s.db.Model(&models.Membership{}).
		Where("group_id = ? AND user_id IN ?", expense.GroupID, userIDs).
		Count(&memberCount).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if memberCount != int64(len(userIDs)) {
		return domain.Validation("one or more users are not members of this group")
	}

	share := math.Round(1.0/float64(len(userIDs))*100) / 100

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", item.ID).Delete(&models.ItemShare{}).Error; err != nil {
			return err
		}
		for _, userID := range userIDs {
			itemShare := models.ItemShare{
				ItemID:      item.ID,
				UserID:      userID,
				ShareAmount: share,
			}
			if err := tx.Create(&itemShare).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("item shares replaced", "item_id", item.ID, "users", len(userIDs), "by", actor.UserID)
	return nil
}

// GetShares returns the shares of an item joined with their users.
// Members and superusers only.
func (s *Service) GetShares(actor Actor, itemID uint) ([]ShareDetail, error) {
	const op = "service.GetShares"

	item, expense, err := s.findItem(itemID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(s.db, actor, expense.GroupID); err != nil {
		return nil, err
	}

	shares, err := s.shareDetails(item.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return shares, nil
}

func (s *Service) shareDetails(itemID uint) ([]ShareDetail, error) {
	var shares []models.ItemShare
	if err := s.db.Where("item_id = ?", itemID).Find(&shares).Error; err != nil {
		return nil, err
	}

	details := make([]ShareDetail, 0, len(shares))
	for _, share := range shares {
		var user models.User
		if err := s.db.First(&user, share.UserID).Error; err != nil {
			return nil, err
		}
		details = append(details, ShareDetail{User: user, ShareAmount: share.ShareAmount})
	}
	return details, nil
}
