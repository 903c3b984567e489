package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"split-bill/internal/domain"
	"split-bill/internal/models"
)

// ItemUpdate carries the fields an item update may change. Nil means the
// field was absent from the payload.
type ItemUpdate struct {
	Name  *string
	Price *int64
}

// CreateItem adds an item to an expense and recomputes the expense total
// in the same transaction. The actor must be a member of the expense's group.
func (s *Service) CreateItem(actor Actor, expenseID uint, name string, price int64) (*models.Item, error) {
	const op = "service.CreateItem"

	expense, err := s.findExpense(expenseID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(s.db, actor, expense.GroupID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.Validation("name is required")
	}
	if price < 0 {
		return nil, domain.Validation("price must not be negative")
	}

	item := models.Item{
		ExpenseID: expense.ID,
		Name:      name,
		Price:     price,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return recomputeTotal(tx, expense.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("item created", "item_id", item.ID, "expense_id", expense.ID, "by", actor.UserID)
	return &item, nil
}

// UpdateItem changes an item's name and/or price. A price change triggers
// a recompute of the expense total in the same transaction as the update.
func (s *Service) UpdateItem(actor Actor, itemID uint, update ItemUpdate) (*models.Item, error) {
	const op = "service.UpdateItem"

	item, expense, err := s.findItem(itemID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(s.db, actor, expense.GroupID); err != nil {
		return nil, err
	}

	if update.Name != nil {
		if strings.TrimSpace(*update.Name) == "" {
			return nil, domain.Validation("name must not be empty")
		}
		item.Name = *update.Name
	}
	if update.Price != nil {
		if *update.Price < 0 {
			return nil, domain.Validation("price must not be negative")
		}
		item.Price = *update.Price
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(item).Error; err != nil {
			return err
		}
		if update.Price != nil {
			return recomputeTotal(tx, item.ExpenseID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return item, nil
}

// DeleteItem removes an item and its shares, then recomputes the expense
// total over the remaining items, all in one transaction.
func (s *Service) DeleteItem(actor Actor, itemID uint) error {
	const op = "service.DeleteItem"

	item, expense, err := s.findItem(itemID)
	if err != nil {
		return err
	}
	if err := requireMember(s.db, actor, expense.GroupID); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", item.ID).Delete(&models.ItemShare{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(item).Error; err != nil {
			return err
		}
		return recomputeTotal(tx, item.ExpenseID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("item deleted", "item_id", item.ID, "expense_id", item.ExpenseID, "by", actor.UserID)
	return nil
}

// recomputeTotal keeps the derived-total invariant: the expense total
// always equals the sum of its items' prices, zero when none remain.
func recomputeTotal(tx *gorm.DB, expenseID uint) error {
	var total int64
	err := tx.Model(&models.Item{}).
		Where("expense_id = ?", expenseID).
		Select("COALESCE(SUM(price), 0)").
		Scan(&total).Error
	if err != nil {
		return err
	}
	return tx.Model(&models.Expense{}).
		Where("id = ?", expenseID).
		Update("total_amount", total).Error
}

func (s *Service) findItem(itemID uint) (*models.Item, *models.Expense, error) {
	var item models.Item
	err := s.db.First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, domain.NotFound("item not found")
	}
	if err != nil {
		return nil, nil, err
	}
	expense, err := s.findExpense(item.ExpenseID)
	if err != nil {
		return nil, nil, err
	}
	return &item, expense, nil
}
