package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"split-bill/internal/domain"
	"split-bill/internal/models"
)

// ShareDetail is an item share joined with its user.
type ShareDetail struct {
	User        models.User `json:"user"`
	ShareAmount float64     `json:"share_amount"`
}

// ItemDetail is an item together with its shares.
type ItemDetail struct {
	models.Item
	Shares []ShareDetail `json:"shares"`
}

// ExpenseDetail is an expense together with its items and their shares.
type ExpenseDetail struct {
	models.Expense
	Items []ItemDetail `json:"items"`
}

// CreateExpense creates an empty expense in a group. The total always
// starts at zero and grows only as items are added; client-supplied totals
// are never accepted. The actor must be a member of the group.
func (s *Service) CreateExpense(actor Actor, groupID uint, title string, paidBy *uint) (*models.Expense, error) {
	const op = "service.CreateExpense"

	group, err := s.findGroup(groupID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(s.db, actor, group.ID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, domain.Validation("title is required")
	}
	if paidBy != nil {
		var payer models.User
		if err := s.db.First(&payer, *paidBy).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.Validation("paid_by user does not exist")
			}
			return nil, err
		}
	}

	expense := models.Expense{
		GroupID:     group.ID,
		Title:       title,
		TotalAmount: 0,
		PaidBy:      paidBy,
	}
	if err := s.db.Create(&expense).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("expense created", "expense_id", expense.ID, "group_id", group.ID, "by", actor.UserID)
	return &expense, nil
}

// ListExpenses returns the expenses of a group, each with its items and
// shares. Members and superusers only.
func (s *Service) ListExpenses(actor Actor, groupID uint) ([]ExpenseDetail, error) {
	const op = "service.ListExpenses"

	group, err := s.findGroup(groupID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(s.db, actor, group.ID); err != nil {
		return nil, err
	}

	var expenses []models.Expense
	if err := s.db.Where("group_id = ?", group.ID).Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	details := make([]ExpenseDetail, 0, len(expenses))
	for i := range expenses {
		detail, err := s.expenseDetail(&expenses[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		details = append(details, *detail)
	}
	return details, nil
}

// GetExpense returns a single expense with its items and shares.
func (s *Service) GetExpense(actor Actor, expenseID uint) (*ExpenseDetail, error) {
	const op = "service.GetExpense"

	expense, err := s.findExpense(expenseID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(s.db, actor, expense.GroupID); err != nil {
		return nil, err
	}

	detail, err := s.expenseDetail(expense)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return detail, nil
}

// DeleteExpense removes an expense, its items and their shares in one
// transaction. Members and superusers only.
func (s *Service) DeleteExpense(actor Actor, expenseID uint) error {
	const op = "service.DeleteExpense"

	expense, err := s.findExpense(expenseID)
	if err != nil {
		return err
	}
	if err := requireMember(s.db, actor, expense.GroupID); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var itemIDs []uint
		if err := tx.Model(&models.Item{}).
			Where("expense_id = ?", expense.ID).
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
		return tx.Delete(expense).Error
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("expense deleted", "expense_id", expense.ID, "by", actor.UserID)
	return nil
}

func (s *Service) findExpense(expenseID uint) (*models.Expense, error) {
	var expense models.Expense
	err := s.db.First(&expense, expenseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("expense not found")
	}
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (s *Service) expenseDetail(expense *models.Expense) (*ExpenseDetail, error) {
	var items []models.Item
	if err := s.db.Where("expense_id = ?", expense.ID).Find(&items).Error; err != nil {
		return nil, err
	}

	detail := &ExpenseDetail{Expense: *expense, Items: make([]ItemDetail, 0, len(items))}
	for _, item := range items {
		shares, err := s.shareDetails(item.ID)
		if err != nil {
			return nil, err
		}
		detail.Items = append(detail.Items, ItemDetail{Item: item, Shares: shares})
	}
	return detail, nil
}
