package models

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     *string   `gorm:"unique" json:"email"`
	Password  string    `json:"-"`
	Superuser bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Membership links a user to a group. One row per (group, user).
type Membership struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	GroupID  uint      `gorm:"uniqueIndex:idx_group_user" json:"group_id"`
	UserID   uint      `gorm:"uniqueIndex:idx_group_user" json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

type Expense struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GroupID     uint      `json:"group_id"`
	Title       string    `json:"title"`
	TotalAmount int64     `json:"total_amount"` // derived from items, never client-set
	PaidBy      *uint     `json:"paid_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type Item struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ExpenseID uint   `json:"expense_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
}

// ItemShare holds one user's fraction of an item, in [0, 1]. One row per (item, user).
type ItemShare struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	ItemID      uint    `gorm:"uniqueIndex:idx_item_user" json:"item_id"`
	UserID      uint    `gorm:"uniqueIndex:idx_item_user" json:"user_id"`
	ShareAmount float64 `json:"share_amount"`
}
