package target

import (
	"time"

	"github.com/shopspring/decimal"
)

type TargetStatus string

const (
	StatusActive   TargetStatus = "active"
	StatusAchieved TargetStatus = "achieved"
)

type Target struct {
	TargetID      string          `gorm:"column:target_id;primaryKey" json:"target_id"`
	UserID        string          `gorm:"column:user_id;uniqueIndex" json:"user_id"`
	TargetAmount  decimal.Decimal `gorm:"column:target_amount;type:numeric(16,2)" json:"target_amount"`
	CurrentAmount decimal.Decimal `gorm:"column:current_amount;type:numeric(16,2)" json:"current_amount"`
	Status        TargetStatus    `gorm:"column:status" json:"status"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Target) TableName() string {
	return "targets"
}

// RecomputePayload is the asynq task body for target:recompute.
type RecomputePayload struct {
	UserID string `json:"user_id"`
}
