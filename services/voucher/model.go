package voucher

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Voucher struct {
	VoucherID    string              `gorm:"column:voucher_id;primaryKey" json:"voucher_id"`
	Code         string              `gorm:"column:code;uniqueIndex" json:"code"`
	Name         string              `gorm:"column:name" json:"name"`
	DiscountType DiscountType        `gorm:"column:discount_type" json:"discount_type"`
	Value        decimal.Decimal     `gorm:"column:value;type:numeric(16,2)" json:"value"`
	MinPurchase  decimal.Decimal     `gorm:"column:min_purchase;type:numeric(16,2)" json:"min_purchase"`
	MaxDiscount  decimal.NullDecimal `gorm:"column:max_discount;type:numeric(16,2)" json:"max_discount"`
	Quota        int                 `gorm:"column:quota" json:"quota"`
	Used         int                 `gorm:"column:used" json:"used"`
	ValidFrom    time.Time           `gorm:"column:valid_from" json:"valid_from"`
	ValidUntil   time.Time           `gorm:"column:valid_until" json:"valid_until"`
	IsActive     bool                `gorm:"column:is_active" json:"is_active"`
	CreatedAt    time.Time           `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"column:updated_at" json:"updated_at"`
}

func (Voucher) TableName() string {
	return "vouchers"
}

type VoucherUsage struct {
	UsageID   string    `gorm:"column:usage_id;primaryKey" json:"usage_id"`
	VoucherID string    `gorm:"column:voucher_id;uniqueIndex:idx_voucher_user" json:"voucher_id"`
	UserID    string    `gorm:"column:user_id;uniqueIndex:idx_voucher_user" json:"user_id"`
	OrderID   string    `gorm:"column:order_id" json:"order_id"`
	UsedAt    time.Time `gorm:"column:used_at" json:"used_at"`
}

func (VoucherUsage) TableName() string {
	return "voucher_usages"
}

// Quote is the result of validating a voucher against a cart subtotal.
type Quote struct {
	Voucher        *Voucher        `json:"voucher"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

type CreateVoucherParams struct {
	Code         string           `json:"code" binding:"required"`
	Name         string           `json:"name" binding:"required"`
	DiscountType DiscountType     `json:"discount_type" binding:"required"`
	Value        decimal.Decimal  `json:"value" binding:"required"`
	MinPurchase  decimal.Decimal  `json:"min_purchase"`
	MaxDiscount  *decimal.Decimal `json:"max_discount"`
	Quota        int              `json:"quota" binding:"required"`
	ValidFrom    time.Time        `json:"valid_from" binding:"required"`
	ValidUntil   time.Time        `json:"valid_until" binding:"required"`
	IsActive     *bool            `json:"is_active"`
}
