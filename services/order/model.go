package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	OrderID              string          `gorm:"column:order_id;primaryKey" json:"order_id"`
	OrderCode            string          `gorm:"column:order_code;uniqueIndex" json:"order_code"`
	UserID               string          `gorm:"column:user_id;index" json:"user_id"`
	VoucherID            *string         `gorm:"column:voucher_id" json:"voucher_id,omitempty"`
	Subtotal             decimal.Decimal `gorm:"column:subtotal;type:numeric(16,2)" json:"subtotal"`
	DiscountAmount       decimal.Decimal `gorm:"column:discount_amount;type:numeric(16,2)" json:"discount_amount"`
	TotalAmount          decimal.Decimal `gorm:"column:total_amount;type:numeric(16,2)" json:"total_amount"`
	PaymentMethod        string          `gorm:"column:payment_method" json:"payment_method"`
	Status               Status          `gorm:"column:status" json:"status"`
	PaymentStatus        PaymentStatus   `gorm:"column:payment_status" json:"payment_status"`
	GatewayTransactionID *string         `gorm:"column:gateway_transaction_id;uniqueIndex" json:"gateway_transaction_id,omitempty"`
	CancelReason         *string         `gorm:"column:cancel_reason" json:"cancel_reason,omitempty"`
	CancelledAt          *time.Time      `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	TargetApplied        bool            `gorm:"column:target_applied" json:"-"`
	CreatedAt            time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"column:updated_at" json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;references:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ItemID      string          `gorm:"column:item_id;primaryKey" json:"item_id"`
	OrderID     string          `gorm:"column:order_id;index" json:"order_id"`
	ProductID   string          `gorm:"column:product_id" json:"product_id"`
	ProductName string          `gorm:"column:product_name" json:"product_name"`
	Quantity    int             `gorm:"column:quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(16,2)" json:"unit_price"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

type CreateOrderItemParams struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type CreateOrderParams struct {
	UserID        string                  `json:"-"`
	PaymentMethod string                  `json:"payment_method" binding:"required"`
	VoucherCode   string                  `json:"voucher_code"`
	Items         []CreateOrderItemParams `json:"items" binding:"required"`
}

// PaymentOutcome is the normalized result of a gateway notification,
// produced by the payment service after signature verification.
type PaymentOutcome struct {
	Status               PaymentStatus
	GatewayTransactionID string
	Reason               string
}
