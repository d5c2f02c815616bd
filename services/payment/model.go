package payment

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is the gateway webhook payload. Field names follow the
// gateway's JSON contract; gross_amount and status_code arrive as strings.
type Notification struct {
	OrderID           string `json:"order_id" binding:"required"`
	TransactionID     string `json:"transaction_id" binding:"required"`
	TransactionStatus string `json:"transaction_status" binding:"required"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code" binding:"required"`
	GrossAmount       string `json:"gross_amount" binding:"required"`
	SignatureKey      string `json:"signature_key" binding:"required"`
	PaymentType       string `json:"payment_type"`
}

// PaymentEvent is the processed-webhook ledger. The unique index on
// (transaction_id, transaction_status) is the durable idempotency guard.
type PaymentEvent struct {
	EventID           string         `gorm:"column:event_id;primaryKey" json:"event_id"`
	TransactionID     string         `gorm:"column:transaction_id;uniqueIndex:idx_trx_status" json:"transaction_id"`
	TransactionStatus string         `gorm:"column:transaction_status;uniqueIndex:idx_trx_status" json:"transaction_status"`
	OrderID           string         `gorm:"column:order_id;index" json:"order_id"`
	GrossAmount       string         `gorm:"column:gross_amount" json:"gross_amount"`
	Payload           datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt         time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (PaymentEvent) TableName() string {
	return "payment_events"
}
