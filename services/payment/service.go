package payment

import (
	"context"
	"encoding/json"

	"chicha-platform/pkg/config"
	"chicha-platform/pkg/errutil"
	"chicha-platform/pkg/repository"
	"chicha-platform/services/order"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	orders    *order.Service
	events    repository.Repository[PaymentEvent]
	serverKey string
}

type ServiceParams struct {
	fx.In

	DB     *gorm.DB
	Node   *snowflake.Node
	Config *config.Config
	Orders *order.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		orders:    p.Orders,
		events:    repository.ProvideStore[PaymentEvent](p.DB),
		serverKey: p.Config.Payment.ServerKey,
	}
}

// MapTransactionStatus normalizes the gateway's transaction_status into the
// order's payment status. capture is only paid when fraud_status is accept.
func MapTransactionStatus(transactionStatus, fraudStatus string) (order.PaymentStatus, string) {
	switch transactionStatus {
	case "settlement":
		return order.PaymentPaid, ""
	case "capture":
		if fraudStatus == "accept" {
			return order.PaymentPaid, ""
		}
		return order.PaymentPending, ""
	case "pending":
		return order.PaymentPending, ""
	case "cancel":
		return order.PaymentFailed, "pembayaran dibatalkan"
	case "deny":
		return order.PaymentFailed, "pembayaran ditolak"
	case "expire":
		return order.PaymentFailed, "pembayaran kadaluarsa"
	default:
		return "", ""
	}
}

// HandleNotification verifies, deduplicates and applies a gateway webhook.
// Replays of an already-processed notification return the order untouched.
func (s *Service) HandleNotification(ctx context.Context, n Notification) (*order.Order, error) {
	if !verifySignature(n, s.serverKey) {
		zap.L().Warn("webhook signature mismatch",
			zap.String("order_id", n.OrderID),
			zap.String("transaction_id", n.TransactionID),
		)
		return nil, errutil.Forbidden("invalid signature", nil)
	}

	ord, err := s.orders.GetByCode(ctx, n.OrderID)
	if err != nil {
		return nil, err
	}

	processed, err := s.events.FindOne(ctx, &PaymentEvent{
		TransactionID:     n.TransactionID,
		TransactionStatus: n.TransactionStatus,
	})
	if err != nil {
		return nil, errutil.Internal("failed to check payment event", err)
	}
	if processed != nil {
		zap.L().Info("webhook already processed",
			zap.String("transaction_id", n.TransactionID),
			zap.String("transaction_status", n.TransactionStatus),
		)
		return ord, nil
	}

	status, reason := MapTransactionStatus(n.TransactionStatus, n.FraudStatus)
	if status == "" {
		return nil, errutil.BadRequest("unknown transaction status", nil)
	}

	ord, err = s.orders.ApplyPaymentOutcome(ctx, n.OrderID, order.PaymentOutcome{
		Status:               status,
		GatewayTransactionID: n.TransactionID,
		Reason:               reason,
	})
	if err != nil {
		return nil, err
	}

	if err := s.recordEvent(ctx, n, ord.OrderID); err != nil {
		// the outcome is already applied and idempotent; keep serving 200
		zap.L().Error("failed to record payment event",
			zap.String("transaction_id", n.TransactionID), zap.Error(err))
	}

	return ord, nil
}

func (s *Service) recordEvent(ctx context.Context, n Notification, orderID string) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	return s.events.Create(ctx, &PaymentEvent{
		EventID:           s.node.Generate().String(),
		TransactionID:     n.TransactionID,
		TransactionStatus: n.TransactionStatus,
		OrderID:           orderID,
		GrossAmount:       n.GrossAmount,
		Payload:           datatypes.JSON(payload),
	})
}
