package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chicha-platform/pkg/db/option"
	"chicha-platform/pkg/errutil"
	"chicha-platform/pkg/repository"
	"chicha-platform/pkg/sequence"
	"chicha-platform/pkg/task"
	"chicha-platform/pkg/taskname"
	"chicha-platform/services/catalog"
	"chicha-platform/services/notification"
	"chicha-platform/services/target"
	"chicha-platform/services/voucher"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	seq      sequence.Generator
	catalog  *catalog.Service
	voucher  *voucher.Service
	emitter  notification.Emitter
	enqueuer task.Enqueuer

	store repository.Repository[Order]
	items repository.Repository[OrderItem]
}

type ServiceParams struct {
	fx.In

	DB       *gorm.DB
	Node     *snowflake.Node
	Seq      sequence.Generator
	Catalog  *catalog.Service
	Voucher  *voucher.Service
	Emitter  notification.Emitter
	Enqueuer task.Enqueuer
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		seq:      p.Seq,
		catalog:  p.Catalog,
		voucher:  p.Voucher,
		emitter:  p.Emitter,
		enqueuer: p.Enqueuer,
		store:    repository.ProvideStore[Order](p.DB),
		items:    repository.ProvideStore[OrderItem](p.DB),
	}
}

// Create runs the checkout flow: prices are snapshotted server-side, stock
// and voucher quota are consumed atomically in a single transaction, and the
// order starts as pending with payment awaiting the gateway.
func (s *Service) Create(ctx context.Context, params CreateOrderParams) (*Order, error) {
	if params.UserID == "" {
		return nil, errutil.Unauthorized("user identity is required", nil)
	}
	if len(params.Items) == 0 {
		return nil, errutil.BadRequest("order must contain at least one item", nil)
	}

	seen := map[string]bool{}
	for _, item := range params.Items {
		if item.Quantity <= 0 {
			return nil, errutil.BadRequest("quantity must be positive", nil)
		}
		if seen[item.ProductID] {
			return nil, errutil.BadRequest("duplicate product in order items", nil)
		}
		seen[item.ProductID] = true
	}

	subtotal := decimal.Zero
	orderItems := make([]*OrderItem, 0, len(params.Items))
	for _, item := range params.Items {
		product, err := s.catalog.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, errutil.BadRequest(fmt.Sprintf("product %s is not available", product.Name), nil)
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		orderItems = append(orderItems, &OrderItem{
			ItemID:      s.node.Generate().String(),
			ProductID:   product.ProductID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
		})
	}

	discount := decimal.Zero
	var quote *voucher.Quote
	if params.VoucherCode != "" {
		var err error
		quote, err = s.voucher.Validate(ctx, params.VoucherCode, params.UserID, subtotal)
		if err != nil {
			return nil, err
		}
		discount = quote.DiscountAmount
	}

	orderCode, err := s.seq.NextOrderCode(ctx)
	if err != nil {
		return nil, errutil.Internal("failed to generate order code", err)
	}

	order := &Order{
		OrderID:        s.node.Generate().String(),
		OrderCode:      orderCode,
		UserID:         params.UserID,
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TotalAmount:    subtotal.Sub(discount),
		PaymentMethod:  params.PaymentMethod,
		Status:         StatusPending,
		PaymentStatus:  PaymentPending,
	}
	if quote != nil {
		order.VoucherID = &quote.Voucher.VoucherID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range orderItems {
			if err := s.catalog.Reserve(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := s.store.WithTrx(tx).Create(ctx, order); err != nil {
			return errutil.Internal("failed to create order", err)
		}

		for _, item := range orderItems {
			item.OrderID = order.OrderID
		}
		if err := s.items.WithTrx(tx).BatchCreate(ctx, orderItems); err != nil {
			return errutil.Internal("failed to create order items", err)
		}

		if quote != nil {
			if err := s.voucher.Claim(ctx, tx, quote.Voucher.VoucherID, params.UserID, order.OrderID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, item := range orderItems {
		order.Items = append(order.Items, *item)
	}

	// no notification here; emits fire on realized status changes only
	return order, nil
}

func (s *Service) GetByID(ctx context.Context, orderID string) (*Order, error) {
	order, err := s.store.FindOne(ctx, &Order{OrderID: orderID})
	if err != nil {
		return nil, errutil.Internal("failed to fetch order", err)
	}
	if order == nil {
		return nil, errutil.NotFound("order not found", nil)
	}

	items, err := s.items.Find(ctx, &OrderItem{OrderID: order.OrderID})
	if err != nil {
		return nil, errutil.Internal("failed to fetch order items", err)
	}
	for _, item := range items {
		order.Items = append(order.Items, *item)
	}

	return order, nil
}

func (s *Service) GetByCode(ctx context.Context, orderCode string) (*Order, error) {
	order, err := s.store.FindOne(ctx, &Order{OrderCode: orderCode})
	if err != nil {
		return nil, errutil.Internal("failed to fetch order", err)
	}
	if order == nil {
		return nil, errutil.NotFound("order not found", nil)
	}
	return order, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	orders, err := s.store.Find(ctx, &Order{UserID: userID}, option.WithSortBy(option.QuerySortBy{}))
	if err != nil {
		return nil, errutil.Internal("failed to list orders", err)
	}
	return orders, nil
}

// SetStatus moves an order through its lifecycle. Same-status calls are
// no-ops; anything outside the transition table is rejected.
func (s *Service) SetStatus(ctx context.Context, orderID string, next Status, reason string) (*Order, error) {
	if !ValidStatus(next) {
		return nil, errutil.BadRequest("unknown order status", nil)
	}

	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == next {
		return order, nil
	}

	if !CanTransition(order.Status, next) {
		return nil, errutil.Conflict(
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, next), nil)
	}

	if next == StatusCompleted && order.PaymentStatus != PaymentPaid {
		return nil, errutil.Conflict("order must be paid before completion", nil)
	}

	var won bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if next == StatusCancelled {
			var err error
			won, err = s.cancelInTx(ctx, tx, order.OrderID, order.Items, reason)
			return err
		}

		if err := s.store.WithTrx(tx).Update(ctx, order.OrderID, map[string]any{"status": next}); err != nil {
			return errutil.Internal("failed to update order status", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if next == StatusCancelled && !won {
		// another actor cancelled first; report its state, no second notify
		return s.GetByID(ctx, order.OrderID)
	}

	order.Status = next
	if next == StatusCancelled {
		now := time.Now()
		order.CancelReason = &reason
		order.CancelledAt = &now
	}

	if next == StatusCompleted {
		s.applyToTarget(ctx, order)
	}

	s.notifyStatusChange(ctx, order)

	return order, nil
}

// ApplyPaymentOutcome reconciles a verified gateway notification with the
// order. Repeated outcomes with the same payment status are no-ops.
func (s *Service) ApplyPaymentOutcome(ctx context.Context, orderCode string, outcome PaymentOutcome) (*Order, error) {
	order, err := s.GetByCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus == outcome.Status {
		return order, nil
	}

	switch outcome.Status {
	case PaymentPaid:
		updates := map[string]any{"payment_status": PaymentPaid}
		if outcome.GatewayTransactionID != "" {
			updates["gateway_transaction_id"] = outcome.GatewayTransactionID
		}
		if err := s.store.Update(ctx, order.OrderID, updates); err != nil {
			return nil, errutil.Internal("failed to record payment", err)
		}

		order.PaymentStatus = PaymentPaid
		if outcome.GatewayTransactionID != "" {
			order.GatewayTransactionID = &outcome.GatewayTransactionID
		}

		s.notify(ctx, order.UserID, "payment_received",
			"Pembayaran diterima",
			fmt.Sprintf("Pembayaran untuk pesanan %s telah kami terima.", order.OrderCode),
			order.OrderCode,
		)

	case PaymentFailed:
		found, err := s.items.Find(ctx, &OrderItem{OrderID: order.OrderID})
		if err != nil {
			return nil, errutil.Internal("failed to fetch order items", err)
		}
		items := make([]OrderItem, 0, len(found))
		for _, item := range found {
			items = append(items, *item)
		}

		reason := outcome.Reason
		if reason == "" {
			reason = "pembayaran gagal"
		}

		var cancelled bool
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			cancelled, err = s.cancelInTx(ctx, tx, order.OrderID, items, reason)
			if err != nil {
				return err
			}

			updates := map[string]any{"payment_status": PaymentFailed}
			if outcome.GatewayTransactionID != "" {
				updates["gateway_transaction_id"] = outcome.GatewayTransactionID
			}
			return s.store.WithTrx(tx).Update(ctx, order.OrderID, updates)
		})
		if err != nil {
			return nil, err
		}

		order.PaymentStatus = PaymentFailed
		order.Status = StatusCancelled
		if cancelled {
			now := time.Now()
			order.CancelReason = &reason
			order.CancelledAt = &now
		}

		s.notify(ctx, order.UserID, "payment_failed",
			"Pembayaran gagal",
			fmt.Sprintf("Pembayaran untuk pesanan %s gagal: %s.", order.OrderCode, reason),
			order.OrderCode,
		)

	case PaymentPending:
		updates := map[string]any{"payment_status": PaymentPending}
		if outcome.GatewayTransactionID != "" {
			updates["gateway_transaction_id"] = outcome.GatewayTransactionID
		}
		if err := s.store.Update(ctx, order.OrderID, updates); err != nil {
			return nil, errutil.Internal("failed to record pending payment", err)
		}
		order.PaymentStatus = PaymentPending

	default:
		return nil, errutil.BadRequest("unsupported payment outcome", nil)
	}

	return order, nil
}

// cancelInTx flips the order to cancelled and restores stock for each line,
// but only for the actor that wins the conditional status update. The status
// column is the serialization point between an admin cancel and a gateway
// failure racing on the same order: the loser sees RowsAffected == 0 and
// must not release stock a second time.
func (s *Service) cancelInTx(ctx context.Context, tx *gorm.DB, orderID string, items []OrderItem, reason string) (bool, error) {
	result := tx.WithContext(ctx).Model(&Order{}).
		Where("order_id = ? AND status <> ?", orderID, StatusCancelled).
		Updates(map[string]any{
			"status":        StatusCancelled,
			"cancel_reason": reason,
			"cancelled_at":  time.Now(),
		})
	if result.Error != nil {
		return false, errutil.Internal("failed to cancel order", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	for _, item := range items {
		if err := s.catalog.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return false, err
		}
	}

	return true, nil
}

// applyToTarget flips target_applied exactly once per order before
// scheduling the spending target recompute. The conditional update is the
// idempotency guard: concurrent completions race on RowsAffected.
func (s *Service) applyToTarget(ctx context.Context, order *Order) {
	result := s.db.WithContext(ctx).Model(&Order{}).
		Where("order_id = ? AND target_applied = ?", order.OrderID, false).
		Update("target_applied", true)
	if result.Error != nil {
		zap.L().Error("failed to mark order target_applied",
			zap.String("order_id", order.OrderID), zap.Error(result.Error))
		return
	}
	if result.RowsAffected == 0 {
		return
	}

	payload, err := json.Marshal(target.RecomputePayload{UserID: order.UserID})
	if err != nil {
		zap.L().Error("failed to encode recompute payload", zap.Error(err))
		return
	}

	if _, err := s.enqueuer.Enqueue(
		asynq.NewTask(taskname.TargetRecompute, payload),
		asynq.Queue("default"),
	); err != nil {
		zap.L().Error("failed to enqueue target recompute",
			zap.String("user_id", order.UserID), zap.Error(err))
	}
}

func (s *Service) notifyStatusChange(ctx context.Context, order *Order) {
	var title, body string
	switch order.Status {
	case StatusShipped:
		title = "Pesanan dikirim"
		body = fmt.Sprintf("Pesanan %s sedang dalam pengiriman.", order.OrderCode)
	case StatusCompleted:
		title = "Pesanan selesai"
		body = fmt.Sprintf("Pesanan %s telah selesai. Terima kasih sudah berbelanja.", order.OrderCode)
	case StatusCancelled:
		title = "Pesanan dibatalkan"
		body = fmt.Sprintf("Pesanan %s dibatalkan.", order.OrderCode)
		if order.CancelReason != nil && *order.CancelReason != "" {
			body = fmt.Sprintf("Pesanan %s dibatalkan: %s.", order.OrderCode, *order.CancelReason)
		}
	default:
		return
	}

	s.notify(ctx, order.UserID, "order_"+string(order.Status), title, body, order.OrderCode)
}

func (s *Service) notify(ctx context.Context, userID, kind, title, body, orderCode string) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, notification.Message{
		UserID:   userID,
		Kind:     kind,
		Title:    title,
		Body:     body,
		Metadata: map[string]string{"order_code": orderCode},
	}); err != nil {
		zap.L().Warn("failed to emit order notification",
			zap.String("order_code", orderCode), zap.Error(err))
	}
}
