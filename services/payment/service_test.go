package payment

import (
	"context"
	"fmt"
	"testing"

	"chicha-platform/pkg/config"
	"chicha-platform/pkg/errutil"
	"chicha-platform/services/catalog"
	"chicha-platform/services/notification"
	"chicha-platform/services/order"
	"chicha-platform/services/testutil"
	"chicha-platform/services/voucher"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testServerKey = "SB-Server-Key-Test"

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeSequence struct {
	n int
}

func (f *fakeSequence) NextOrderCode(ctx context.Context) (string, error) {
	f.n++
	return fmt.Sprintf("ORD-TEST-%03d", f.n), nil
}

func (f *fakeSequence) NextBookingCode(ctx context.Context) (string, error) {
	f.n++
	return fmt.Sprintf("BOOK-TEST-%03d", f.n), nil
}

func (f *fakeSequence) NextVoucherCode(ctx context.Context, campaign string) (string, error) {
	f.n++
	return fmt.Sprintf("%s-%03d", campaign, f.n), nil
}

type fakeEmitter struct{}

func (fakeEmitter) Emit(ctx context.Context, msg notification.Message) error { return nil }

type fakeEnqueuer struct{}

func (fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return &asynq.TaskInfo{}, nil
}

type fixture struct {
	svc     *Service
	orders  *order.Service
	catalog *catalog.Service
	db      *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t,
		&catalog.Product{},
		&voucher.Voucher{},
		&voucher.VoucherUsage{},
		&order.Order{},
		&order.OrderItem{},
		&PaymentEvent{},
	)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	catalogSvc := catalog.NewService(catalog.ServiceParams{DB: db, Node: node})
	voucherSvc := voucher.NewService(voucher.ServiceParams{DB: db, Node: node})

	orderSvc := order.NewService(order.ServiceParams{
		DB:       db,
		Node:     node,
		Seq:      &fakeSequence{},
		Catalog:  catalogSvc,
		Voucher:  voucherSvc,
		Emitter:  fakeEmitter{},
		Enqueuer: fakeEnqueuer{},
	})

	cfg := &config.Config{}
	cfg.Payment.ServerKey = testServerKey

	svc := NewService(ServiceParams{
		DB:     db,
		Node:   node,
		Config: cfg,
		Orders: orderSvc,
	})

	return &fixture{svc: svc, orders: orderSvc, catalog: catalogSvc, db: db}
}

func (f *fixture) seedOrder(t *testing.T, quantities ...int) *order.Order {
	t.Helper()
	ctx := context.Background()

	items := make([]order.CreateOrderItemParams, 0, len(quantities))
	for i, qty := range quantities {
		product, err := f.catalog.Create(ctx, catalog.CreateProductParams{
			Name:  fmt.Sprintf("Produk %d", i+1),
			Price: decimal.NewFromInt(50000),
			Stock: 10,
		})
		require.NoError(t, err)
		items = append(items, order.CreateOrderItemParams{ProductID: product.ProductID, Quantity: qty})
	}

	ord, err := f.orders.Create(ctx, order.CreateOrderParams{
		UserID:        "user-1",
		PaymentMethod: "bank_transfer",
		Items:         items,
	})
	require.NoError(t, err)
	return ord
}

func signedNotification(ord *order.Order, transactionStatus, transactionID string) Notification {
	gross := ord.TotalAmount.StringFixed(2)
	return Notification{
		OrderID:           ord.OrderCode,
		TransactionID:     transactionID,
		TransactionStatus: transactionStatus,
		FraudStatus:       "accept",
		StatusCode:        "200",
		GrossAmount:       gross,
		SignatureKey:      computeSignature(ord.OrderCode, "200", gross, testServerKey),
	}
}

func TestHandleNotificationSettlementMarksPaid(t *testing.T) {
	f := newFixture(t)
	ord := f.seedOrder(t, 1)

	got, err := f.svc.HandleNotification(context.Background(), signedNotification(ord, "settlement", "trx-1"))
	require.NoError(t, err)
	require.Equal(t, order.PaymentPaid, got.PaymentStatus)
	require.Equal(t, order.StatusPending, got.Status)
	require.NotNil(t, got.GatewayTransactionID)
	require.Equal(t, "trx-1", *got.GatewayTransactionID)
}

func TestHandleNotificationRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	ord := f.seedOrder(t, 1)

	n := signedNotification(ord, "settlement", "trx-1")
	n.SignatureKey = "tampered"

	_, err := f.svc.HandleNotification(context.Background(), n)
	require.Error(t, err)

	var baseErr errutil.BaseError
	require.ErrorAs(t, err, &baseErr)
	require.Equal(t, errutil.StatusForbidden, baseErr.Code)
}

func TestHandleNotificationUnknownOrder(t *testing.T) {
	f := newFixture(t)

	n := Notification{
		OrderID:           "ORD-UNKNOWN",
		TransactionID:     "trx-1",
		TransactionStatus: "settlement",
		StatusCode:        "200",
		GrossAmount:       "100000.00",
		SignatureKey:      computeSignature("ORD-UNKNOWN", "200", "100000.00", testServerKey),
	}

	_, err := f.svc.HandleNotification(context.Background(), n)
	require.Error(t, err)

	var baseErr errutil.BaseError
	require.ErrorAs(t, err, &baseErr)
	require.Equal(t, errutil.StatusNotFound, baseErr.Code)
}

func TestHandleNotificationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ord := f.seedOrder(t, 1)
	ctx := context.Background()

	n := signedNotification(ord, "settlement", "trx-1")

	_, err := f.svc.HandleNotification(ctx, n)
	require.NoError(t, err)

	// replay of the exact same notification is swallowed
	got, err := f.svc.HandleNotification(ctx, n)
	require.NoError(t, err)
	require.Equal(t, order.PaymentPaid, got.PaymentStatus)

	var count int64
	require.NoError(t, f.db.Model(&PaymentEvent{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestHandleNotificationExpireCancelsAndRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ord := f.seedOrder(t, 1, 3)

	got, err := f.svc.HandleNotification(ctx, signedNotification(ord, "expire", "trx-1"))
	require.NoError(t, err)
	require.Equal(t, order.PaymentFailed, got.PaymentStatus)
	require.Equal(t, order.StatusCancelled, got.Status)
	require.NotNil(t, got.CancelReason)
	require.Equal(t, "pembayaran kadaluarsa", *got.CancelReason)

	// both lines returned to stock
	var products []catalog.Product
	require.NoError(t, f.db.Order("name").Find(&products).Error)
	require.Len(t, products, 2)
	for _, p := range products {
		require.Equal(t, 10, p.Stock)
	}
}

func TestHandleNotificationCaptureFraudChallengeStaysPending(t *testing.T) {
	f := newFixture(t)
	ord := f.seedOrder(t, 1)

	n := signedNotification(ord, "capture", "trx-1")
	n.FraudStatus = "challenge"

	got, err := f.svc.HandleNotification(context.Background(), n)
	require.NoError(t, err)
	require.Equal(t, order.PaymentPending, got.PaymentStatus)
	require.Equal(t, order.StatusPending, got.Status)
}

func TestMapTransactionStatus(t *testing.T) {
	cases := []struct {
		transactionStatus string
		fraudStatus       string
		want              order.PaymentStatus
	}{
		{"settlement", "", order.PaymentPaid},
		{"capture", "accept", order.PaymentPaid},
		{"capture", "challenge", order.PaymentPending},
		{"pending", "", order.PaymentPending},
		{"cancel", "", order.PaymentFailed},
		{"deny", "", order.PaymentFailed},
		{"expire", "", order.PaymentFailed},
		{"refund", "", order.PaymentStatus("")},
	}

	for _, tc := range cases {
		got, _ := MapTransactionStatus(tc.transactionStatus, tc.fraudStatus)
		require.Equal(t, tc.want, got, "status %s fraud %s", tc.transactionStatus, tc.fraudStatus)
	}
}
