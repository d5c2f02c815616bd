package order

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chicha-platform/pkg/errutil"
	"chicha-platform/services/catalog"
	"chicha-platform/services/notification"
	"chicha-platform/services/testutil"
	"chicha-platform/services/voucher"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

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

type fakeEmitter struct {
	messages []notification.Message
}

func (f *fakeEmitter) Emit(ctx context.Context, msg notification.Message) error {
	f.messages = append(f.messages, msg)
	return nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, nil
}

type fixture struct {
	svc      *Service
	catalog  *catalog.Service
	voucher  *voucher.Service
	emitter  *fakeEmitter
	enqueuer *fakeEnqueuer
	db       *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t,
		&catalog.Product{},
		&voucher.Voucher{},
		&voucher.VoucherUsage{},
		&Order{},
		&OrderItem{},
	)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	catalogSvc := catalog.NewService(catalog.ServiceParams{DB: db, Node: node})
	voucherSvc := voucher.NewService(voucher.ServiceParams{DB: db, Node: node})
	emitter := &fakeEmitter{}
	enqueuer := &fakeEnqueuer{}

	svc := NewService(ServiceParams{
		DB:       db,
		Node:     node,
		Seq:      &fakeSequence{},
		Catalog:  catalogSvc,
		Voucher:  voucherSvc,
		Emitter:  emitter,
		Enqueuer: enqueuer,
	})

	return &fixture{
		svc:      svc,
		catalog:  catalogSvc,
		voucher:  voucherSvc,
		emitter:  emitter,
		enqueuer: enqueuer,
		db:       db,
	}
}

func (f *fixture) seedProduct(t *testing.T, name string, price int64, stock int) *catalog.Product {
	t.Helper()
	product, err := f.catalog.Create(context.Background(), catalog.CreateProductParams{
		Name:  name,
		Price: decimal.NewFromInt(price),
		Stock: stock,
	})
	require.NoError(t, err)
	return product
}

func (f *fixture) seedVoucher(t *testing.T, code string, percent int64, maxDiscount int64) *voucher.Voucher {
	t.Helper()
	max := decimal.NewFromInt(maxDiscount)
	v, err := f.voucher.Create(context.Background(), voucher.CreateVoucherParams{
		Code:         code,
		Name:         code,
		DiscountType: voucher.DiscountPercentage,
		Value:        decimal.NewFromInt(percent),
		MaxDiscount:  &max,
		Quota:        10,
		ValidFrom:    time.Now().Add(-time.Hour),
		ValidUntil:   time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) stockOf(t *testing.T, productID string) int {
	t.Helper()
	product, err := f.catalog.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return product.Stock
}

func TestCreateOrderSnapshotsPricesAndDecrementsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	casing := f.seedProduct(t, "Casing iPhone 13", 75000, 10)
	glass := f.seedProduct(t, "Tempered Glass", 25000, 20)

	order, err := f.svc.Create(ctx, CreateOrderParams{
		UserID:        "user-1",
		PaymentMethod: "bank_transfer",
		Items: []CreateOrderItemParams{
			{ProductID: casing.ProductID, Quantity: 2},
			{ProductID: glass.ProductID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, PaymentPending, order.PaymentStatus)
	require.True(t, order.Subtotal.Equal(decimal.NewFromInt(175000)), "got %s", order.Subtotal)
	require.True(t, order.TotalAmount.Equal(decimal.NewFromInt(175000)))
	require.Len(t, order.Items, 2)

	require.Equal(t, 8, f.stockOf(t, casing.ProductID))
	require.Equal(t, 19, f.stockOf(t, glass.ProductID))

	// creation persists only; notifications fire on status changes
	require.Empty(t, f.emitter.messages)
}

func TestCreateOrderPendingGatewayWebhookIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Holder Motor", 45000, 5)
	order, err := f.svc.Create(ctx, CreateOrderParams{
		UserID:        "user-1",
		PaymentMethod: "bank_transfer",
		Items:         []CreateOrderItemParams{{ProductID: product.ProductID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, PaymentPending, order.PaymentStatus)

	// a gateway "pending" notification matches the creation state
	got, err := f.svc.ApplyPaymentOutcome(ctx, order.OrderCode, PaymentOutcome{Status: PaymentPending})
	require.NoError(t, err)
	require.Equal(t, PaymentPending, got.PaymentStatus)
	require.Equal(t, StatusPending, got.Status)
	require.Empty(t, f.emitter.messages)
}

func TestCreateOrderWithVoucherAppliesCappedDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "LCD Xiaomi", 200000, 5)
	f.seedVoucher(t, "HEMAT10", 10, 15000)

	order, err := f.svc.Create(ctx, CreateOrderParams{
		UserID:        "user-1",
		PaymentMethod: "qris",
		VoucherCode:   "HEMAT10",
		Items: []CreateOrderItemParams{
			{ProductID: product.ProductID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	// 10% of 200000 is 20000, capped at 15000
	require.True(t, order.DiscountAmount.Equal(decimal.NewFromInt(15000)), "got %s", order.DiscountAmount)
	require.True(t, order.TotalAmount.Equal(decimal.NewFromInt(185000)), "got %s", order.TotalAmount)

	// quota consumed and usage recorded
	var v voucher.Voucher
	require.NoError(t, f.db.First(&v, "code = ?", "HEMAT10").Error)
	require.Equal(t, 1, v.Used)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plenty := f.seedProduct(t, "Kabel Data", 25000, 10)
	scarce := f.seedProduct(t, "Baterai", 150000, 1)

	_, err := f.svc.Create(ctx, CreateOrderParams{
		UserID:        "user-1",
		PaymentMethod: "bank_transfer",
		Items: []CreateOrderItemParams{
			{ProductID: plenty.ProductID, Quantity: 2},
			{ProductID: scarce.ProductID, Quantity: 2},
		},
	})
	require.Error(t, err)

	// first reservation must have been rolled back with the transaction
	require.Equal(t, 10, f.stockOf(t, plenty.ProductID))
	require.Equal(t, 1, f.stockOf(t, scarce.ProductID))

	var count int64
	require.NoError(t, f.db.Model(&Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSetStatusTransitionTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Charger", 99000, 5)
	order, err := f.svc.Create(ctx, CreateOrderParams{
		UserID:        "user-1",
		PaymentMethod: "qris",
		Items:         []CreateOrderItemParams{{ProductID: product.ProductID, Quantity: 1}},
	})
	require.NoError(t, err)

	// completed requires payment first
	_, err = f.svc.SetStatus(ctx, order.OrderID, StatusCompleted, "")
	require.Error(t, err)

	var baseErr errutil.BaseError
	require.ErrorAs(t, err, &baseErr)
	require.Equal(t, errutil.StatusConflict, baseErr.Code)

	_, err = f.svc.ApplyPaymentOutcome(ctx, order.OrderCode, PaymentOutcome{
		Status:               PaymentPaid,
		GatewayTransactionID: "trx-1",
	})
	require.NoError(t, err)

	updated, err := f.svc.SetStatus(ctx, order.OrderID, StatusShipped, "")
	require.NoError(t, err)
	require.Equal(t, StatusShipped, updated.Status)

	updated, err = f.svc.SetStatus(ctx, order.OrderID, StatusCompleted, "")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, updated.Status)

	// completed is terminal
	_, err = f.svc.SetStatus(ctx, order.OrderID, StatusCancelled, "changed my mind")
	require.Error(t, err)
}

func TestSetStatusSameStatusIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Softcase", 35000, 5)
	order, err := f.svc.Create(ctx, CreateOrderParams{
		UserID:        "user-1",
		PaymentMethod: "qris",
		Items:         []CreateOrderItemParams{{ProductID: product.ProductID, Quantity: 1}},
	})
	require.NoError(t, err)

	before := len(f.emitter.messages)
	_, err = f.svc.SetStatus(ctx, order.OrderID, StatusPending, "")
	require.NoError(t, err)
	require.Len(t, f.emitter.messages, before, "no-op must not notify")
}

func TestCancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Headset", 120000, 3)
	order, err := f.svc.Create(ctx, CreateOrderParams{
		UserID:        "user-1",
		PaymentMethod: "bank_transfer",
		Items:         []CreateOrderItemParams{{ProductID: product.ProductID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.stockOf(t, product.ProductID))

	cancelled, err := f.svc.SetStatus(ctx, order.OrderID, StatusCancelled, "stok kosong")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	require.Equal(t, "stok kosong", *cancelled.CancelReason)

	require.Equal(t, 3, f.stockOf(t, product.ProductID))
}

func TestCancelReleasesStockExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Flexible Charger", 65000, 5)
	order, err := f.svc.Create(ctx, CreateOrderParams{
		UserID:        "user-1",
		PaymentMethod: "bank_transfer",
		Items:         []CreateOrderItemParams{{ProductID: product.ProductID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, 3, f.stockOf(t, product.ProductID))

	// two actors racing on the same cancel: only the conditional-update
	// winner may restore stock
	won, err := f.svc.cancelInTx(ctx, f.db, order.OrderID, order.Items, "stok kosong")
	require.NoError(t, err)
	require.True(t, won)
	require.Equal(t, 5, f.stockOf(t, product.ProductID))

	won, err = f.svc.cancelInTx(ctx, f.db, order.OrderID, order.Items, "pembayaran kadaluarsa")
	require.NoError(t, err)
	require.False(t, won)
	require.Equal(t, 5, f.stockOf(t, product.ProductID))
}

func TestFailedWebhookAfterAdminCancelDoesNotDoubleRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Anti Gores Matte", 30000, 8)
	order, err := f.svc.Create(ctx, CreateOrderParams{
		UserID:        "user-1",
		PaymentMethod: "bank_transfer",
		Items:         []CreateOrderItemParams{{ProductID: product.ProductID, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, 5, f.stockOf(t, product.ProductID))

	_, err = f.svc.SetStatus(ctx, order.OrderID, StatusCancelled, "stok kosong")
	require.NoError(t, err)
	require.Equal(t, 8, f.stockOf(t, product.ProductID))

	// the gateway failure arrives afterwards: payment_status is recorded,
	// stock stays put
	got, err := f.svc.ApplyPaymentOutcome(ctx, order.OrderCode, PaymentOutcome{
		Status: PaymentFailed,
		Reason: "pembayaran kadaluarsa",
	})
	require.NoError(t, err)
	require.Equal(t, PaymentFailed, got.PaymentStatus)
	require.Equal(t, StatusCancelled, got.Status)
	require.Equal(t, 8, f.stockOf(t, product.ProductID))
}

func TestCompletionEnqueuesTargetRecomputeOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Powerbank", 250000, 5)
	order, err := f.svc.Create(ctx, CreateOrderParams{
		UserID:        "user-1",
		PaymentMethod: "qris",
		Items:         []CreateOrderItemParams{{ProductID: product.ProductID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = f.svc.ApplyPaymentOutcome(ctx, order.OrderCode, PaymentOutcome{Status: PaymentPaid})
	require.NoError(t, err)

	_, err = f.svc.SetStatus(ctx, order.OrderID, StatusCompleted, "")
	require.NoError(t, err)
	require.Len(t, f.enqueuer.tasks, 1)
	require.Equal(t, "target:recompute", f.enqueuer.tasks[0].Type())

	// a second completion attempt cannot enqueue again
	f.svc.applyToTarget(ctx, order)
	require.Len(t, f.enqueuer.tasks, 1)
}

func TestApplyPaymentOutcomeFailedCancelsAndRestores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cable := f.seedProduct(t, "Kabel Lightning", 45000, 10)
	case13 := f.seedProduct(t, "Case Magsafe", 95000, 10)

	order, err := f.svc.Create(ctx, CreateOrderParams{
		UserID:        "user-1",
		PaymentMethod: "bank_transfer",
		Items: []CreateOrderItemParams{
			{ProductID: cable.ProductID, Quantity: 1},
			{ProductID: case13.ProductID, Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 9, f.stockOf(t, cable.ProductID))
	require.Equal(t, 7, f.stockOf(t, case13.ProductID))

	updated, err := f.svc.ApplyPaymentOutcome(ctx, order.OrderCode, PaymentOutcome{
		Status: PaymentFailed,
		Reason: "pembayaran kadaluarsa",
	})
	require.NoError(t, err)
	require.Equal(t, PaymentFailed, updated.PaymentStatus)
	require.Equal(t, StatusCancelled, updated.Status)

	require.Equal(t, 10, f.stockOf(t, cable.ProductID))
	require.Equal(t, 10, f.stockOf(t, case13.ProductID))
}

func TestApplyPaymentOutcomeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Speaker Mini", 80000, 4)
	order, err := f.svc.Create(ctx, CreateOrderParams{
		UserID:        "user-1",
		PaymentMethod: "qris",
		Items:         []CreateOrderItemParams{{ProductID: product.ProductID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = f.svc.ApplyPaymentOutcome(ctx, order.OrderCode, PaymentOutcome{Status: PaymentPaid})
	require.NoError(t, err)

	before := len(f.emitter.messages)
	_, err = f.svc.ApplyPaymentOutcome(ctx, order.OrderCode, PaymentOutcome{Status: PaymentPaid})
	require.NoError(t, err)
	require.Len(t, f.emitter.messages, before, "repeated outcome must be a no-op")
}
