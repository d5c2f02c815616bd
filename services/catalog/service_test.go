package catalog

import (
	"context"
	"testing"

	"chicha-platform/pkg/errutil"
	"chicha-platform/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &Product{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node}), db
}

func TestCreateProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateProductParams{
		Name:  "Casing iPhone 13",
		Price: decimal.NewFromInt(75000),
		Stock: 10,
	})
	require.NoError(t, err)
	require.Equal(t, "casing-iphone-13", product.Slug)
	require.True(t, product.IsActive)

	_, err = svc.Create(ctx, CreateProductParams{
		Name:  "Casing iPhone 13",
		Price: decimal.NewFromInt(80000),
	})
	require.Error(t, err)

	var baseErr errutil.BaseError
	require.ErrorAs(t, err, &baseErr)
	require.Equal(t, errutil.StatusConflict, baseErr.Code)
}

func TestCreateProductRejectsNegativePrice(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateProductParams{
		Name:  "Tempered Glass",
		Price: decimal.NewFromInt(-1),
	})
	require.Error(t, err)
}

func TestReserveDecrementsStock(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateProductParams{
		Name:  "Baterai Samsung A52",
		Price: decimal.NewFromInt(150000),
		Stock: 5,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Reserve(ctx, db, product.ProductID, 3))

	got, err := svc.GetByID(ctx, product.ProductID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Stock)
}

func TestReserveInsufficientStock(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateProductParams{
		Name:  "LCD Xiaomi Redmi Note 10",
		Price: decimal.NewFromInt(350000),
		Stock: 2,
	})
	require.NoError(t, err)

	err = svc.Reserve(ctx, db, product.ProductID, 3)
	require.Error(t, err)

	var baseErr errutil.BaseError
	require.ErrorAs(t, err, &baseErr)
	require.Equal(t, errutil.StatusBadRequest, baseErr.Code)

	// stock must be untouched after a failed reservation
	got, err := svc.GetByID(ctx, product.ProductID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Stock)
}

func TestReleaseRestoresStock(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateProductParams{
		Name:  "Kabel Data Type-C",
		Price: decimal.NewFromInt(25000),
		Stock: 1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Reserve(ctx, db, product.ProductID, 1))
	require.NoError(t, svc.Release(ctx, db, product.ProductID, 1))

	got, err := svc.GetByID(ctx, product.ProductID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Stock)
}

func TestUpdateProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateProductParams{
		Name:  "Charger 20W",
		Price: decimal.NewFromInt(99000),
		Stock: 4,
	})
	require.NoError(t, err)

	newName := "Charger 20W Original"
	newPrice := decimal.NewFromInt(120000)
	updated, err := svc.Update(ctx, product.ProductID, UpdateProductParams{
		Name:  &newName,
		Price: &newPrice,
	})
	require.NoError(t, err)
	require.Equal(t, "charger-20w-original", updated.Slug)
	require.True(t, updated.Price.Equal(newPrice))
}
