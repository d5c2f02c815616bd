package catalog

import (
	"context"
	"encoding/json"
	"time"

	"chicha-platform/pkg/db/option"
	"chicha-platform/pkg/errutil"
	"chicha-platform/pkg/rediskey"
	"chicha-platform/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const productCacheTTL = time.Minute

type Service struct {
	db    *gorm.DB
	node  *snowflake.Node
	rdb   *redis.Client
	store repository.Repository[Product]
}

type ServiceParams struct {
	fx.In

	DB    *gorm.DB
	Node  *snowflake.Node
	Redis *redis.Client
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:    p.DB,
		node:  p.Node,
		rdb:   p.Redis,
		store: repository.ProvideStore[Product](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, params CreateProductParams) (*Product, error) {
	if params.Price.IsNegative() {
		return nil, errutil.BadRequest("price must not be negative", nil)
	}
	if params.Stock < 0 {
		return nil, errutil.BadRequest("stock must not be negative", nil)
	}

	productSlug := slug.Make(params.Name)
	existing, err := s.store.FindOne(ctx, &Product{Slug: productSlug})
	if err != nil {
		return nil, errutil.Internal("failed to check product slug", err)
	}
	if existing != nil {
		return nil, errutil.Conflict("product with the same name already exists", nil)
	}

	isActive := true
	if params.IsActive != nil {
		isActive = *params.IsActive
	}

	product := &Product{
		ProductID:   s.node.Generate().String(),
		Name:        params.Name,
		Slug:        productSlug,
		Description: params.Description,
		Category:    params.Category,
		Price:       params.Price,
		Stock:       params.Stock,
		IsActive:    isActive,
	}

	if err := s.store.Create(ctx, product); err != nil {
		return nil, errutil.Internal("failed to create product", err)
	}

	return product, nil
}

func (s *Service) Update(ctx context.Context, productID string, params UpdateProductParams) (*Product, error) {
	product, err := s.store.FindOne(ctx, &Product{ProductID: productID})
	if err != nil {
		return nil, errutil.Internal("failed to fetch product", err)
	}
	if product == nil {
		return nil, errutil.NotFound("product not found", nil)
	}

	updates := map[string]any{}
	if params.Name != nil {
		updates["name"] = *params.Name
		updates["slug"] = slug.Make(*params.Name)
	}
	if params.Description != nil {
		updates["description"] = *params.Description
	}
	if params.Category != nil {
		updates["category"] = *params.Category
	}
	if params.Price != nil {
		if params.Price.IsNegative() {
			return nil, errutil.BadRequest("price must not be negative", nil)
		}
		updates["price"] = *params.Price
	}
	if params.Stock != nil {
		if *params.Stock < 0 {
			return nil, errutil.BadRequest("stock must not be negative", nil)
		}
		updates["stock"] = *params.Stock
	}
	if params.IsActive != nil {
		updates["is_active"] = *params.IsActive
	}

	if len(updates) == 0 {
		return product, nil
	}

	if err := s.store.Update(ctx, productID, updates); err != nil {
		return nil, errutil.Internal("failed to update product", err)
	}

	s.invalidateCache(ctx, product)

	return s.store.FindOne(ctx, &Product{ProductID: productID})
}

type ListParams struct {
	Category string
	SortBy   string
	OrderBy  string
}

func (s *Service) List(ctx context.Context, params ListParams) ([]*Product, error) {
	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{
			SortBy:  params.SortBy,
			OrderBy: params.OrderBy,
			Allow:   map[string]bool{"created_at": true, "price": true, "name": true},
		}),
	}

	query := &Product{IsActive: true}
	if params.Category != "" {
		query.Category = params.Category
	}

	products, err := s.store.Find(ctx, query, opts...)
	if err != nil {
		return nil, errutil.Internal("failed to list products", err)
	}

	return products, nil
}

// GetByID reads through the Redis cache before hitting the database.
func (s *Service) GetByID(ctx context.Context, productID string) (*Product, error) {
	return s.getCached(ctx, rediskey.BuildProductIDKey(productID), &Product{ProductID: productID})
}

func (s *Service) GetBySlug(ctx context.Context, productSlug string) (*Product, error) {
	return s.getCached(ctx, rediskey.BuildProductSlugKey(productSlug), &Product{Slug: productSlug})
}

func (s *Service) getCached(ctx context.Context, key string, query *Product) (*Product, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var product Product
			if err := json.Unmarshal([]byte(cached), &product); err == nil {
				return &product, nil
			}
		}
	}

	product, err := s.store.FindOne(ctx, query)
	if err != nil {
		return nil, errutil.Internal("failed to fetch product", err)
	}
	if product == nil {
		return nil, errutil.NotFound("product not found", nil)
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(product); err == nil {
			if err := s.rdb.Set(ctx, key, payload, productCacheTTL).Err(); err != nil {
				zap.L().Warn("failed to cache product", zap.String("key", key), zap.Error(err))
			}
		}
	}

	return product, nil
}

func (s *Service) invalidateCache(ctx context.Context, product *Product) {
	if s.rdb == nil || product == nil {
		return
	}
	keys := []string{
		rediskey.BuildProductIDKey(product.ProductID),
		rediskey.BuildProductSlugKey(product.Slug),
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		zap.L().Warn("failed to invalidate product cache", zap.Error(err))
	}
}

// Reserve decrements the stock of a product inside the caller's transaction.
// The decrement is conditional so two concurrent checkouts can never drive
// stock below zero.
func (s *Service) Reserve(ctx context.Context, tx *gorm.DB, productID string, quantity int) error {
	if quantity <= 0 {
		return errutil.BadRequest("quantity must be positive", nil)
	}

	result := tx.WithContext(ctx).Model(&Product{}).
		Where("product_id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return errutil.Internal("failed to reserve stock", result.Error)
	}
	if result.RowsAffected == 0 {
		return errutil.BadRequest("insufficient stock", nil, errutil.WithDetails(errutil.Detail{
			Field:   "product_id",
			Message: productID,
		}))
	}

	s.invalidateByID(ctx, productID)

	return nil
}

// Release returns reserved stock, used when an order is cancelled or a
// payment is rejected by the gateway.
func (s *Service) Release(ctx context.Context, tx *gorm.DB, productID string, quantity int) error {
	if quantity <= 0 {
		return errutil.BadRequest("quantity must be positive", nil)
	}

	if err := tx.WithContext(ctx).Model(&Product{}).
		Where("product_id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", quantity)).Error; err != nil {
		return errutil.Internal("failed to release stock", err)
	}

	s.invalidateByID(ctx, productID)

	return nil
}

func (s *Service) invalidateByID(ctx context.Context, productID string) {
	if s.rdb == nil {
		return
	}
	product, err := s.store.FindOne(ctx, &Product{ProductID: productID})
	if err != nil || product == nil {
		return
	}
	s.invalidateCache(ctx, product)
}

// PriceOf is a convenience used by checkout to snapshot the unit price
// without exposing the whole product.
func (s *Service) PriceOf(ctx context.Context, productID string) (decimal.Decimal, error) {
	product, err := s.GetByID(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return product.Price, nil
}
