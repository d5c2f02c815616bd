package voucher

import (
	"context"
	"strings"
	"time"

	"chicha-platform/pkg/db/option"
	"chicha-platform/pkg/errutil"
	"chicha-platform/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var oneHundred = decimal.NewFromInt(100)

type Service struct {
	db    *gorm.DB
	node  *snowflake.Node
	store repository.Repository[Voucher]
	usage repository.Repository[VoucherUsage]
}

type ServiceParams struct {
	fx.In

	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:    p.DB,
		node:  p.Node,
		store: repository.ProvideStore[Voucher](p.DB),
		usage: repository.ProvideStore[VoucherUsage](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, params CreateVoucherParams) (*Voucher, error) {
	code := strings.ToUpper(strings.TrimSpace(params.Code))
	if code == "" {
		return nil, errutil.BadRequest("code is required", nil)
	}

	switch params.DiscountType {
	case DiscountPercentage, DiscountFixed:
	default:
		return nil, errutil.BadRequest("discount_type must be percentage or fixed", nil)
	}

	if params.Value.IsNegative() || params.Value.IsZero() {
		return nil, errutil.BadRequest("value must be positive", nil)
	}
	if params.Quota <= 0 {
		return nil, errutil.BadRequest("quota must be positive", nil)
	}
	if !params.ValidUntil.After(params.ValidFrom) {
		return nil, errutil.BadRequest("valid_until must be after valid_from", nil)
	}

	existing, err := s.store.FindOne(ctx, &Voucher{Code: code})
	if err != nil {
		return nil, errutil.Internal("failed to check voucher code", err)
	}
	if existing != nil {
		return nil, errutil.Conflict("voucher code already exists", nil)
	}

	isActive := true
	if params.IsActive != nil {
		isActive = *params.IsActive
	}

	voucher := &Voucher{
		VoucherID:    s.node.Generate().String(),
		Code:         code,
		Name:         params.Name,
		DiscountType: params.DiscountType,
		Value:        params.Value,
		MinPurchase:  params.MinPurchase,
		Quota:        params.Quota,
		ValidFrom:    params.ValidFrom,
		ValidUntil:   params.ValidUntil,
		IsActive:     isActive,
	}
	if params.MaxDiscount != nil {
		voucher.MaxDiscount = decimal.NewNullDecimal(*params.MaxDiscount)
	}

	if err := s.store.Create(ctx, voucher); err != nil {
		return nil, errutil.Internal("failed to create voucher", err)
	}

	return voucher, nil
}

func (s *Service) List(ctx context.Context) ([]*Voucher, error) {
	vouchers, err := s.store.Find(ctx, &Voucher{}, option.WithSortBy(option.QuerySortBy{}))
	if err != nil {
		return nil, errutil.Internal("failed to list vouchers", err)
	}
	return vouchers, nil
}

// Validate runs the eligibility checks in a fixed order and, when the
// voucher qualifies, returns the quoted discount. Error messages are
// user-facing and intentionally in Bahasa Indonesia.
func (s *Service) Validate(ctx context.Context, code, userID string, subtotal decimal.Decimal) (*Quote, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	voucher, err := s.store.FindOne(ctx, &Voucher{Code: code})
	if err != nil {
		return nil, errutil.Internal("failed to fetch voucher", err)
	}
	if voucher == nil {
		return nil, errutil.NotFound("voucher tidak ditemukan", nil)
	}

	if !voucher.IsActive {
		return nil, errutil.BadRequest("voucher tidak aktif", nil)
	}

	now := time.Now()
	if now.Before(voucher.ValidFrom) {
		return nil, errutil.BadRequest("voucher belum berlaku", nil)
	}
	if now.After(voucher.ValidUntil) {
		return nil, errutil.BadRequest("voucher sudah kadaluarsa", nil)
	}

	if voucher.Used >= voucher.Quota {
		return nil, errutil.BadRequest("kuota voucher sudah habis", nil)
	}

	if subtotal.LessThan(voucher.MinPurchase) {
		return nil, errutil.BadRequest("minimal pembelian tidak terpenuhi", nil)
	}

	if userID != "" {
		used, err := s.usage.FindOne(ctx, &VoucherUsage{VoucherID: voucher.VoucherID, UserID: userID})
		if err != nil {
			return nil, errutil.Internal("failed to check voucher usage", err)
		}
		if used != nil {
			return nil, errutil.Conflict("voucher sudah pernah digunakan", nil)
		}
	}

	return &Quote{
		Voucher:        voucher,
		DiscountAmount: s.discountFor(voucher, subtotal),
	}, nil
}

func (s *Service) discountFor(voucher *Voucher, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal

	switch voucher.DiscountType {
	case DiscountPercentage:
		discount = subtotal.Mul(voucher.Value).Div(oneHundred)
		if voucher.MaxDiscount.Valid && discount.GreaterThan(voucher.MaxDiscount.Decimal) {
			discount = voucher.MaxDiscount.Decimal
		}
	case DiscountFixed:
		discount = voucher.Value
	}

	// discount can never exceed the subtotal
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	return discount.Round(2)
}

// Claim consumes one unit of quota and records the per-user usage inside
// the caller's transaction. The quota increment is conditional so two
// concurrent checkouts cannot oversell the voucher.
func (s *Service) Claim(ctx context.Context, tx *gorm.DB, voucherID, userID, orderID string) error {
	result := tx.WithContext(ctx).Model(&Voucher{}).
		Where("voucher_id = ? AND used < quota", voucherID).
		Update("used", gorm.Expr("used + 1"))
	if result.Error != nil {
		return errutil.Internal("failed to claim voucher quota", result.Error)
	}
	if result.RowsAffected == 0 {
		return errutil.BadRequest("kuota voucher sudah habis", nil)
	}

	usage := &VoucherUsage{
		UsageID:   s.node.Generate().String(),
		VoucherID: voucherID,
		UserID:    userID,
		OrderID:   orderID,
		UsedAt:    time.Now(),
	}
	if err := s.usage.WithTrx(tx).Create(ctx, usage); err != nil {
		// unique (voucher_id, user_id) guards the race between two
		// checkouts by the same user
		return errutil.Conflict("voucher sudah pernah digunakan", err)
	}

	return nil
}
