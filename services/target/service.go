package target

import (
	"context"
	"encoding/json"

	"chicha-platform/pkg/config"
	"chicha-platform/pkg/errutil"
	"chicha-platform/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db            *gorm.DB
	node          *snowflake.Node
	store         repository.Repository[Target]
	defaultAmount decimal.Decimal
}

type ServiceParams struct {
	fx.In

	DB     *gorm.DB
	Node   *snowflake.Node
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	defaultAmount, err := decimal.NewFromString(p.Config.Target.DefaultAmount)
	if err != nil || defaultAmount.IsZero() {
		defaultAmount = decimal.NewFromInt(5_000_000)
	}

	return &Service{
		db:            p.DB,
		node:          p.Node,
		store:         repository.ProvideStore[Target](p.DB),
		defaultAmount: defaultAmount,
	}
}

// EnsureTarget returns the user's spending target, creating one with the
// configured default amount on first touch.
func (s *Service) EnsureTarget(ctx context.Context, userID string) (*Target, error) {
	target, err := s.store.FindOne(ctx, &Target{UserID: userID})
	if err != nil {
		return nil, errutil.Internal("failed to fetch target", err)
	}
	if target != nil {
		return target, nil
	}

	target = &Target{
		TargetID:      s.node.Generate().String(),
		UserID:        userID,
		TargetAmount:  s.defaultAmount,
		CurrentAmount: decimal.Zero,
		Status:        StatusActive,
	}
	if err := s.store.Create(ctx, target); err != nil {
		// lost a race with a concurrent recompute; re-read
		existing, ferr := s.store.FindOne(ctx, &Target{UserID: userID})
		if ferr == nil && existing != nil {
			return existing, nil
		}
		return nil, errutil.Internal("failed to create target", err)
	}

	return target, nil
}

func (s *Service) GetByUser(ctx context.Context, userID string) (*Target, error) {
	target, err := s.store.FindOne(ctx, &Target{UserID: userID})
	if err != nil {
		return nil, errutil.Internal("failed to fetch target", err)
	}
	if target == nil {
		return nil, errutil.NotFound("target not found", nil)
	}
	return target, nil
}

// Recompute re-derives current_amount from the user's completed orders.
// Once a target reaches achieved it never falls back to active, even if the
// recomputed amount drops below target_amount.
func (s *Service) Recompute(ctx context.Context, userID string) (*Target, error) {
	target, err := s.EnsureTarget(ctx, userID)
	if err != nil {
		return nil, err
	}

	var total decimal.Decimal
	row := s.db.WithContext(ctx).
		Table("orders").
		Where("user_id = ? AND status = ?", userID, "completed").
		Select("COALESCE(SUM(total_amount), 0)").
		Row()
	if err := row.Scan(&total); err != nil {
		return nil, errutil.Internal("failed to sum completed orders", err)
	}

	status := target.Status
	if status != StatusAchieved && total.GreaterThanOrEqual(target.TargetAmount) {
		status = StatusAchieved
	}

	updates := map[string]any{
		"current_amount": total,
		"status":         status,
	}
	if err := s.store.Update(ctx, target.TargetID, updates); err != nil {
		return nil, errutil.Internal("failed to update target", err)
	}

	target.CurrentAmount = total
	target.Status = status

	return target, nil
}

// HandleRecomputeTask is the asynq worker entrypoint for target:recompute.
func (s *Service) HandleRecomputeTask(ctx context.Context, t *asynq.Task) error {
	var payload RecomputePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		zap.L().Error("invalid recompute payload", zap.Error(err))
		return err
	}

	target, err := s.Recompute(ctx, payload.UserID)
	if err != nil {
		return err
	}

	zap.L().Info("target recomputed",
		zap.String("user_id", payload.UserID),
		zap.String("current_amount", target.CurrentAmount.String()),
		zap.String("status", string(target.Status)),
	)

	return nil
}
