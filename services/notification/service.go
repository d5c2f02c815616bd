package notification

import (
	"context"
	"encoding/json"
	"time"

	"chicha-platform/pkg/errutil"
	"chicha-platform/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	node  *snowflake.Node
	store repository.Repository[Notification]
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
		store: repository.ProvideStore[Notification](p.DB),
	}
}

// Record persists a notification row for the user's inbox.
func (s *Service) Record(ctx context.Context, msg Message) (*Notification, error) {
	n := &Notification{
		NotificationID: s.node.Generate().String(),
		UserID:         msg.UserID,
		Kind:           msg.Kind,
		Title:          msg.Title,
		Body:           msg.Body,
	}
	if len(msg.Metadata) > 0 {
		raw, err := json.Marshal(msg.Metadata)
		if err != nil {
			return nil, errutil.Internal("failed to encode notification metadata", err)
		}
		n.Metadata = datatypes.JSON(raw)
	}

	if err := s.store.Create(ctx, n); err != nil {
		return nil, errutil.Internal("failed to store notification", err)
	}

	return n, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Notification, error) {
	notifications, err := s.store.Find(ctx, &Notification{UserID: userID})
	if err != nil {
		return nil, errutil.Internal("failed to list notifications", err)
	}
	return notifications, nil
}

func (s *Service) MarkRead(ctx context.Context, notificationID, userID string) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&Notification{}).
		Where("notification_id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", now)
	if result.Error != nil {
		return errutil.Internal("failed to mark notification read", result.Error)
	}
	if result.RowsAffected == 0 {
		return errutil.NotFound("notification not found", nil)
	}
	return nil
}

// HandleSendTask is the asynq worker entrypoint for notification:send.
func (s *Service) HandleSendTask(ctx context.Context, t *asynq.Task) error {
	var msg Message
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		zap.L().Error("invalid notification payload", zap.Error(err))
		return err
	}

	if _, err := s.Record(ctx, msg); err != nil {
		return err
	}

	zap.L().Info("notification delivered",
		zap.String("user_id", msg.UserID),
		zap.String("kind", msg.Kind),
	)

	return nil
}
