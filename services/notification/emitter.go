package notification

import (
	"context"
	"encoding/json"

	"chicha-platform/pkg/task"
	"chicha-platform/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Emitter delivers a notification message to the user. Implementations must
// not block the caller's request path; delivery failures are logged, never
// propagated into business flows.
type Emitter interface {
	Emit(ctx context.Context, msg Message) error
}

type asynqEmitter struct {
	enqueuer task.Enqueuer
}

// NewAsynqEmitter hands messages off to the notifications queue so the
// worker can persist and fan them out outside the request path.
func NewAsynqEmitter(enqueuer task.Enqueuer) Emitter {
	return &asynqEmitter{enqueuer: enqueuer}
}

func (e *asynqEmitter) Emit(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	t := asynq.NewTask(taskname.NotificationSend, payload)
	if _, err := e.enqueuer.Enqueue(t, asynq.Queue("notifications")); err != nil {
		zap.L().Error("failed to enqueue notification",
			zap.String("user_id", msg.UserID),
			zap.String("kind", msg.Kind),
			zap.Error(err),
		)
		return err
	}

	return nil
}
