package notification

import (
	"chicha-platform/pkg/server"
	"chicha-platform/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(NewService),
	fx.Provide(NewHandler),
	fx.Provide(NewAsynqEmitter),
	fx.Invoke(registerRoutes),
)

// Worker binds the notification:send task handler onto the asynq mux.
var Worker = fx.Module("notification.worker",
	fx.Invoke(registerTaskHandlers),
)

func registerRoutes(r *server.Router, h *Handler) {
	r.API.GET("/notifications", h.List)
	r.API.POST("/notifications/:notification_id/read", h.MarkRead)
}

func registerTaskHandlers(mux *asynq.ServeMux, service *Service) {
	mux.HandleFunc(taskname.NotificationSend, service.HandleSendTask)
}
