package target

import (
	"chicha-platform/pkg/server"
	"chicha-platform/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("target.service",
	fx.Provide(NewService),
	fx.Provide(NewHandler),
	fx.Invoke(registerRoutes),
)

// Worker binds the target:recompute task handler onto the asynq mux.
var Worker = fx.Module("target.worker",
	fx.Invoke(registerTaskHandlers),
)

func registerRoutes(r *server.Router, h *Handler) {
	r.API.GET("/targets/:user_id", h.GetByUser)
}

func registerTaskHandlers(mux *asynq.ServeMux, service *Service) {
	mux.HandleFunc(taskname.TargetRecompute, service.HandleRecomputeTask)
}
