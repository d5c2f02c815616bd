package payment

import (
	"chicha-platform/pkg/server"

	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(NewService),
	fx.Provide(NewHandler),
	fx.Invoke(registerRoutes),
)

func registerRoutes(r *server.Router, h *Handler) {
	r.API.POST("/payments/notification", h.Notify)
}
