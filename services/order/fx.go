package order

import (
	"chicha-platform/pkg/server"

	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(NewService),
	fx.Provide(NewHandler),
	fx.Invoke(registerRoutes),
)

func registerRoutes(r *server.Router, h *Handler) {
	r.API.POST("/orders", h.Create)
	r.API.GET("/orders", h.List)
	r.API.GET("/orders/:order_id", h.Get)

	r.Admin.PATCH("/orders/:order_id/status", h.SetStatus)
}
