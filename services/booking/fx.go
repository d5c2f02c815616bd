package booking

import (
	"chicha-platform/pkg/server"

	"go.uber.org/fx"
)

var Module = fx.Module("booking.service",
	fx.Provide(NewService),
	fx.Provide(NewHandler),
	fx.Invoke(registerRoutes),
)

func registerRoutes(r *server.Router, h *Handler) {
	r.API.POST("/bookings", h.Create)
	r.API.GET("/bookings", h.List)

	r.Admin.PATCH("/bookings/:booking_id/status", h.SetStatus)
}
