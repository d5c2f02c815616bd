package voucher

import (
	"chicha-platform/pkg/server"

	"go.uber.org/fx"
)

var Module = fx.Module("voucher.service",
	fx.Provide(NewService),
	fx.Provide(NewHandler),
	fx.Invoke(registerRoutes),
)

func registerRoutes(r *server.Router, h *Handler) {
	r.API.POST("/vouchers/validate", h.Validate)

	r.Admin.POST("/vouchers", h.Create)
	r.Admin.GET("/vouchers", h.List)
}
