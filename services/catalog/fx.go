package catalog

import (
	"chicha-platform/pkg/server"

	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(NewService),
	fx.Provide(NewHandler),
	fx.Invoke(registerRoutes),
)

func registerRoutes(r *server.Router, h *Handler) {
	r.API.GET("/products", h.List)
	r.API.GET("/products/:slug", h.GetBySlug)

	r.Admin.POST("/products", h.Create)
	r.Admin.PATCH("/products/:product_id", h.Update)
}
