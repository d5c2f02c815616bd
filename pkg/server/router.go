package server

import (
	"chicha-platform/pkg/config"
	"chicha-platform/pkg/health"
	"chicha-platform/pkg/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// Router groups the public and admin route trees; service handlers attach
// themselves to API or Admin during fx startup.
type Router struct {
	Engine *gin.Engine
	API    *gin.RouterGroup
	Admin  *gin.RouterGroup
}

type RouterParams struct {
	fx.In
	Config   *config.Config
	Enforcer *casbin.Enforcer
	Health   health.HealthService
}

func NewRouter(p RouterParams) *Router {
	if p.Config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.Error())

	engine.GET("/healthz", p.Health.Liveness)
	engine.GET("/readyz", p.Health.Readiness)

	api := engine.Group("/api/v1")
	admin := api.Group("/admin", middleware.Authorize(p.Enforcer))

	return &Router{
		Engine: engine,
		API:    api,
		Admin:  admin,
	}
}
