package middleware

import (
	"net/http"

	"chicha-platform/pkg/config"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("authz",
	fx.Provide(ProvideEnforcer),
)

const (
	HeaderUserRole = "X-User-Role"
	HeaderUserID   = "X-User-Id"
)

// ProvideEnforcer loads the casbin model and policy configured under
// ACCESS_CONTROL. Session issuance lives outside this service, so the
// authenticated role arrives as a trusted gateway header.
func ProvideEnforcer(cfg *config.Config) (*casbin.Enforcer, error) {
	enforcer, err := casbin.NewEnforcer(cfg.AccessControl.Model, cfg.AccessControl.Policy)
	if err != nil {
		zap.L().Error("failed to load access control policy", zap.Error(err))
		return nil, err
	}
	return enforcer, nil
}

func Authorize(enforcer *casbin.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetHeader(HeaderUserRole)
		if role == "" {
			role = "anonymous"
		}

		ok, err := enforcer.Enforce(role, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			zap.L().Error("authorization check failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "authorization check failed"}})
			return
		}

		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": gin.H{"message": "forbidden"}})
			return
		}

		c.Next()
	}
}

// UserID pulls the authenticated subject injected by the session gateway.
func UserID(c *gin.Context) string {
	return c.GetHeader(HeaderUserID)
}
