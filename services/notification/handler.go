package notification

import (
	"net/http"

	"chicha-platform/pkg/errutil"
	"chicha-platform/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.Error(errutil.Unauthorized("user identity is required", nil))
		return
	}

	notifications, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (h *Handler) MarkRead(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.Error(errutil.Unauthorized("user identity is required", nil))
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), c.Param("notification_id"), userID); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
