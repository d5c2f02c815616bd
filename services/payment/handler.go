package payment

import (
	"net/http"

	"chicha-platform/pkg/errutil"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Notify is the gateway-facing webhook endpoint. The gateway retries on
// anything but 2xx, so replays must come back 200.
func (h *Handler) Notify(c *gin.Context) {
	var n Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		c.Error(errutil.BadRequest("invalid notification payload", err))
		return
	}

	ord, err := h.service.HandleNotification(c.Request.Context(), n)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_code":     ord.OrderCode,
		"payment_status": ord.PaymentStatus,
		"status":         ord.Status,
	})
}
