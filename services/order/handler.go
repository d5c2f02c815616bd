package order

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

func (h *Handler) Create(c *gin.Context) {
	var params CreateOrderParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	params.UserID = middleware.UserID(c)

	order, err := h.service.Create(c.Request.Context(), params)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *Handler) Get(c *gin.Context) {
	order, err := h.service.GetByID(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		c.Error(err)
		return
	}

	if userID := middleware.UserID(c); userID != "" && order.UserID != userID {
		c.Error(errutil.NotFound("order not found", nil))
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.Error(errutil.Unauthorized("user identity is required", nil))
		return
	}

	orders, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type setStatusRequest struct {
	Status Status `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

func (h *Handler) SetStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	order, err := h.service.SetStatus(c.Request.Context(), c.Param("order_id"), req.Status, req.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, order)
}
