package voucher

import (
	"net/http"

	"chicha-platform/pkg/errutil"
	"chicha-platform/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type validateRequest struct {
	Code     string          `json:"code" binding:"required"`
	Subtotal decimal.Decimal `json:"subtotal" binding:"required"`
}

func (h *Handler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	quote, err := h.service.Validate(c.Request.Context(), req.Code, middleware.UserID(c), req.Subtotal)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

func (h *Handler) Create(c *gin.Context) {
	var params CreateVoucherParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	voucher, err := h.service.Create(c.Request.Context(), params)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, voucher)
}

func (h *Handler) List(c *gin.Context) {
	vouchers, err := h.service.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vouchers": vouchers})
}
