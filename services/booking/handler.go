package booking

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
	var params CreateBookingParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	params.UserID = middleware.UserID(c)

	booking, err := h.service.Create(c.Request.Context(), params)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

func (h *Handler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.Error(errutil.Unauthorized("user identity is required", nil))
		return
	}

	bookings, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) SetStatus(c *gin.Context) {
	var params SetStatusParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	booking, err := h.service.SetStatus(c.Request.Context(), c.Param("booking_id"), params)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, booking)
}
