package handlers

import (
	"net/http"

	"appointly/models"
	"appointly/services/booking"

	"github.com/gin-gonic/gin"
)

// BookingHandler exposes the booking lifecycle.
type BookingHandler struct {
	Bookings booking.BookingService
}

func NewBookingHandler(bs booking.BookingService) *BookingHandler {
	return &BookingHandler{Bookings: bs}
}

type createBookingRequest struct {
	ProviderID  string `json:"providerId" binding:"required"`
	ServiceName string `json:"serviceName" binding:"required"`
	Date        string `json:"date" binding:"required"`
	StartTime   string `json:"startTime" binding:"required"`
	Notes       string `json:"notes"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type rescheduleRequest struct {
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	Reason    string `json:"reason"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type listQuery struct {
	As     string `form:"as"` // "provider" lists the caller's provider bookings
	Status string `form:"status"`
	Date   string `form:"date"`
	Limit  int64  `form:"limit"`
	Skip   int64  `form:"skip"`
}

// CreateHandler books a slot for the caller. The booking stays pending until paid.
func (h *BookingHandler) CreateHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.Bookings.Create(c.Request.Context(), booking.CreateRequest{
		CustomerID:  actor.UserID,
		ProviderID:  req.ProviderID,
		ServiceName: req.ServiceName,
		Date:        req.Date,
		StartTime:   req.StartTime,
		Notes:       req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) ListHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	filter := models.BookingFilter{Status: q.Status, Date: q.Date, Limit: q.Limit, Skip: q.Skip}

	var (
		out []models.Booking
		err error
	)
	if q.As == models.RoleProvider {
		out, err = h.Bookings.ListForProvider(c.Request.Context(), actor, filter)
	} else {
		out, err = h.Bookings.ListForCustomer(c.Request.Context(), actor, filter)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

func (h *BookingHandler) GetHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	b, err := h.Bookings.GetByID(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) RefundQuoteHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	q, err := h.Bookings.RefundQuote(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *BookingHandler) PaymentIntentHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	intent, err := h.Bookings.CreatePaymentIntent(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}

// PaymentSyncHandler asks the processor for the current payment state, for
// clients that finished checkout before the webhook arrived.
func (h *BookingHandler) PaymentSyncHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	b, err := h.Bookings.SyncPayment(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) CancelHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req reasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	b, err := h.Bookings.Cancel(c.Request.Context(), c.Param("id"), actor, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) RescheduleHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.Bookings.Reschedule(c.Request.Context(), c.Param("id"), actor, req.Date, req.StartTime, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) RefundHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	b, err := h.Bookings.ProcessRefund(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) UpdateStatusHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.Bookings.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
