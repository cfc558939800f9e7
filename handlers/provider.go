package handlers

import (
	"net/http"
	"time"

	"appointly/middleware"
	"appointly/models"
	"appointly/services/booking"
	"appointly/services/provider"
	"appointly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxImageBytes = 5 << 20

// ProviderHandler serves provider profiles, schedules and availability.
type ProviderHandler struct {
	Providers provider.ProviderService
	Bookings  booking.BookingService
	TokenTTL  time.Duration
}

func NewProviderHandler(ps provider.ProviderService, bs booking.BookingService, tokenTTL time.Duration) *ProviderHandler {
	return &ProviderHandler{Providers: ps, Bookings: bs, TokenTTL: tokenTTL}
}

func mustActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return actor, ok
}

// RegisterHandler turns the caller into a provider. The response carries a
// fresh token because the role claim of the old one is now stale.
func (h *ProviderHandler) RegisterHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req models.ProviderRegistration
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.Providers.Register(c.Request.Context(), actor.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	token, err := utils.GenerateToken(actor.UserID, c.GetString(middleware.ContextEmail), models.RoleProvider, ttl)
	if err != nil {
		getLogger(c).Error("Failed to issue provider token", zap.Error(err))
		c.JSON(http.StatusCreated, gin.H{"provider": p})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"provider": p, "token": token})
}

func (h *ProviderHandler) SearchHandler(c *gin.Context) {
	var criteria models.ProviderSearch
	if err := c.ShouldBindQuery(&criteria); err != nil {
		badRequest(c, err)
		return
	}
	providers, err := h.Providers.Search(c.Request.Context(), criteria)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

func (h *ProviderHandler) GetByIDHandler(c *gin.Context) {
	p, err := h.Providers.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProviderHandler) GetMineHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	p, err := h.Providers.GetByOwnerID(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SlotsHandler lists the provider's slots for ?date=YYYY-MM-DD.
func (h *ProviderHandler) SlotsHandler(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.JSONCodedError(c, http.StatusBadRequest, booking.CodeValidation, "date is required", "")
		return
	}
	slots, err := h.Bookings.GetAvailableSlots(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providerId": c.Param("id"), "date": date, "slots": slots})
}

// AvailabilityHandler answers whether ?date=&time= is inside working hours
// and whether it is already held.
func (h *ProviderHandler) AvailabilityHandler(c *gin.Context) {
	date, at := c.Query("date"), c.Query("time")
	if date == "" || at == "" {
		utils.JSONCodedError(c, http.StatusBadRequest, booking.CodeValidation, "date and time are required", "")
		return
	}
	ctx := c.Request.Context()
	providerID := c.Param("id")

	available, err := h.Bookings.IsAvailableAt(ctx, providerID, date, at)
	if err != nil {
		respondError(c, err)
		return
	}
	conflict, err := h.Bookings.HasConflict(ctx, providerID, date, at, "")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"available": available,
		"conflict":  conflict,
		"bookable":  available && !conflict,
	})
}

func (h *ProviderHandler) UpdateMeHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var upd models.ProviderUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.Providers.UpdateProfile(c.Request.Context(), actor.UserID, upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProviderHandler) SetWorkingHoursHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req struct {
		WorkingHours []models.WorkingDayTemplate `json:"workingHours" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.Providers.SetWorkingHours(c.Request.Context(), actor.UserID, req.WorkingHours)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProviderHandler) AddBlockedDateHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req models.BlockedDate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.Providers.AddBlockedDate(c.Request.Context(), actor.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProviderHandler) RemoveBlockedDateHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	p, err := h.Providers.RemoveBlockedDate(c.Request.Context(), actor.UserID, c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProviderHandler) UpsertServicesHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req struct {
		Services []models.Service `json:"services" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.Providers.UpsertServices(c.Request.Context(), actor.UserID, req.Services)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UploadImageHandler accepts a multipart "file" field of at most 5 MiB.
func (h *ProviderHandler) UploadImageHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes+1024)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.JSONCodedError(c, http.StatusBadRequest, "invalid_request", "file not provided", err.Error())
		return
	}
	if fileHeader.Size > maxImageBytes {
		utils.JSONCodedError(c, http.StatusRequestEntityTooLarge, "file_too_large", "image must be 5 MiB or smaller", "")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to read file", err.Error())
		return
	}
	defer file.Close()

	p, err := h.Providers.UploadProfileImage(c.Request.Context(), actor.UserID, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
