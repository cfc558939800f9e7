package handlers

import (
	"net/http"

	"appointly/models"
	"appointly/services/admin"
	"appointly/services/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler encapsulates elevated admin-level operations.
type AdminHandler struct {
	Admin     admin.AdminService
	Providers provider.ProviderService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(as admin.AdminService, ps provider.ProviderService) *AdminHandler {
	return &AdminHandler{Admin: as, Providers: ps}
}

func (ah *AdminHandler) StatsHandler(c *gin.Context) {
	stats, err := ah.Admin.Stats(c.Request.Context())
	if err != nil {
		getLogger(c).Error("Failed to build dashboard stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (ah *AdminHandler) UsersHandler(c *gin.Context) {
	var q struct {
		Role  string `form:"role"`
		Limit int64  `form:"limit"`
		Skip  int64  `form:"skip"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	users, err := ah.Admin.ListUsers(c.Request.Context(), q.Role, q.Limit, q.Skip)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (ah *AdminHandler) ProvidersHandler(c *gin.Context) {
	var criteria models.ProviderSearch
	if err := c.ShouldBindQuery(&criteria); err != nil {
		badRequest(c, err)
		return
	}
	providers, err := ah.Admin.ListProviders(c.Request.Context(), criteria)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

func (ah *AdminHandler) BookingsHandler(c *gin.Context) {
	var q struct {
		CustomerID string `form:"customerId"`
		ProviderID string `form:"providerId"`
		Status     string `form:"status"`
		Date       string `form:"date"`
		Limit      int64  `form:"limit"`
		Skip       int64  `form:"skip"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	bookings, err := ah.Admin.ListBookings(c.Request.Context(), models.BookingFilter{
		CustomerID: q.CustomerID,
		ProviderID: q.ProviderID,
		Status:     q.Status,
		Date:       q.Date,
		Limit:      q.Limit,
		Skip:       q.Skip,
	})
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (ah *AdminHandler) VerifyProviderHandler(c *gin.Context) {
	var req struct {
		Verified *bool `json:"verified" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := ah.Providers.SetVerified(c.Request.Context(), c.Param("id"), *req.Verified)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// LegalHandler is public: ?audience=customer|provider narrows the documents.
func (ah *AdminHandler) LegalHandler(c *gin.Context) {
	audience := c.Query("audience")
	if audience == "" {
		c.JSON(http.StatusOK, gin.H{"sections": ah.Admin.GetLegalSections()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": ah.Admin.GetLegalSectionsFor(audience)})
}
