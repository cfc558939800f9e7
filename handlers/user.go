package handlers

import (
	"errors"
	"net/http"

	"appointly/middleware"
	"appointly/models"
	"appointly/services/user"

	"github.com/gin-gonic/gin"
)

// UserHandler serves account registration and sign-in.
type UserHandler struct {
	Users user.UserService
}

func NewUserHandler(us user.UserService) *UserHandler {
	return &UserHandler{Users: us}
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterHandler creates an account and texts a verification code.
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req models.UserRegistration
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.Users.Register(c.Request.Context(), req)
	if err != nil && errors.Is(err, user.ErrOTPDelivery) && u != nil {
		c.JSON(http.StatusCreated, gin.H{
			"user":    u,
			"warning": "account created but the verification code could not be sent; request a new one",
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u, "message": "verification code sent"})
}

func (h *UserHandler) VerifyOTPHandler(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	auth, err := h.Users.VerifyPhone(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, auth)
}

func (h *UserHandler) ResendOTPHandler(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.Users.ResendOTP(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
}

func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	auth, err := h.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, auth)
}

// MeHandler returns the authenticated user's profile.
func (h *UserHandler) MeHandler(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	u, err := h.Users.GetUserByID(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
