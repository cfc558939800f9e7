package user

import (
	"context"
	"errors"
	"time"

	userRepo "appointly/database/repository/user"
	"appointly/models"

	"go.uber.org/zap"
)

type UserService interface {
	// Registration
	Register(ctx context.Context, req models.UserRegistration) (*models.User, error)
	VerifyPhone(ctx context.Context, email, code string) (*AuthResponse, error)
	ResendOTP(ctx context.Context, email string) error

	// Authentication
	Login(ctx context.Context, email, password string) (*AuthResponse, error)

	// User Management
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// OTPStore issues and checks one-time codes.
type OTPStore interface {
	Issue(ctx context.Context, purpose, subject string) (string, error)
	Verify(ctx context.Context, purpose, subject, provided string) error
	TTL() time.Duration
}

// OTPSender delivers a one-time code to a phone.
type OTPSender interface {
	SendOTP(ctx context.Context, phone, code string, ttl time.Duration) error
}

// DefaultUserService is the production implementation.
type DefaultUserService struct {
	Repo     userRepo.UserRepository
	OTP      OTPStore
	Sender   OTPSender
	TokenTTL time.Duration
	Logger   *zap.Logger
}

// AuthResponse contains the user's ID, token, and additional details.
type AuthResponse struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
}

var (
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPhoneNotVerified   = errors.New("phone number is not verified")
	ErrAlreadyVerified    = errors.New("phone number is already verified")
	ErrInvalidOTP         = errors.New("invalid or expired code")
	ErrOTPDelivery        = errors.New("could not send verification code")
	ErrUserNotFound       = errors.New("user not found")
)

const otpPurposeRegister = "register"

func (s *DefaultUserService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DefaultUserService) tokenTTL() time.Duration {
	if s.TokenTTL <= 0 {
		return 72 * time.Hour
	}
	return s.TokenTTL
}
