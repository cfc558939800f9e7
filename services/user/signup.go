package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"appointly/database/repository"
	"appointly/models"
	"appointly/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified customer account and texts a verification
// code. When only the text fails, the account is returned together with
// ErrOTPDelivery so the caller can offer a resend.
func (s *DefaultUserService) Register(ctx context.Context, req models.UserRegistration) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		return nil, fmt.Errorf("all fields are required")
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	existing, err := s.Repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger().Error("Register: failed to check for existing user", zap.Error(err))
		return nil, fmt.Errorf("registration failed, please try again")
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	u := &models.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: string(hashed),
		Role:         models.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger().Info("User registered", zap.String("userId", u.ID))

	if err := s.sendCode(ctx, u); err != nil {
		return u, err
	}
	return u, nil
}

func (s *DefaultUserService) sendCode(ctx context.Context, u *models.User) error {
	code, err := s.OTP.Issue(ctx, otpPurposeRegister, u.ID)
	if err != nil {
		s.logger().Error("Failed to issue OTP", zap.String("userId", u.ID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}
	if err := s.Sender.SendOTP(ctx, u.Phone, code, s.OTP.TTL()); err != nil {
		s.logger().Error("Failed to send OTP", zap.String("userId", u.ID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}
	return nil
}

// ResendOTP issues a fresh code to an unverified account.
func (s *DefaultUserService) ResendOTP(ctx context.Context, email string) error {
	u, err := s.lookupEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.PhoneVerified {
		return ErrAlreadyVerified
	}
	return s.sendCode(ctx, u)
}

// VerifyPhone checks the code, marks the phone verified and signs the user in.
func (s *DefaultUserService) VerifyPhone(ctx context.Context, email, code string) (*AuthResponse, error) {
	u, err := s.lookupEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u.PhoneVerified {
		return nil, ErrAlreadyVerified
	}

	if err := s.OTP.Verify(ctx, otpPurposeRegister, u.ID, strings.TrimSpace(code)); err != nil {
		switch {
		case errors.Is(err, utils.ErrOTPMismatch), errors.Is(err, utils.ErrOTPNotFound), errors.Is(err, utils.ErrOTPTooManyAttempts):
			return nil, fmt.Errorf("%w: %v", ErrInvalidOTP, err)
		default:
			return nil, fmt.Errorf("failed to verify code: %w", err)
		}
	}

	u.PhoneVerified = true
	u.UpdatedAt = time.Now()
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.logger().Info("Phone verified", zap.String("userId", u.ID))
	return s.issueToken(u)
}

func (s *DefaultUserService) lookupEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}
