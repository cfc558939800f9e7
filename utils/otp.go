package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var (
	ErrOTPNotFound        = errors.New("OTP not found or expired")
	ErrOTPMismatch        = errors.New("OTP does not match")
	ErrOTPTooManyAttempts = errors.New("too many OTP attempts")
)

// MaxOTPAttempts is how many wrong codes are tolerated before the OTP is burned.
const MaxOTPAttempts = 5

// OTPStore keeps one active numeric code per subject in Redis.
type OTPStore struct {
	client *redis.Client
	ttl    time.Duration
	length int
}

// NewOTPStore creates an OTPStore with 6-digit codes.
func NewOTPStore(client *redis.Client, ttl time.Duration) *OTPStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &OTPStore{client: client, ttl: ttl, length: 6}
}

// TTL returns how long a code stays valid.
func (s *OTPStore) TTL() time.Duration { return s.ttl }

func otpKey(purpose, subject string) string {
	return fmt.Sprintf("otp:%s:%s", purpose, subject)
}

func otpAttemptsKey(purpose, subject string) string {
	return fmt.Sprintf("otp:attempts:%s:%s", purpose, subject)
}

// generateNumericOTP returns a uniformly random code of the given number of digits.
func generateNumericOTP(length int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

// Issue creates a fresh code for subject, replacing any previous one.
func (s *OTPStore) Issue(ctx context.Context, purpose, subject string) (string, error) {
	code, err := generateNumericOTP(s.length)
	if err != nil {
		return "", err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, otpKey(purpose, subject), code, s.ttl)
	pipe.Del(ctx, otpAttemptsKey(purpose, subject))
	if _, err := pipe.Exec(ctx); err != nil {
		GetLogger().Error("Failed to cache OTP", zap.Error(err))
		return "", fmt.Errorf("failed to store OTP: %w", err)
	}
	return code, nil
}

// Verify compares provided against the stored code and deletes it on success.
func (s *OTPStore) Verify(ctx context.Context, purpose, subject, provided string) error {
	key := otpKey(purpose, subject)
	stored, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrOTPNotFound
		}
		return fmt.Errorf("failed to retrieve OTP: %w", err)
	}

	if stored != provided {
		attemptsKey := otpAttemptsKey(purpose, subject)
		attempts, err := s.client.Incr(ctx, attemptsKey).Result()
		if err != nil {
			return fmt.Errorf("failed to record OTP attempt: %w", err)
		}
		s.client.Expire(ctx, attemptsKey, s.ttl)
		if attempts >= MaxOTPAttempts {
			s.client.Del(ctx, key, attemptsKey)
			return ErrOTPTooManyAttempts
		}
		return ErrOTPMismatch
	}

	if err := s.client.Del(ctx, key, otpAttemptsKey(purpose, subject)).Err(); err != nil {
		GetLogger().Error("Failed to delete OTP after verification", zap.Error(err))
	}
	return nil
}
