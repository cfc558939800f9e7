package user

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"appointly/database/repository"
	"appointly/models"
	"appointly/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func (m *memoryUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUsers) Update(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memoryUsers) List(context.Context, string, int64, int64) ([]models.User, error) {
	return nil, nil
}

func (m *memoryUsers) CountByRole(context.Context) (map[string]int64, error) {
	return nil, nil
}

type capturedCode struct {
	phone string
	code  string
}

type captureSender struct {
	sent []capturedCode
	err  error
}

func (c *captureSender) SendOTP(_ context.Context, phone, code string, _ time.Duration) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, capturedCode{phone, code})
	return nil
}

func (c *captureSender) last() string {
	return c.sent[len(c.sent)-1].code
}

func newTestService(t *testing.T) (*DefaultUserService, *captureSender) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sender := &captureSender{}
	return &DefaultUserService{
		Repo:     &memoryUsers{users: map[string]models.User{}},
		OTP:      utils.NewOTPStore(client, 5*time.Minute),
		Sender:   sender,
		TokenTTL: time.Hour,
	}, sender
}

var registration = models.UserRegistration{
	Name:     "Ann Lee",
	Email:    "Ann@Example.com ",
	Phone:    "+15550001",
	Password: "correct-horse",
}

func TestRegisterVerifyLogin(t *testing.T) {
	svc, sender := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, registration)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, models.RoleCustomer, u.Role)
	assert.False(t, u.PhoneVerified)
	assert.NotEqual(t, registration.Password, u.PasswordHash)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "+15550001", sender.sent[0].phone)

	_, err = svc.Login(ctx, "ann@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrPhoneNotVerified)

	_, err = svc.VerifyPhone(ctx, "ann@example.com", "not-it")
	assert.ErrorIs(t, err, ErrInvalidOTP)

	auth, err := svc.VerifyPhone(ctx, "ANN@example.com", sender.last())
	require.NoError(t, err)
	assert.Equal(t, u.ID, auth.ID)

	claims, err := utils.ParseToken(auth.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, models.RoleCustomer, claims.Role)

	_, err = svc.Login(ctx, "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	again, err := svc.Login(ctx, "ann@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, again.Token)

	assert.ErrorIs(t, svc.ResendOTP(ctx, "ann@example.com"), ErrAlreadyVerified)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registration)
	require.NoError(t, err)

	dup := registration
	dup.Email = "ann@example.com"
	_, err = svc.Register(ctx, dup)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	short := registration
	short.Password = "short"
	_, err := svc.Register(context.Background(), short)
	assert.Error(t, err)

	missing := registration
	missing.Name = " "
	_, err = svc.Register(context.Background(), missing)
	assert.Error(t, err)
}

func TestRegister_SMSFailureStillCreatesAccount(t *testing.T) {
	svc, sender := newTestService(t)
	sender.err = errors.New("carrier down")
	ctx := context.Background()

	u, err := svc.Register(ctx, registration)
	assert.ErrorIs(t, err, ErrOTPDelivery)
	require.NotNil(t, u)

	sender.err = nil
	require.NoError(t, svc.ResendOTP(ctx, "ann@example.com"))
	_, err = svc.VerifyPhone(ctx, "ann@example.com", sender.last())
	assert.NoError(t, err)
}

func TestUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "nobody@example.com", "whatever1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, svc.ResendOTP(ctx, "nobody@example.com"), ErrUserNotFound)
	_, err = svc.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
