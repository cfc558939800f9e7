// Command seed loads a demo provider with weekday hours and a small
// catalogue so the availability endpoints have something to return.
package main

import (
	"context"
	"errors"
	"time"

	"appointly/config"
	"appointly/database"
	"appointly/database/repository"
	providerRepo "appointly/database/repository/provider"
	userRepo "appointly/database/repository/user"
	"appointly/models"
	"appointly/services/provider"
	"appointly/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	ownerEmail    = "demo.owner@appointly.local"
	ownerPassword = "demo-password"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	database.InitDB()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer database.Close(ctx)

	users := userRepo.NewMongoUserRepo()
	owner, err := ensureOwner(ctx, users)
	if err != nil {
		logger.Fatal("seed: failed to create owner", zap.Error(err))
	}

	providers := provider.NewDefaultProviderService(providerRepo.NewMongoProviderRepo(), nil, config.AppConfig.DefaultTimezone, logger)
	p, err := providers.GetByOwnerID(ctx, owner.ID)
	if errors.Is(err, provider.ErrProviderNotFound) {
		p, err = providers.Register(ctx, owner.ID, models.ProviderRegistration{
			BusinessName: "Demo Studio",
			Category:     "salon",
			Description:  "Seeded demo provider",
			Email:        ownerEmail,
			Phone:        "+15550100",
			City:         "Nairobi",
			Timezone:     "Africa/Nairobi",
		})
	}
	if err != nil {
		logger.Fatal("seed: failed to register provider", zap.Error(err))
	}

	var hours []models.WorkingDayTemplate
	for _, day := range []models.DayOfWeek{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday} {
		hours = append(hours, models.WorkingDayTemplate{Day: day, StartTime: "09:00", EndTime: "17:00", Available: true})
	}
	if _, err := providers.SetWorkingHours(ctx, owner.ID, hours); err != nil {
		logger.Fatal("seed: failed to set working hours", zap.Error(err))
	}

	p, err = providers.UpsertServices(ctx, owner.ID, []models.Service{
		{Name: "Haircut", DurationMinutes: 30, Price: 25, Active: true},
		{Name: "Colour", DurationMinutes: 90, Price: 80, Active: true},
		{Name: "Consultation", DurationMinutes: 15, Price: 0, Active: true},
	})
	if err != nil {
		logger.Fatal("seed: failed to save services", zap.Error(err))
	}
	if _, err := providers.SetVerified(ctx, p.ID, true); err != nil {
		logger.Fatal("seed: failed to verify provider", zap.Error(err))
	}

	logger.Info("seed: done",
		zap.String("providerId", p.ID),
		zap.String("ownerEmail", ownerEmail),
		zap.String("ownerPassword", ownerPassword),
	)
}

func ensureOwner(ctx context.Context, users userRepo.UserRepository) (*models.User, error) {
	existing, err := users.GetByEmail(ctx, ownerEmail)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(ownerPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	u := &models.User{
		ID:            uuid.New().String(),
		Name:          "Demo Owner",
		Email:         ownerEmail,
		Phone:         "+15550100",
		PasswordHash:  string(hashed),
		Role:          models.RoleCustomer,
		PhoneVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return u, users.Create(ctx, u)
}
