package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"appointly/config"
	"appointly/cron"
	"appointly/database"
	bookingRepo "appointly/database/repository/booking"
	providerRepo "appointly/database/repository/provider"
	userRepoPkg "appointly/database/repository/user"
	"appointly/handlers"
	"appointly/metrics"
	"appointly/middleware"
	"appointly/routes"
	"appointly/services/admin"
	"appointly/services/booking"
	"appointly/services/notification"
	"appointly/services/payment"
	"appointly/services/policy"
	"appointly/services/provider"
	"appointly/services/storage"
	"appointly/services/tasks"
	"appointly/services/user"
	"appointly/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	if err := policy.SetDefaultTimezone(cfg.DefaultTimezone); err != nil {
		logger.Fatal("main: invalid DEFAULT_TIMEZONE", zap.Error(err))
	}
	stripe.Key = cfg.StripeKey

	database.InitDB()
	utils.InitRedis()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(reg)

	// repositories.
	bookings := bookingRepo.NewMongoBookingRepo()
	provRepo := providerRepo.NewMongoProviderRepo()
	userRepo := userRepoPkg.NewMongoUserRepo()

	// notifications. Channels without credentials stay nil and are skipped.
	channels := &notification.MultiChannelNotifier{
		Users:     userRepo,
		Providers: provRepo,
		Logger:    logger,
	}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		channels.SMS = notification.NewTwilioSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	} else {
		logger.Warn("main: Twilio not configured, SMS disabled")
	}
	if cfg.SMTPHost != "" {
		channels.Email = notification.NewSMTPEmail(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, logger)
	} else {
		logger.Warn("main: SMTP not configured, email disabled")
	}
	notifier := notification.NewAsyncNotifier(channels, logger, bookingMetrics.ObserveNotification)

	// reminder queue.
	redisOpt := cron.RedisOpt()
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	reminders := tasks.NewAsynqReminderScheduler(asynqClient, inspector, time.Duration(cfg.ReminderLeadHours)*time.Hour, logger)

	// media.
	var images storage.ImageStore
	if cfg.CloudinaryCloudName != "" {
		store, err := storage.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			logger.Warn("main: cloudinary disabled", zap.Error(err))
		} else {
			images = store
		}
	}

	// services.
	tokenTTL := time.Duration(cfg.JWTTTLHours) * time.Hour
	userService := &user.DefaultUserService{
		Repo:     userRepo,
		OTP:      utils.NewOTPStore(utils.GetOTPCacheClient(), time.Duration(cfg.OTPTTLMinutes)*time.Minute),
		Sender:   notifier,
		TokenTTL: tokenTTL,
		Logger:   logger,
	}
	providerService := provider.NewDefaultProviderService(provRepo, images, cfg.DefaultTimezone, logger)
	bookingService := &booking.DefaultBookingService{
		Bookings:    bookings,
		Providers:   provRepo,
		Customers:   userRepo,
		Payments:    payment.NewStripeGateway(logger),
		Notifier:    notifier,
		Reminders:   reminders,
		Logger:      logger,
		Metrics:     bookingMetrics,
		SlotMinutes: cfg.SlotDurationMinutes,
		Currency:    cfg.Currency,
	}
	adminService := &admin.DefaultAdminService{
		Users:     userRepo,
		Providers: provRepo,
		Bookings:  bookings,
		Logger:    logger,
	}

	// background work. The worker sends reminders synchronously so that a
	// failed delivery is retried by the queue.
	worker := cron.NewReminderWorker(redisOpt, bookings, channels, logger)
	worker.Start()
	utils.StartHealthMonitor(ctx, utils.RedisClients(), database.MongoClient)
	go cron.MonitorRedisConnection(ctx, utils.QueueClient, time.Minute, logger)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics(bookingMetrics))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlerBundle := &handlers.HandlerBundle{
		Users:     handlers.NewUserHandler(userService),
		Providers: handlers.NewProviderHandler(providerService, bookingService, tokenTTL),
		Bookings:  handlers.NewBookingHandler(bookingService),
		Payments:  handlers.NewPaymentWebhookHandler(bookingService, cfg.StripeWebhookSecret),
		Admin:     handlers.NewAdminHandler(adminService, providerService),
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting server", zap.String("addr", srv.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	worker.Shutdown()
	notifier.Wait()
	stop()
	if err := database.Close(shutdownCtx); err != nil {
		logger.Error("main: failed to close mongo", zap.Error(err))
	}

	logger.Info("main: server stopped gracefully")
}
