package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signupvault/internal/config"
	"signupvault/internal/controller"
	"signupvault/internal/middleware"
	"signupvault/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogger(conf config.Config) zerolog.Level {
	level, err := zerolog.ParseLevel(conf.LogLevel)

	if err != nil {
		log.Warn().Str("log_level", conf.LogLevel).Msg("Unknown log level, falling back to info")
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	if !conf.LogJSON {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return level
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	conf, err := config.Load()

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level := setupLogger(conf)

	log.Info().Str("driver", conf.DatabaseDriver).Int("port", conf.Port).Msg("Starting signupvault")

	databaseService := services.NewDatabaseService(services.DatabaseServiceConfig{
		Driver:       conf.DatabaseDriver,
		DatabasePath: conf.DatabasePath,
		DatabaseURL:  conf.DatabaseURL,
	})

	err = databaseService.Init()

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	defer databaseService.Close()

	database := databaseService.GetDatabase()

	rateLimitService := services.NewRateLimitService(services.RateLimitServiceConfig{
		Max:    conf.RateLimitCount,
		Window: conf.RateLimitWindow,
	})

	mailService := services.NewMailService(services.MailServiceConfig{
		Host:     conf.SMTPHost,
		Port:     conf.SMTPPort,
		Username: conf.SMTPUsername,
		Password: conf.SMTPPassword,
		From:     conf.SMTPFrom,
		AppURL:   conf.AppURL,
	})

	sessionService := services.NewSessionService(services.SessionServiceConfig{
		Secret: conf.SessionSecret,
		TTL:    conf.SessionTTL,
	})

	projectService := services.NewProjectService(database)
	submissionService := services.NewSubmissionService(database)
	settingsService := services.NewSettingsService(database)
	userService := services.NewUserService(database, settingsService, mailService)

	collectService := services.NewCollectService(services.CollectServiceConfig{
		StoreTimeout: conf.CollectStoreTimeout,
	}, projectService, submissionService, rateLimitService)

	if conf.AdminEmail != "" && conf.AdminPassword != "" {
		created, err := userService.SeedAdmin(context.Background(), conf.AdminEmail, conf.AdminPassword)

		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed admin user")
		}

		if created {
			log.Info().Str("email", conf.AdminEmail).Msg("Created admin user")
		}
	}

	if level > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	controller.RegisterValidation()

	engine := gin.New()
	engine.Use(gin.Recovery())

	err = engine.SetTrustedProxies(conf.TrustedProxies)

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies")
	}

	zerologMiddleware := middleware.NewZerologMiddleware(level)
	corsMiddleware := middleware.NewCORSMiddleware(conf.CORSAllowedOrigins)
	sessionMiddleware := middleware.NewSessionMiddleware(sessionService, userService)

	engine.Use(zerologMiddleware.Middleware())
	engine.Use(corsMiddleware.Middleware())

	rootGroup := engine.Group("")
	apiGroup := engine.Group("/api")

	collectController := controller.NewCollectController(rootGroup, collectService)
	collectController.SetupRoutes()

	healthController := controller.NewHealthController(apiGroup, databaseService)
	healthController.SetupRoutes()

	authController := controller.NewAuthController(apiGroup, controller.AuthControllerConfig{
		CookieSecure: conf.CookieSecure,
		SessionTTL:   int(sessionService.TTL().Seconds()),
	}, userService, sessionService, sessionMiddleware)
	authController.SetupRoutes()

	projectsController := controller.NewProjectsController(apiGroup, projectService, submissionService, sessionMiddleware)
	projectsController.SetupRoutes()

	usersController := controller.NewUsersController(apiGroup, userService, sessionMiddleware)
	usersController.SetupRoutes()

	settingsController := controller.NewSettingsController(apiGroup, settingsService, sessionMiddleware)
	settingsController.SetupRoutes()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runJanitor(ctx, conf.JanitorInterval, rateLimitService, userService)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.Address, conf.Port),
		Handler: engine.Handler(),
	}

	go func() {
		log.Info().Str("address", srv.Addr).Msg("Server listening")

		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)

	if err != nil {
		log.Error().Err(err).Msg("Failed to shut down server gracefully")
	}
}

func runJanitor(ctx context.Context, interval time.Duration, limiter *services.RateLimitService, users *services.UserService) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		evicted := limiter.Sweep()
		cleared, err := users.ClearExpiredResetTokens(ctx)

		if err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Failed to clear expired reset tokens")
		}

		log.Debug().Int("rate_limit_keys", evicted).Int64("reset_tokens", cleared).Msg("Janitor run finished")

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
