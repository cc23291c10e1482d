package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carelink/carelink/internal/config"
	"github.com/carelink/carelink/internal/domain/agency"
	"github.com/carelink/carelink/internal/domain/alert"
	chat "github.com/carelink/carelink/internal/domain/assistant"
	"github.com/carelink/carelink/internal/domain/caregroup"
	"github.com/carelink/carelink/internal/domain/consent"
	"github.com/carelink/carelink/internal/domain/diet"
	"github.com/carelink/carelink/internal/domain/elder"
	"github.com/carelink/carelink/internal/domain/identity"
	"github.com/carelink/carelink/internal/domain/matching"
	"github.com/carelink/carelink/internal/domain/medication"
	"github.com/carelink/carelink/internal/domain/report"
	"github.com/carelink/carelink/internal/domain/shift"
	"github.com/carelink/carelink/internal/platform/ai"
	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/jobs"
	"github.com/carelink/carelink/internal/platform/middleware"
	"github.com/carelink/carelink/internal/platform/notification"
	"github.com/carelink/carelink/internal/platform/ws"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "care-server",
		Short: "CareLink elder-care coordination API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("unsafe configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// AI assistant: Gemini with the rule-based fallback, or rules alone when
	// no API key is configured.
	var assistant ai.Assistant = ai.NewRuleAssistant()
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiAssistant(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create Gemini client")
		}
		assistant = &ai.WithFallback{Primary: gemini, Secondary: ai.NewRuleAssistant()}
		logger.Info().Str("model", cfg.GeminiModel).Msg("Gemini assistant enabled")
	} else {
		logger.Warn().Msg("GEMINI_API_KEY not set; using the rule-based assistant")
	}

	// Notifications: Twilio SMS when configured, otherwise deliveries are
	// recorded but fail, which is fine for development.
	var sms notification.SMSSender
	if cfg.TwilioSID != "" {
		sms = notification.NewTwilioSender(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom)
		logger.Info().Msg("Twilio SMS sender enabled")
	} else {
		logger.Warn().Msg("Twilio not configured; SMS delivery disabled")
	}
	notifyMgr := notification.NewManager(sms, nil, notification.NewTemplateEngine())

	hub := ws.NewHub()
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTTTLMinutes)*time.Minute)

	// Domain services.
	identitySvc := identity.NewService(identity.NewUserRepo(pool), issuer)
	groupSvc := caregroup.NewService(caregroup.NewGroupRepo(pool))
	elderSvc := elder.NewService(elder.NewElderRepo(pool), groupSvc)
	medSvc := medication.NewService(medication.NewMedicationRepo(pool), groupSvc, elderSvc, identitySvc, assistant)
	dietSvc := diet.NewService(diet.NewDietRepo(pool), groupSvc, elderSvc)
	alertSvc := alert.NewService(alert.NewAlertRepo(pool), groupSvc, groupSvc)
	shiftSvc := shift.NewService(shift.NewShiftRepo(pool), groupSvc, medSvc)
	agencySvc := agency.NewService(agency.NewAgencyRepo(pool), assistant)
	matchingSvc := matching.NewService(agencySvc, elderSvc, groupSvc, cfg.MatchRadiusKm)
	consentSvc := consent.NewService(consent.NewConsentRepo(pool), groupSvc)
	reportSvc := report.NewService(groupSvc, elderSvc, medSvc, dietSvc, alertSvc, shiftSvc, consentSvc, assistant)
	chatSvc := chat.NewService(chat.NewConversationRepo(pool), identitySvc, assistant)

	// Cross-service hooks.
	alertSvc.SetPublisher(hub)
	alertSvc.SetNotifier(notification.NewGroupNotifier(groupSvc, identitySvc, notifyMgr))
	notifyMgr.SetQuietSource(identitySvc)
	medSvc.SetAlertRaiser(alertSvc)
	dietSvc.SetAlertRaiser(alertSvc)

	// HTTP server.
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", db.HealthHandler(pool))

	// Signup and login carry a stricter limit than the rest of the API.
	public := e.Group("")
	public.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.AuthRateRPS,
		BurstSize:         cfg.AuthRateBurst,
	}))
	identityHandler := identity.NewHandler(identitySvc)
	identityHandler.RegisterPublicRoutes(public)

	api := e.Group("/api/v1")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	api.Use(auth.Middleware(issuer))

	identityHandler.RegisterRoutes(api)
	caregroup.NewHandler(groupSvc).RegisterRoutes(api)
	elder.NewHandler(elderSvc).RegisterRoutes(api)
	medication.NewHandler(medSvc).RegisterRoutes(api)
	diet.NewHandler(dietSvc).RegisterRoutes(api)
	alert.NewHandler(alertSvc).RegisterRoutes(api)
	shift.NewHandler(shiftSvc).RegisterRoutes(api)
	agency.NewHandler(agencySvc).RegisterRoutes(api)
	matching.NewHandler(matchingSvc).RegisterRoutes(api)
	consent.NewHandler(consentSvc).RegisterRoutes(api)
	report.NewHandler(reportSvc).RegisterRoutes(api)
	chat.NewHandler(chatSvc).RegisterRoutes(api)
	notification.NewHandler(notifyMgr).RegisterRoutes(api)

	wsGroup := e.Group("/ws")
	wsGroup.Use(auth.Middleware(issuer))
	ws.NewHandler(hub, groupSvc).RegisterRoutes(wsGroup)

	// Background jobs.
	var sched *jobs.Scheduler
	if cfg.JobsEnabled {
		sched = jobs.NewScheduler(5 * time.Minute)
		register := func(name, spec string, run func(context.Context) error) {
			if err := sched.Register(jobs.Job{Name: name, Spec: spec, Run: run}); err != nil {
				logger.Fatal().Err(err).Str("job", name).Msg("failed to register job")
			}
		}
		register("weekly-summary", cfg.WeeklyCron,
			weeklySummaryJob(groupSvc, reportSvc, identitySvc, notifyMgr))
		register("dose-reminder", cfg.ReminderCron,
			doseReminderJob(medSvc, elderSvc, groupSvc, identitySvc, notifyMgr))
		register("alert-autotune", cfg.AutoTuneCron, func(ctx context.Context) error {
			_, err := alertSvc.AutoTuneAll(ctx)
			return err
		})
		sched.Start()
		defer sched.Stop()
	} else {
		logger.Warn().Msg("background jobs disabled")
	}

	// Serve until interrupted, then drain.
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	return nil
}
