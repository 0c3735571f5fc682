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

	"github.com/healthconnect/healthconnect/internal/config"
	"github.com/healthconnect/healthconnect/internal/domain/appointment"
	"github.com/healthconnect/healthconnect/internal/domain/hospital"
	"github.com/healthconnect/healthconnect/internal/domain/user"
	"github.com/healthconnect/healthconnect/internal/platform/auth"
	"github.com/healthconnect/healthconnect/internal/platform/bot"
	"github.com/healthconnect/healthconnect/internal/platform/db"
	"github.com/healthconnect/healthconnect/internal/platform/metrics"
	"github.com/healthconnect/healthconnect/internal/platform/middleware"
	"github.com/healthconnect/healthconnect/internal/platform/reminder"
	"github.com/healthconnect/healthconnect/internal/platform/sandbox"
	"github.com/healthconnect/healthconnect/internal/realtime"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "healthconnect-server",
		Short: "HealthConnect hospital availability API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HealthConnect API server",
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

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
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
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
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

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with demo hospitals and accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("hospitals")
			seed, _ := cmd.Flags().GetInt64("seed")
			withAccounts, _ := cmd.Flags().GetBool("accounts")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			seeder := sandbox.NewSeeder(hospital.NewRepo(pool), user.NewRepo(pool), logger)
			result, err := seeder.Seed(ctx, sandbox.SeedConfig{
				HospitalCount: count,
				WithAccounts:  withAccounts,
				Seed:          seed,
			})
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}

			fmt.Printf("Seeded %d hospital(s) and %d account(s) in %s.\n",
				result.Hospitals, result.Accounts, result.Duration)
			if withAccounts {
				fmt.Printf("All demo accounts use the password %q.\n", sandbox.DemoPassword)
			}
			return nil
		},
	}
	cmd.Flags().Int("hospitals", 12, "Number of hospitals to generate")
	cmd.Flags().Int64("seed", 1, "Random seed for deterministic data")
	cmd.Flags().Bool("accounts", true, "Create admin and demo patient accounts")
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Metrics registry and broadcast hub
	m := metrics.New()
	hub := realtime.NewHub(logger, m)
	wsServer := realtime.NewServer(hub, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(m.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Unauthenticated surface: health, metrics, websocket upgrade, signup/login.
	e.GET("/health", db.HealthHandler(pool))
	e.GET("/metrics", m.Handler())
	e.GET("/ws", wsServer.Handle)

	public := e.Group("/api/v1")

	// Authenticated surface
	api := e.Group("/api/v1")
	if cfg.IsDev() {
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.JWTIssuer,
			SigningKey: []byte(cfg.JWTSecret),
		}))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	public.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(middleware.RateLimit(rateLimitCfg))

	// -- Domain wiring --

	tokens := auth.NewIssuer(cfg.JWTIssuer, []byte(cfg.JWTSecret), time.Duration(cfg.TokenTTLHours)*time.Hour)

	hospitalRepo := hospital.NewRepo(pool)
	hospitalSvc := hospital.NewService(hospitalRepo, hub, logger)
	hospital.NewHandler(hospitalSvc).RegisterRoutes(api)

	apptRepo := appointment.NewRepo(pool)
	apptSvc := appointment.NewService(apptRepo, hospitalRepo, hub, logger)
	appointment.NewHandler(apptSvc).RegisterRoutes(api)

	userRepo := user.NewRepo(pool)
	userSvc := user.NewService(userRepo, hospitalRepo, tokens, logger)
	user.NewHandler(userSvc).RegisterRoutes(public, api)

	// Availability assistant. Without an API key the route still exists but
	// answers with an error, matching the rest of the optional surface.
	assistant := bot.NewAssistant(hospitalRepo, cfg.OpenRouterAPIKey, cfg.OpenRouterModel, logger)
	bot.NewHandler(assistant).RegisterRoutes(api)

	// Appointment reminder sweep
	reminderCtx, reminderCancel := context.WithCancel(ctx)
	defer reminderCancel()
	if cfg.SMTPAddr != "" {
		mailer := reminder.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
		job := reminder.NewJob(apptRepo, mailer, cfg.ReminderHour, logger)
		job.Start(reminderCtx)
	} else {
		logger.Warn().Msg("SMTP_ADDR not set; appointment reminder emails are disabled")
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
