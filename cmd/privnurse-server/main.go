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

	"github.com/privnurse/api/internal/config"
	"github.com/privnurse/api/internal/dataset"
	"github.com/privnurse/api/internal/domain/consultation"
	"github.com/privnurse/api/internal/domain/discharge"
	"github.com/privnurse/api/internal/domain/identity"
	"github.com/privnurse/api/internal/domain/inference"
	"github.com/privnurse/api/internal/domain/lab"
	"github.com/privnurse/api/internal/domain/nursing"
	"github.com/privnurse/api/internal/domain/patient"
	"github.com/privnurse/api/internal/platform/auth"
	"github.com/privnurse/api/internal/platform/db"
	"github.com/privnurse/api/internal/platform/llm"
	"github.com/privnurse/api/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "privnurse-server",
		Short: "PrivNurse nursing documentation API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(datasetCmd())

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

func datasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Offline training dataset tools",
	}

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build the discharge-summary training file from hospital exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			baseDir, _ := cmd.Flags().GetString("input")
			output, _ := cmd.Flags().GetString("output")
			workers, _ := cmd.Flags().GetInt("workers")

			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
			b := dataset.NewBuilder(dataset.Config{
				BaseDir:    baseDir,
				OutputFile: output,
				Workers:    workers,
			}, logger)

			stats, err := b.Build(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %d training records to %s (%d encounters, %d skipped).\n",
				stats.Written, output, stats.Encounters, stats.Skipped)
			return nil
		},
	}
	buildCmd.Flags().String("input", "./export", "Directory holding the CSV export sources")
	buildCmd.Flags().String("output", "./training_dataset.jsonl", "Output JSONL path")
	buildCmd.Flags().Int("workers", 4, "Concurrent part-file readers")
	cmd.AddCommand(buildCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Generation and transcription clients
	genClient := llm.NewClient(cfg.LLMBaseURL, llm.WithLogger(logger))
	var transcriber nursing.Transcriber
	if cfg.AudioAPIURL != "" {
		transcriber = llm.NewAudioClient(cfg.AudioAPIURL, cfg.AudioAPIKey)
		logger.Info().Str("url", cfg.AudioAPIURL).Msg("audio transcription enabled")
	} else {
		logger.Warn().Msg("AUDIO_API_URL not set; audio transcription is disabled")
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Client-ID"},
	}))

	limiter := middleware.NewSlidingWindowLimiter(cfg.RateLimitRPM, time.Minute)
	sweepCtx, sweepCancel := context.WithCancel(ctx)
	defer sweepCancel()
	go limiter.StartSweeper(sweepCtx, time.Minute)

	// Public group: login and health, no token required.
	public := e.Group("/api")
	public.Use(middleware.RateLimit(limiter))

	// Authenticated API group.
	api := e.Group("/api")
	api.Use(middleware.RateLimit(limiter))
	if cfg.IsDev() {
		logger.Warn().Msg("development auth bypass is active")
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(issuer.Middleware())
	}
	api.Use(middleware.DemoGuard(cfg.DemoMode))

	// Domain wiring. The inference registry and the consultation service
	// depend on each other, so the recorder side is attached late.
	patientSvc := patient.NewService(patient.NewPatientRepoPG(pool))
	nursingSvc := nursing.NewService(nursing.NewNoteRepoPG(pool), transcriber)
	labSvc := lab.NewService(lab.NewReportRepoPG(pool))

	inferenceSvc := inference.NewService(
		inference.NewModelRepoPG(pool), inference.NewInferenceRepoPG(pool), genClient, nil)
	consultationSvc := consultation.NewService(consultation.NewRecordRepoPG(pool), genClient, inferenceSvc)
	inferenceSvc.SetConsultationRecorder(consultationSvc)
	dischargeSvc := discharge.NewService(discharge.NewNoteRepoPG(pool), genClient, inferenceSvc)

	identitySvc := identity.NewService(
		identity.NewUserRepoPG(pool), identity.NewSessionRepoPG(pool),
		issuer, time.Duration(cfg.JWTExpiryHours)*time.Hour)

	if err := inferenceSvc.SeedDefaults(ctx, cfg.SummaryModel, cfg.ValidatorModel); err != nil {
		logger.Warn().Err(err).Msg("could not seed default models")
	}

	patient.NewHandler(patientSvc).RegisterRoutes(api)
	nursing.NewHandler(nursingSvc).RegisterRoutes(api)
	lab.NewHandler(labSvc).RegisterRoutes(api)
	consultation.NewHandler(consultationSvc).RegisterRoutes(api)
	discharge.NewHandler(dischargeSvc).RegisterRoutes(api)
	inference.NewHandler(inferenceSvc).RegisterRoutes(api)
	identity.NewHandler(identitySvc).RegisterRoutes(public, api)

	e.GET("/health", db.HealthHandler(pool, genClient))

	// Expired login sessions are swept in the background.
	pruneCtx, pruneCancel := context.WithCancel(ctx)
	defer pruneCancel()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-pruneCtx.Done():
				return
			case <-ticker.C:
				if n, err := identitySvc.PruneSessions(pruneCtx); err != nil {
					logger.Warn().Err(err).Msg("session prune failed")
				} else if n > 0 {
					logger.Info().Int64("pruned", n).Msg("expired sessions removed")
				}
			}
		}
	}()

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
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
