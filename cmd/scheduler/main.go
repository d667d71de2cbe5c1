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

	"github.com/spf13/cobra"

	"github.com/content-agent/internal/app"
	"github.com/content-agent/internal/config"
	"github.com/content-agent/pkg/logger"
)

var (
	cfgFile string
	runOnce bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aca-scheduler",
		Short: "Background scheduler for the content agent",
		Long: `Runs the automation dispatcher on the configured cron tick: scheduled
publishing, idea generation, drafting and style analysis.
This daemon should be run as a service for autonomous operation.`,
		RunE:         runScheduler,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.Flags().BoolVar(&runOnce, "once", false, "run a single tick and exit")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Info().Msg("Starting content agent scheduler")

	a, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if runOnce {
		_, err := a.RunAutomation(cmd.Context())
		return err
	}

	health := startHealthServer(log)

	c, err := a.StartScheduler()
	if err != nil {
		return err
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down scheduler")
	<-c.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return health.Shutdown(ctx)
}

// startHealthServer serves a liveness endpoint for hosting platforms that
// expect the process to bind $PORT
func startHealthServer(log *logger.Logger) *http.Server {
	port := os.Getenv("PORT")
	if port == "" {
		port = "10000"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Msg("Health check server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Health server failed")
		}
	}()
	return server
}
