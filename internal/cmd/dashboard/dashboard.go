// Package dashboard parses dashboard service configuration and launches the
// HTTP server.
package dashboard

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/csipacific/dashboard/internal/auth"
	"github.com/csipacific/dashboard/internal/clinic"
	"github.com/csipacific/dashboard/internal/platform/config"
	"github.com/csipacific/dashboard/internal/platform/otel"
	"github.com/csipacific/dashboard/internal/registry"
	"github.com/csipacific/dashboard/internal/storage/sqlite"
	"github.com/csipacific/dashboard/internal/web"
)

// serviceName identifies the dashboard in traces.
const serviceName = "dashboard"

// sessionSweepInterval paces expired-session cleanup.
const sessionSweepInterval = time.Hour

// Config holds dashboard command configuration. The clinic API key has no
// default on purpose; it must come from the environment.
type Config struct {
	Port   int    `env:"PORT" envDefault:"8050"`
	DBPath string `env:"DASHBOARD_DB_PATH" envDefault:"dashboard.db"`

	JuvBaseURL string `env:"JUV_BASE_URL" envDefault:"https://csipacific.juvonno.com/api"`
	JuvAPIKey  string `env:"JUV_API_KEY"`
	JuvBranch  int    `env:"JUV_BRANCH" envDefault:"1"`

	Auth auth.Config
}

// secretsFile is the local development secrets file. In production the
// deployment platform injects the variables directly.
const secretsFile = ".env"

// ParseConfig parses the secrets file, environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.LoadDotenv(secretsFile); err != nil {
		return Config{}, err
	}
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The dashboard HTTP port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database file")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the dashboard HTTP service and blocks until the context ends.
func Run(ctx context.Context, cfg Config) error {
	logger := log.Default()

	shutdownTracing, err := otel.Setup(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Printf("shutdown tracing: %v", err)
		}
	}()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Printf("close storage: %v", err)
		}
	}()

	registryClient, err := registry.NewClient(cfg.Auth.SiteURL)
	if err != nil {
		return fmt.Errorf("build registry client: %w", err)
	}
	clinicClient, err := clinic.NewClient(cfg.JuvBaseURL, cfg.JuvAPIKey)
	if err != nil {
		return fmt.Errorf("build clinic client: %w", err)
	}

	authSvc, err := auth.NewService(cfg.Auth, store, registryClient, logger)
	if err != nil {
		return fmt.Errorf("build auth service: %w", err)
	}

	board := web.NewBoard(clinicClient, store, logger, web.WithBranch(cfg.JuvBranch))
	handler := web.NewHandler(registryClient, board, store, authSvc, logger)
	server := web.NewServer(fmt.Sprintf(":%d", cfg.Port), handler, logger)

	go sweepSessions(ctx, store, logger)

	return server.ListenAndServe(ctx)
}

// sweepSessions periodically removes expired sessions and login states.
func sweepSessions(ctx context.Context, store *sqlite.Store, logger *log.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.DeleteExpiredSessions(ctx, time.Now().UTC())
			if err != nil {
				logger.Printf("sweep sessions: %v", err)
				continue
			}
			if removed > 0 {
				logger.Printf("swept %d expired sessions", removed)
			}
		}
	}
}
