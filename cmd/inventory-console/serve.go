package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rflorenc/inventory-console/internal/api"
	"github.com/rflorenc/inventory-console/internal/config"
	"github.com/rflorenc/inventory-console/internal/featureflags"
	"github.com/rflorenc/inventory-console/internal/groups"
	"github.com/rflorenc/inventory-console/internal/inventory"
	"github.com/rflorenc/inventory-console/internal/logging"
	"github.com/rflorenc/inventory-console/internal/models"
	"github.com/rflorenc/inventory-console/internal/notify"
	"github.com/rflorenc/inventory-console/internal/rbac"
	"github.com/rflorenc/inventory-console/internal/staleness"
	"github.com/rflorenc/inventory-console/internal/systems"
)

var serveOpts struct {
	configFile  string
	envFile     string
	listen      string
	frontendURL string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the console API server.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.LoadOptions{File: serveOpts.configFile, EnvFile: serveOpts.envFile})
		if err != nil {
			return err
		}
		// Flags win over file and environment.
		if cmd.Flags().Changed("listen") {
			cfg.Listen = serveOpts.listen
		}
		if cmd.Flags().Changed("frontend-url") {
			cfg.FrontendURL = serveOpts.frontendURL
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := logging.Bootstrap(os.Stderr, cmd.Name())
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg, logger)
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveOpts.configFile, "config", "", "Path to config file (YAML)")
	f.StringVar(&serveOpts.envFile, "env-file", "", "Path to a .env file (default .env)")
	f.StringVar(&serveOpts.listen, "listen", "", "HTTP listen address")
	f.StringVar(&serveOpts.frontendURL, "frontend-url", "", "Proxy non API paths to this console dev server")
}

// newServer wires the services behind the API.
func newServer(cfg *config.Config, client *inventory.Client, logger *slog.Logger) *api.Server {
	flags := featureflags.NewStatic(cfg.FeatureFlags)
	notifications := notify.NewStore()
	jobs := models.NewJobStore()
	perms := rbac.NewChecker(client)

	return &api.Server{
		Connection:  cfg.Inventory,
		Upstream:    client,
		Permissions: perms,
		Staleness: &staleness.Service{
			API:      client,
			Flags:    flags,
			Notifier: notifications,
			Logger:   logger.With("component", "staleness"),
		},
		Groups: &groups.Service{
			API:         client,
			Permissions: perms,
			Flags:       flags,
			Notifier:    notifications,
			Logger:      logger.With("component", "groups"),
		},
		Systems: &systems.Service{
			API:         client,
			Jobs:        jobs,
			Selection:   systems.NewSelectionStore(),
			Notifier:    notifications,
			Global:      cfg.GlobalFilter,
			Logger:      logger.With("component", "systems"),
			BatchSize:   cfg.DeleteBatchSize,
			Concurrency: cfg.DeleteConcurrency,
		},
		Jobs:          jobs,
		Notifications: notifications,
		Logger:        logger,
	}
}

func runServe(parent context.Context, cfg *config.Config, logger *slog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := inventory.NewClient(&cfg.Inventory, cfg.RequestTimeout)
	logger.Info("inventory connection", "name", cfg.Inventory.Name, "url", cfg.Inventory.BaseURL())

	// Verify connectivity and auth early; the server starts either way.
	pingCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	if err := client.Ping(pingCtx); err != nil {
		logger.Warn("inventory ping failed", "error", err)
	} else {
		logger.Info("inventory reachable")
	}
	cancel()

	var frontend http.Handler
	if cfg.FrontendURL != "" {
		proxy, err := frontendProxy(cfg.FrontendURL)
		if err != nil {
			return err
		}
		frontend = proxy
		logger.Info("proxying frontend", "url", cfg.FrontendURL)
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewRouter(newServer(cfg, client, logger), frontend),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen, "version", version)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// frontendProxy forwards everything it is given to a console dev server.
func frontendProxy(raw string) (http.Handler, error) {
	target, err := url.Parse(raw)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid frontend url %q", raw)
	}
	return httputil.NewSingleHostReverseProxy(target), nil
}
