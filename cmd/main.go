package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FacultyProfile/internal/audit"
	"FacultyProfile/internal/backend"
	"FacultyProfile/internal/config"
	"FacultyProfile/internal/crud"
	"FacultyProfile/internal/db"
	"FacultyProfile/internal/handlers"
	"FacultyProfile/internal/logging"
	mw "FacultyProfile/internal/middleware"
	"FacultyProfile/internal/models"
	"FacultyProfile/internal/sessions"
	"FacultyProfile/internal/workspace"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type flags struct {
	config   string
	dev      bool
	port     string
	logLevel string
}

func (f *flags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.config, "config", "c", "", "YAML config file")
	fs.BoolVar(&f.dev, "dev", false, "human readable logs")
	fs.StringVarP(&f.port, "port", "p", "", "listen port (overrides PORT)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
}

// load reads config and applies flags on top.
func (f *flags) load() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return cfg, nil, err
	}
	if f.port != "" {
		cfg.Port = f.port
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.dev {
		cfg.Dev = true
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.Dev)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func main() {
	f := &flags{}
	root := &cobra.Command{
		Use:           "faculty-profile",
		Short:         "Faculty profile forms: conferences, events and journals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	f.register(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := f.load()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			return serve(cmd.Context(), cfg, log)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the audit tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := f.load()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			if !cfg.Database.Enabled() {
				return errors.New("no database configured")
			}
			conn, err := db.Open(cmd.Context(), cfg.Database.DSN(), log)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := db.Migrate(cmd.Context(), conn); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	client, err := backend.New(cfg.BackendURL, cfg.BackendTimeout, log)
	if err != nil {
		return err
	}

	var (
		recorder crud.Recorder
		reader   handlers.AuditReader
	)
	if cfg.Database.Enabled() {
		conn, err := db.Open(ctx, cfg.Database.DSN(), log)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := db.Migrate(ctx, conn); err != nil {
			return err
		}
		store := audit.New(conn, log)
		recorder, reader = store, store
	} else {
		log.Info("no database configured, audit trail disabled")
	}

	cache, err := workspace.New(cfg.WorkspaceCacheSize, client, recorder, log)
	if err != nil {
		return err
	}
	store, err := sessions.New(cfg.SessionSecret, cfg.SecureCookies)
	if err != nil {
		return err
	}
	limiter := mw.NewRateLimiter(cfg.MutationRPS, cfg.MutationBurst)

	router, err := handlers.NewRouter(handlers.Deps{
		Sessions:   store,
		Workspaces: cache,
		Limiter:    limiter,
		DefaultOwner: models.Owner{
			UserID: cfg.DefaultUserID,
			PFNo:   cfg.DefaultPFNo,
		},
		TrustProxy: cfg.TrustProxy,
		Audit:      reader,
		Log:        log,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.Sweep(ctx, time.Minute, 10*time.Minute)
		return nil
	})
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("backend", cfg.BackendURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
