package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/api/option"

	"github.com/erazemk/vitrina/internal/api"
	"github.com/erazemk/vitrina/internal/auth"
	"github.com/erazemk/vitrina/internal/catalog"
	"github.com/erazemk/vitrina/internal/config"
	"github.com/erazemk/vitrina/internal/db"
	"github.com/erazemk/vitrina/internal/describe"
	"github.com/erazemk/vitrina/internal/order"
	"github.com/erazemk/vitrina/internal/remote"
	"github.com/erazemk/vitrina/internal/store"
	"github.com/erazemk/vitrina/internal/storefront"
)

// Idle carts are dropped after cartIdle, checked every cartSweep.
const (
	cartIdle  = 24 * time.Hour
	cartSweep = time.Hour
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	fs := flag.NewFlagSet("vitrina", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	var seed bool
	fs.BoolVar(&seed, "seed", false, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: vitrina [flags]

Flags:
  -c, -config <path>      YAML config file (default: ./vitrina.yaml if present)
  -a, -addr <host:port>   listen address (overrides server.addr)
  -l, -log <path>         log file path (overrides log.path)
      -seed               store the starter catalog when the catalog is empty
  -h, -help               show this help and exit

Every config key can also be set as VITRINA_<SECTION>_<KEY>, e.g. VITRINA_REMOTE_URL.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if logPath != "" {
		cfg.Log.Path = logPath
	}

	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	// Optionally also write to a log file.
	closeLog, err := setupLogger(cfg.Log.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg, seed); err != nil {
		slog.Error("fatal", "error", err)
		if closeLog != nil {
			closeLog()
		}
		os.Exit(1)
	}
}

func run(cfg *config.Config, seed bool) error {
	ctx := context.Background()

	// Local cache.
	database, err := db.Open(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating cache: %w", err)
	}
	slog.Info("cache ready", "path", cfg.Cache.Path, "schema", db.SchemaVersion)

	jwtSecret, err := store.GetSessionSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading session secret: %w", err)
	}

	// Remote catalog.
	var remoteStore catalog.Remote = remote.Offline{}
	if cfg.Remote.URL != "" {
		pool, err := remote.Connect(ctx, cfg.Remote.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		rs := remote.New(pool)
		if err := rs.EnsureSchema(ctx); err != nil {
			slog.Warn("could not ensure remote schema", "error", err)
		}
		remoteStore = rs
	} else {
		slog.Warn("remote.url not set, serving from the local cache only")
	}

	// AI descriptions.
	var describer storefront.Describer = describe.Unconfigured{}
	if cfg.AI.APIKey != "" {
		var opts []option.ClientOption
		if cfg.AI.Endpoint != "" {
			opts = append(opts, option.WithEndpoint(cfg.AI.Endpoint))
		}
		client, err := describe.NewClient(ctx, cfg.AI.APIKey, cfg.AI.Model, opts...)
		if err != nil {
			return err
		}
		describer = client
	} else {
		slog.Warn("ai.api_key not set, image uploads will be rejected")
	}

	if cfg.Orders.URL == "" {
		slog.Warn("orders.url not set, checkout will fail")
	}
	orders := order.NewClient(cfg.Orders.URL)

	creds, err := auth.NewCredentials(cfg.Admin.Username, cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("admin credentials: %w", err)
	}
	if cfg.Admin.Username == auth.DefaultUsername && cfg.Admin.Password == auth.DefaultPassword {
		slog.Warn("using default admin credentials")
	}

	price, err := cfg.DefaultPrice()
	if err != nil {
		return err
	}

	repo := catalog.New(remoteStore, store.NewCache(database))
	ctrl := storefront.New(repo, describer, orders, storefront.Options{
		DefaultPrice:   price,
		MaxImageWidth:  cfg.Catalog.MaxImageWidth,
		MaxImageHeight: cfg.Catalog.MaxImageHeight,
	})

	if err := ctrl.Load(ctx); err != nil {
		return err
	}
	if seed {
		if _, err := ctrl.Seed(ctx); err != nil {
			return err
		}
	}
	slog.Info("catalog loaded", "items", len(ctrl.Items(&storefront.Session{Admin: true}, "")))

	carts := api.NewCarts()
	apiRouter := api.NewRouter(api.Config{
		DB:          database,
		JWTSecret:   jwtSecret,
		Credentials: creds,
		Controller:  ctrl,
		Carts:       carts,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)

	handler := api.LoggingMiddleware(mux)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepCarts(sweepCtx, carts)

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing cache")
	return nil
}

func sweepCarts(ctx context.Context, carts *api.Carts) {
	ticker := time.NewTicker(cartSweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := carts.Prune(cartIdle); n > 0 {
				slog.Info("dropped idle carts", "count", n)
			}
		}
	}
}
