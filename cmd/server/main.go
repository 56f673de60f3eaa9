package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rnltlabs/runicorn/internal/config"
	"github.com/rnltlabs/runicorn/internal/logger"
	"github.com/rnltlabs/runicorn/internal/route"
	"github.com/rnltlabs/runicorn/internal/server"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig func() config.Config
	newLogger  func(env, name string) (*zap.Logger, error)
	notify     func(chan<- os.Signal, ...os.Signal)
	run        func(context.Context, config.Config, *zap.Logger, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig: config.Load,
		newLogger:  logger.New,
		notify:     signal.Notify,
		run:        Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()

	zlog, err := deps.newLogger(cfg.AppEnv, "runicorn")
	if err != nil {
		log.Printf("logger init failed: %v", err)
		zlog = zap.NewNop()
	}
	defer func() { _ = zlog.Sync() }()

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, zlog, signals, nil); err != nil {
		zlog.Error("server exited with error", zap.Error(err))
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and waits for termination signals.
func Run(ctx context.Context, cfg config.Config, zlog *zap.Logger, signals <-chan os.Signal, listen ListenFunc) error {
	if zlog == nil {
		zlog = zap.NewNop()
	}

	router := route.NewGraphHopper(route.GraphHopperConfig{
		APIKey:  cfg.GraphHopperAPIKey,
		BaseURL: cfg.GraphHopperURL,
		Profile: cfg.RouteProfile,
		Locale:  cfg.RouteLocale,
	})

	srv := server.NewServer(cfg, zlog, router)

	if listen == nil {
		listen = defaultListen
	}

	zlog.Info("server starting",
		zap.String("addr", cfg.ServerPort),
		zap.String("profile", cfg.RouteProfile),
		zap.Bool("apiKeyConfigured", cfg.GraphHopperAPIKey != ""),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Info("server shutting down")
	return shutdownFn(srv.App, shutdownCtx)
}
