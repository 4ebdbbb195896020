package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/rob-jonesdevlab/ods-signage/internal/core/service"
	"github.com/rob-jonesdevlab/ods-signage/internal/infra/buildinfo"
	"github.com/rob-jonesdevlab/ods-signage/internal/infra/confloader"
	"github.com/rob-jonesdevlab/ods-signage/internal/infra/shutdown"
	"github.com/rob-jonesdevlab/ods-signage/internal/infra/tlsroots"
	"github.com/rob-jonesdevlab/ods-signage/internal/server/config"
	"github.com/rob-jonesdevlab/ods-signage/internal/server/httpserver"
	"github.com/rob-jonesdevlab/ods-signage/internal/server/httpserver/handler"
	"github.com/rob-jonesdevlab/ods-signage/internal/server/ndepserver"
	"github.com/rob-jonesdevlab/ods-signage/internal/storage"
	"github.com/rob-jonesdevlab/ods-signage/internal/telemetry/logger"
	"github.com/rob-jonesdevlab/ods-signage/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("ndep-server %s\n", buildinfo.String())
		return nil
	}

	loader, cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting ndep-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	ctx := context.Background()
	reg := metric.NewRegistry()

	store, err := storage.Open(ctx, cfg.ReplayStore.Endpoint, storage.OpenOptions{
		Logger:        log,
		Registry:      reg.Registerer(),
		PoolSize:      cfg.ReplayStore.PoolSize,
		Timeout:       cfg.ReplayStore.Timeout,
		SweepInterval: cfg.ReplayStore.SweepInterval,
		TLS: tlsroots.ClientOptions{
			CAFile:   cfg.ReplayStore.TLS.CAFile,
			CertFile: cfg.ReplayStore.TLS.CertFile,
			KeyFile:  cfg.ReplayStore.TLS.KeyFile,
		},
	})
	if err != nil {
		return fmt.Errorf("open replay store %s: %w", storage.Redact(cfg.ReplayStore.Endpoint), err)
	}

	svc := service.NewEnrollmentService(
		storage.Instrument(store, reg.ObserveStore),
		ndepserver.LogHook(log),
		&service.EnrollmentServiceConfig{
			DriftLimit:      cfg.Enrollment.DriftLimit(),
			RegistrationTTL: cfg.Enrollment.RegistrationTTL(),
			StoreTimeout:    cfg.ReplayStore.Timeout,
		},
	)

	listener := ndepserver.New(listenerConfig(cfg), svc, log, ndepserver.WithMetrics(reg))
	if err := reg.Registerer().Register(metric.NewCollector(listener)); err != nil {
		closeStore(store, log)
		return fmt.Errorf("register listener metrics: %w", err)
	}

	shutdownHandler := shutdown.NewHandler(shutdownTimeout, log)

	// Hooks run in reverse order: stop intake, then the ops server, then
	// the store.
	shutdownHandler.OnShutdown("replay store", func(context.Context) error {
		return closeStore(store, log)
	})

	var opsServer *httpserver.Server
	if cfg.HTTP.Enabled {
		opsServer, err = startOpsServer(cfg, reg, log, store, listener, shutdownHandler)
		if err != nil {
			closeStore(store, log)
			return err
		}
		shutdownHandler.OnShutdown("ops http server", opsServer.Shutdown)
	}

	if err := listener.Start(ctx); err != nil {
		if opsServer != nil {
			opsServer.Shutdown(ctx)
		}
		closeStore(store, log)
		return fmt.Errorf("start enrollment listener: %w", err)
	}
	shutdownHandler.OnShutdown("enrollment listener", listener.Shutdown)

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, loader, cfg, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	log.Info("server started",
		"ndep_addr", listener.Addr().String(),
		"replay_store", storage.Redact(cfg.ReplayStore.Endpoint),
		"drift_limit", cfg.Enrollment.DriftLimit(),
		"registration_ttl", cfg.Enrollment.RegistrationTTL())

	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*confloader.Loader, *config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithEnvAliases(config.EnvAliases())}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)

	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return loader, cfg, nil
}

// initLogger initializes the structured logger and installs it as default.
func initLogger(cfg *config.ServerConfig) (*slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)
	return log, nil
}

func listenerConfig(cfg *config.ServerConfig) *ndepserver.Config {
	lc := ndepserver.DefaultConfig()
	lc.Address = net.JoinHostPort(cfg.NDEP.ListenAddr, strconv.Itoa(cfg.NDEP.ListenPort))
	lc.MaxPayload = cfg.NDEP.ReadBufferSize
	lc.Workers = cfg.NDEP.Workers
	lc.QueueSize = cfg.NDEP.QueueSize
	lc.RateLimit = cfg.NDEP.RateLimit
	lc.RateBurst = cfg.NDEP.RateBurst
	return lc
}

// pinger is implemented by network stores.
type pinger interface {
	Ping(ctx context.Context) error
}

func startOpsServer(
	cfg *config.ServerConfig,
	reg *metric.Registry,
	log *slog.Logger,
	store service.ReplayStore,
	listener *ndepserver.Server,
	sh *shutdown.Handler,
) (*httpserver.Server, error) {
	checks := map[string]handler.ReadyCheck{
		"listener": func(context.Context) error {
			if listener.Addr() == nil {
				return errors.New("not bound")
			}
			return nil
		},
	}
	if p, ok := store.(pinger); ok {
		checks["replay_store"] = p.Ping
	}

	h := handler.New(handler.Config{
		Logger:          log,
		Checks:          checks,
		CheckTimeout:    cfg.ReplayStore.Timeout,
		DriftLimit:      cfg.Enrollment.DriftLimit(),
		RegistrationTTL: cfg.Enrollment.RegistrationTTL(),
	})
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler: h,
		Metrics: reg,
		Logger:  log,
	})

	srv := httpserver.New(cfg.HTTP.Addr, router)
	addr, err := srv.Listen()
	if err != nil {
		return nil, fmt.Errorf("start ops http server: %w", err)
	}

	go func() {
		log.Info("ops HTTP server listening", "addr", addr.String())
		if err := srv.Serve(); err != nil {
			log.Error("ops HTTP server error", "error", err)
			sh.Trigger("ops http server failed")
		}
	}()
	return srv, nil
}

// watchConfig reloads the config file on change. Only the log level is
// applied live; other changes are reported and need a restart.
func watchConfig(path string, loader *confloader.Loader, current *config.ServerConfig, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		watcher.Stop()
		return nil, err
	}

	applied := *current
	watcher.OnChange(func(string) {
		next := config.Default()
		if err := loader.Reload(next); err != nil {
			log.Error("config reload failed", "error", err)
			return
		}
		if err := config.Verify(next); err != nil {
			log.Error("reloaded config rejected", "error", err)
			return
		}

		if next.Log.Level != applied.Log.Level {
			from := logger.Level()
			if err := logger.SetLevel(next.Log.Level); err != nil {
				log.Error("log level not applied", "error", err)
			} else {
				log.Info("log level changed", "from", from, "to", logger.Level())
				applied.Log.Level = next.Log.Level
			}
		}

		rest := *next
		rest.Log = applied.Log
		if rest != applied {
			log.Warn("config file changed; restart to apply settings other than log.level")
		}
	})
	watcher.StartAsync()
	return watcher, nil
}

func closeStore(store service.ReplayStore, log *slog.Logger) error {
	c, ok := store.(io.Closer)
	if !ok {
		return nil
	}
	if err := c.Close(); err != nil {
		log.Error("close replay store", "error", err)
		return err
	}
	return nil
}
