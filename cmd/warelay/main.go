package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"warelay/internal/cache"
	"warelay/internal/config"
	"warelay/internal/dispatch"
	"warelay/internal/events"
	"warelay/internal/handler"
	"warelay/internal/ingress"
	"warelay/internal/journal"
	"warelay/internal/lock"
	"warelay/internal/log"
	"warelay/internal/outbound"
	"warelay/internal/platform"
	"warelay/internal/platform/wacloud"
	"warelay/internal/session"
	"warelay/internal/storage"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "start":
		os.Exit(runStart(args))
	case "check":
		os.Exit(runCheck(args))
	case "version":
		fmt.Printf("warelay version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`warelay - WhatsApp Cloud API webhook relay

Usage:
  warelay <command> [flags]

Commands:
  start     Run the webhook server in the foreground
  check     Validate the configuration and exit
  version   Show version information
  help      Show this help message

Flags:
  -config   Path to the configuration file (default ./config.yaml)

Secrets can be supplied via environment (WARELAY_APP_SECRET,
WARELAY_VERIFY_TOKEN, WARELAY_ACCESS_TOKEN, WARELAY_REDIS_ADDR) or a .env
file in the working directory.
`)
}

func loadConfig(args []string, name string) (*config.Config, int) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", "./config.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return nil, 1
	}

	// Optional; secrets usually come from the real environment in production.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		return nil, 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, 1
	}
	return cfg, 0
}

func runCheck(args []string) int {
	if _, code := loadConfig(args, "check"); code != 0 {
		return code
	}
	fmt.Println("configuration OK")
	return 0
}

func runStart(args []string) int {
	cfg, code := loadConfig(args, "start")
	if code != 0 {
		return code
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("warelay starting", "version", version)

	lockPath := filepath.Join(filepath.Dir(cfg.Storage.Path), "warelay.lock")
	pidLock, err := lock.Acquire(lockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock", "path", lockPath, "error", err)
		return 1
	}
	defer pidLock.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.OpenSQLite(ctx, cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Storage.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.Storage.Path)

	backend, err := cacheBackend(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize cache backend", "backend", cfg.Cache.Backend, "error", err)
		return 1
	}
	logger.Info("cache backend ready", "backend", cfg.Cache.Backend)

	registry := platform.NewRegistry()
	if cfg.Platforms["whatsapp"].Enabled {
		if err := registry.Add(wacloud.New()); err != nil {
			logger.Error("failed to register platform adapter", "error", err)
			return 1
		}
	}
	if len(registry.Names()) == 0 {
		logger.Error("no platform adapters enabled")
		return 1
	}

	sessions := session.NewStore(db)
	proto := &handler.Prototype{
		Cache:        cache.NewFactory(backend),
		Sessions:     session.WriteFactory(sessions),
		ReadSessions: session.ReadFactory(sessions),
		Handler:      handler.NewEcho(log.WithComponent("handler")),
	}
	if cfg.Outbound.Enabled {
		client := outbound.NewWACloudClient(cfg.Credentials.PhoneNumberID, cfg.Credentials.AccessToken, nil)
		if cfg.Outbound.BaseURL != "" {
			client.SetBaseURL(cfg.Outbound.BaseURL)
		}
		proto.Outbound = client
		logger.Info("outbound messaging enabled", "phone_number_id", cfg.Credentials.PhoneNumberID)
	}

	hub := events.NewHub(256)
	disp := dispatch.New(proto, dispatch.EscalationConfig{
		Window:            cfg.Escalation.Window,
		Threshold:         cfg.Escalation.Threshold,
		CriticalThreshold: cfg.Escalation.CriticalThreshold,
		CriticalCodes:     cfg.Escalation.CriticalCodes,
	}, hub)

	server := ingress.New(ingress.Options{
		Config:      cfg.Ingress,
		AppSecret:   cfg.Credentials.AppSecret,
		VerifyToken: cfg.Credentials.VerifyToken,
		Registry:    registry,
		Dispatcher:  disp,
		Journal:     journal.New(db),
		Hub:         hub,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && err != context.Canceled {
			errCh <- err
		}
	}()

	logger.Info("warelay running (press Ctrl+C to stop)", "listen", cfg.Ingress.Listen)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	case err := <-errCh:
		logger.Error("ingress server failed", "error", err)
		cancel()
		return 1
	}

	// Give in-flight tasks a chance to finish before the process exits.
	server.Drain()
	logger.Info("warelay stopped")
	return 0
}

func cacheBackend(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.DialRedis(ctx, cfg.Cache.RedisAddr, "", cfg.Cache.RedisDB)
	case "file":
		return cache.NewFile(cfg.Cache.FileRoot)
	default:
		return cache.NewMemory(), nil
	}
}
