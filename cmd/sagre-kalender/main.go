package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/sagre-kalender/internal/app"
	"github.com/klabast/wb-services/sagre-kalender/internal/commands"
	"github.com/klabast/wb-services/sagre-kalender/internal/logger"
	"github.com/klabast/wb-services/sagre-kalender/internal/storage"
)

//go:embed static/*
var staticFiles embed.FS

//go:embed static/index.html
var indexHTML []byte

//go:embed static/edit.html
var editHTML []byte

func main() {
	// .env is optional
	_ = godotenv.Load()

	// Check for subcommands
	if len(os.Args) > 1 {
		var cmd func([]string) error
		switch os.Args[1] {
		case "hash-password":
			cmd = commands.HashPassword
		case "import":
			cmd = commands.Import
		case "check":
			cmd = commands.Check
		}
		if cmd != nil {
			if err := cmd(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	// Parse flags
	configPath := flag.String("config", app.DefaultConfigFile, "Path to YAML config file")
	port := flag.Int("port", 0, "Port to listen on (overrides config)")
	edit := flag.Bool("edit", false, "Enable edit mode (default is serve mode)")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Listen = fmt.Sprintf(":%d", *port)
	}
	if *edit {
		cfg.EditMode = true
	}

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *app.Config, zlog *zap.Logger) error {
	store, err := app.OpenStore(cfg, zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			zlog.Warn("failed to close store", zap.Error(err))
		}
	}()

	repo := storage.NewRepository(store, zlog)
	if err := repo.Load(); err != nil {
		return err
	}

	var auth *app.Auth
	if cfg.EditMode {
		if auth, err = app.LoadAuth(cfg.AuthFile, cfg.DemoLogin, zlog); err != nil {
			return fmt.Errorf("failed to load auth credentials: %w", err)
		}
	} else {
		// /api/login is served in both modes
		if auth, err = app.LoadAuth(cfg.AuthFile, cfg.DemoLogin, zlog); err != nil {
			zlog.Info("login disabled", zap.Error(err))
		}
	}

	srv, err := app.NewServer(cfg, repo, auth, zlog)
	if err != nil {
		return err
	}
	srv.IndexHTML = indexHTML
	srv.EditHTML = editHTML
	srv.StaticFiles = staticFiles

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	switch {
	case !cfg.BackupsEnabled():
	case store.Snapshots == nil:
		zlog.Info("scheduled backups are only available for the file store", zap.String("store", cfg.Store))
	default:
		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		backups, err := app.NewBackupScheduler(cfg.BackupCron, loc, store.Snapshots, zlog)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			backups.Run(ctx)
		}()
	}

	err = srv.Run(ctx)
	stop()
	wg.Wait()
	return err
}
