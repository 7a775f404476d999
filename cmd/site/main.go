package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"nananom-farms/site/internal/auth"
	"nananom-farms/site/internal/config"
	"nananom-farms/site/internal/httpapi"
	"nananom-farms/site/internal/logger"
	"nananom-farms/site/internal/store"
	"nananom-farms/site/internal/store/jsonfile"
	"nananom-farms/site/internal/store/postgres"
)

func main() {
	configPath := flag.String("config", os.Getenv("SITE_CONFIG"), "path to config file")
	flag.Parse()

	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("loading config: %v", err)
	}
	logger.Configure(cfg.LogLevel, cfg.LogFormat)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	var st store.Store
	var closer func()

	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(rootCtx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("failed to init postgres store: %v", err)
		}
		st = pg
		closer = pg.Close
		logger.Infof("using postgres store")
	} else {
		fs, err := jsonfile.New(cfg.DataDir)
		if err != nil {
			logger.Fatalf("failed to init file store: %v", err)
		}
		st = fs
		logger.Infof("using file store in %s", cfg.DataDir)
	}

	if closer != nil {
		defer closer()
	}

	authSvc, err := auth.New(rootCtx, cfg, st)
	if err != nil {
		logger.Fatalf("failed to init auth: %v", err)
	}

	srv := httpapi.NewServer(cfg, st, authSvc)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("site listening on %s", cfg.ListenAddr())
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Infof("shutdown requested")
	case err := <-errCh:
		logger.Errorf("server error: %v", err)
	}

	cancelRoot()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
}
