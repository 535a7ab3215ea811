package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sdwr/cowprofit/internal/config"
	"github.com/sdwr/cowprofit/internal/enhance"
	"github.com/sdwr/cowprofit/internal/game"
	"github.com/sdwr/cowprofit/internal/httpapi"
	"github.com/sdwr/cowprofit/internal/logger"
	"github.com/sdwr/cowprofit/internal/metrics"
	"github.com/sdwr/cowprofit/internal/pricing"
	"github.com/sdwr/cowprofit/internal/rpc"
	"github.com/sdwr/cowprofit/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "cowprofit:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	closer := logger.Init(cfg.Logger(), os.Stdout)
	defer closer.Close()

	mode, err := pricing.ParsePriceMode(cfg.PriceMode)
	if err != nil {
		return err
	}

	loader := game.NewLoader(cfg.DataDir)
	if _, err := loader.LoadGame(); err != nil {
		return fmt.Errorf("load game data: %w", err)
	}

	var cache *enhance.Cache
	if cfg.CacheSize > 0 {
		cache = enhance.NewCache(cfg.CacheSize, cfg.CacheTTL)
	}
	svc := service.New(loader, service.Options{
		DefaultProfile: cfg.DefaultProfile,
		PriceMode:      mode,
		Cache:          cache,
	})
	loadMarket(svc, cfg.MarketFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if cfg.ReloadInterval > 0 {
		gameWatcher := game.WatchLoader(loader, cfg.ReloadInterval, func() {
			svc.InvalidateCache()
			metrics.GameDataReloads.Inc()
		}, cfg.DefaultProfile)
		marketWatcher := game.NewFileWatcher([]string{cfg.MarketFile}, cfg.ReloadInterval, func(path string) {
			loadMarket(svc, path)
		})
		wg.Add(2)
		go func() { defer wg.Done(); gameWatcher.Run(ctx) }()
		go func() { defer wg.Done(); marketWatcher.Run(ctx) }()
	}

	errCh := make(chan error, 2)

	var httpSrv *httpapi.Server
	if cfg.HTTPAddr != "" {
		httpSrv = httpapi.NewServer(cfg.HTTPAddr, svc)
		go func() {
			if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	if cfg.GRPCAddr != "" {
		grpcSrv, err := rpc.NewWithAddr(cfg.GRPCAddr, svc)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := grpcSrv.Serve(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	slog.Info("cowprofit started",
		"http_addr", cfg.HTTPAddr,
		"grpc_addr", cfg.GRPCAddr,
		"data_dir", cfg.DataDir,
		"price_mode", mode)

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
	case runErr = <-errCh:
		slog.Error("Server failed", "error", runErr)
		stop()
	}

	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Stop(shutdownCtx); err != nil {
			slog.Error("HTTP shutdown failed", "error", err)
		}
	}
	wg.Wait()
	slog.Info("Shutdown complete")
	return runErr
}

// loadMarket swaps in the snapshot at path. A missing or bad file keeps the
// current prices.
func loadMarket(svc *service.Service, path string) {
	if path == "" {
		return
	}
	m, err := pricing.LoadMarketFile(path)
	if err != nil {
		slog.Warn("Market snapshot not loaded", "path", path, "error", err)
		return
	}
	svc.SetMarket(m)
	slog.Info("Market snapshot loaded", "path", path, "items", len(m.Prices), "timestamp", m.Timestamp)
}
