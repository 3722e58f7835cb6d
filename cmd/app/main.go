package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinwatch/internal/app"
	"coinwatch/internal/server"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	pprofAddr := flag.String("pprof", "", "pprof listen address (e.g. localhost:6060), empty disables")
	flag.Parse()

	// 1. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap(*configPath)
	if err := bootstrap.Initialize(ctx); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	// 3. Pprof Server (for performance profiling)
	if *pprofAddr != "" {
		go func() {
			slog.Info("🕵️ Pprof server started", slog.String("addr", *pprofAddr))
			if err := http.ListenAndServe(*pprofAddr, nil); err != nil {
				slog.Error("Pprof server failed", slog.Any("error", err))
			}
		}()
	}

	// 4. Background Asset Sync
	unsubscribe := bootstrap.SyncAssets(ctx)
	defer unsubscribe()

	// 5. HTTP + WebSocket server
	cfg := bootstrap.Config
	srv := server.New(bootstrap.Market, bootstrap.Icons(), bootstrap.Storage, cfg.Server.Debug)

	// 6. Market polling
	bootstrap.Market.Start(ctx, bootstrap.RefreshInterval())
	slog.InfoContext(ctx, "✅ Market polling started", slog.Duration("interval", bootstrap.RefreshInterval()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.Server.Addr)
	}()

	slog.InfoContext(ctx, "✨ coinwatch fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			slog.Error("❌ HTTP server failed", slog.Any("error", err))
		}
	}

	slog.Info("👋 Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", slog.Any("error", err))
	}
	bootstrap.Market.Stop()
}
