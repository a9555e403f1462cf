package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/dexhunter/internal/engine"
	"github.com/alanyoungcy/dexhunter/internal/server"
	"github.com/alanyoungcy/dexhunter/internal/server/handler"
	"github.com/alanyoungcy/dexhunter/internal/server/ws"
)

// storeOptions returns the driver options for whatever persistence is wired.
func storeOptions(deps *Dependencies) []engine.DriverOption {
	var opts []engine.DriverOption
	if deps.ScanStore != nil {
		opts = append(opts, engine.WithScanStore(deps.ScanStore))
	}
	if deps.ExecutionStore != nil {
		opts = append(opts, engine.WithExecutionStore(deps.ExecutionStore))
	}
	return opts
}

// ScanMode runs the detection pipeline only: fetch, filter, score, rank, and
// persist. No transactions are ever signed or sent.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	driver := engine.NewDriver(deps.Scanner, deps.Rotator, a.cfg, a.logger, storeOptions(deps)...)
	return driver.Run(ctx)
}

// TradeMode runs the full pipeline: detection plus the decision engine and
// the execution pipeline.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting trade mode")

	opts := append(storeOptions(deps), engine.WithTrading(deps.Decision, deps.Executor))
	driver := engine.NewDriver(deps.Scanner, deps.Rotator, a.cfg, a.logger, opts...)
	return driver.Run(ctx)
}

// FullMode runs trade mode plus the HTTP status API and the WebSocket scan
// stream.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	hub := ws.NewHub(a.logger)

	opts := append(storeOptions(deps),
		engine.WithTrading(deps.Decision, deps.Executor),
		engine.WithPublisher(hub),
	)
	driver := engine.NewDriver(deps.Scanner, deps.Rotator, a.cfg, a.logger, opts...)

	srv := server.NewServer(a.cfg.Server.Port, server.Handlers{
		Health:    handler.NewHealthHandler(a.logger),
		Status:    handler.NewStatusHandler(driver, a.logger),
		History:   handler.NewHistoryHandler(deps.ScanStore, deps.ExecutionStore, a.logger),
		Snapshots: handler.NewSnapshotsHandler(deps.Snapshots, a.logger),
	}, hub, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return driver.Run(ctx)
	})
	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = hub.Shutdown(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
