package main

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/studioledger/studioledger/internal/clock"
	"github.com/studioledger/studioledger/internal/config"
	"github.com/studioledger/studioledger/internal/logger"
	"github.com/studioledger/studioledger/internal/migration"
	"github.com/studioledger/studioledger/internal/observability"
	"github.com/studioledger/studioledger/internal/reconcile"
	reconciledomain "github.com/studioledger/studioledger/internal/reconcile/domain"
	"github.com/studioledger/studioledger/internal/store"
	"github.com/studioledger/studioledger/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		store.Module,
		migration.Module,

		// Functional domains
		reconcile.Module,

		fx.Invoke(runOnStartup),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) *snowflake.Node {
	node, err := snowflake.NewNode(cfg.SnowflakeNodeID)
	if err != nil {
		panic(err)
	}
	return node
}

// runOnStartup triggers one batch run from the fx lifecycle and shuts the
// process down when it finishes. Disable with RUN_ON_STARTUP=false to keep
// the process alive for incremental calls.
func runOnStartup(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg config.Config,
	log *zap.Logger,
	svc reconciledomain.Service,
) {
	if !cfg.RunOnStartup {
		return
	}

	opts := reconciledomain.RunOptions{ApplyDiscounts: cfg.ApplyDiscounts}
	if from, ok := parseRunDate(cfg.RunFromDate); ok {
		opts.FromDate = &from
	}
	if to, ok := parseRunDate(cfg.RunToDate); ok {
		opts.ToDate = &to
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				summary, err := svc.RunBatch(context.Background(), opts)
				if err != nil {
					log.Error("batch run failed", zap.Error(err))
				} else {
					log.Info("batch run complete",
						zap.Int("total", summary.Total),
						zap.Float64("verified_rate", summary.VerifiedRate()),
					)
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}

func parseRunDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
