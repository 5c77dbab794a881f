package app

import (
	"context"
	"fmt"

	"github.com/veigalabs/chatdesk/internal/bus"
	"github.com/veigalabs/chatdesk/internal/cart"
	"github.com/veigalabs/chatdesk/internal/config"
	"github.com/veigalabs/chatdesk/internal/lock"
	"github.com/veigalabs/chatdesk/internal/logging"
	"github.com/veigalabs/chatdesk/internal/poll"
	"github.com/veigalabs/chatdesk/internal/profile"
	"github.com/veigalabs/chatdesk/internal/remote"
	"github.com/veigalabs/chatdesk/internal/send"
	"github.com/veigalabs/chatdesk/internal/store"
	intsync "github.com/veigalabs/chatdesk/internal/sync"
	"github.com/veigalabs/chatdesk/internal/tui"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
}

// Module returns the fx module for the console, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("chatdesk",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideLock,
			provideDB,
			provideMemory,
			provideClient,
			provideCart,
			provideReconciler,
			provideBridge,
			providePipeline,
			provideActivePoller,
			provideConversationPoller,
			provideApp,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName)
}

func provideConfig() (*config.Config, error) {
	cfg, err := config.Load(profile.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", profile.ConfigPath(), err)
	}
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideDB(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.DBPath(p.ProfileName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideMemory(b *bus.Bus) *store.Memory {
	return store.NewMemory(b)
}

func provideClient(cfg *config.Config) *remote.Client {
	return remote.NewClient(cfg.BackendURL, cfg.APIToken)
}

func provideCart(db *store.DB, b *bus.Bus) *cart.Cart {
	return cart.New(db, b)
}

func provideReconciler(mem *store.Memory, logger *zap.Logger) *intsync.Reconciler {
	return intsync.New(mem, logger)
}

func provideBridge() *tui.Bridge {
	return tui.NewBridge()
}

func providePipeline(mem *store.Memory, client *remote.Client, ct *cart.Cart, bridge *tui.Bridge, b *bus.Bus, logger *zap.Logger) *send.Pipeline {
	return send.NewPipeline(mem, client, client, ct, bridge, b, logger)
}

func provideActivePoller(client *remote.Client, rec *intsync.Reconciler, cfg *config.Config, logger *zap.Logger) *poll.ActivePoller {
	_, active := cfg.Intervals()
	return poll.NewActivePoller(client, rec, logger, active, 0)
}

func provideConversationPoller(client *remote.Client, mem *store.Memory, active *poll.ActivePoller, cfg *config.Config, logger *zap.Logger) *poll.ConversationPoller {
	conversations, _ := cfg.Intervals()
	p := poll.NewConversationPoller(client, mem, logger, conversations, 0)
	p.Active = active.Current
	return p
}

func provideApp(p Params, mem *store.Memory, db *store.DB, pipeline *send.Pipeline, active *poll.ActivePoller, bridge *tui.Bridge, b *bus.Bus, logger *zap.Logger) *tui.App {
	return tui.NewApp(p.ProfileName, mem, db, pipeline, active, bridge, b, logger)
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, db *store.DB, mem *store.Memory, ct *cart.Cart, convPoller *poll.ConversationPoller, activePoller *poll.ActivePoller, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := ct.Load(); err != nil {
				logger.Warn("load cart", zap.Error(err))
			}

			overrides, err := db.ListOverrides()
			if err != nil {
				logger.Warn("load contact overrides", zap.Error(err))
			} else {
				mem.SeedOverrides(overrides)
			}

			background := context.Background()
			activePoller.Start(background)
			convPoller.Start(background)

			logger.Info("engine started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			convPoller.Stop()
			activePoller.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("console stopped")
			return nil
		},
	})
}
