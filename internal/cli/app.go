package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/foldtable/internal/config"
	"github.com/aretw0/foldtable/internal/logging"
	"github.com/aretw0/foldtable/internal/sanitize"
	"github.com/aretw0/foldtable/pkg/adapters/file"
	"github.com/aretw0/foldtable/pkg/adapters/memory"
	"github.com/aretw0/foldtable/pkg/adapters/redis"
	"github.com/aretw0/foldtable/pkg/domain"
	"github.com/aretw0/foldtable/pkg/persistence/middleware"
	"github.com/aretw0/foldtable/pkg/ports"
	"github.com/aretw0/foldtable/pkg/reducer"
	"github.com/aretw0/foldtable/pkg/rules"
	"github.com/aretw0/foldtable/pkg/stream"
)

// Options are the flags shared by every command.
type Options struct {
	RulesPath string
	// Glue overrides the glue of the rule file when not empty.
	Glue string
	// Strict forces collision errors regardless of the rule file.
	Strict bool
	Debug  bool
}

// DocReducer is the reducer built from a rule file.
type DocReducer = reducer.Reducer[domain.Document, domain.Record]

// App bundles everything a command needs.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Definition *rules.Definition
	Reducer    *DocReducer
	Sanitizer  *sanitize.Sanitizer

	closers []func() error
}

// NewApp loads the rule file and builds its reducer.
func NewApp(cfg *config.Config, opts Options, extra ...reducer.Option) (*App, error) {
	logger := createLogger(cfg, opts.Debug)

	if opts.RulesPath == "" {
		return nil, errors.New("a rule file is required (--rules)")
	}
	def, err := rules.Load(opts.RulesPath)
	if err != nil {
		return nil, err
	}

	reducerOpts := []reducer.Option{reducer.WithLogger(logger)}
	if opts.Glue != "" {
		reducerOpts = append(reducerOpts, reducer.WithGlue(opts.Glue))
	}
	if opts.Strict {
		reducerOpts = append(reducerOpts, reducer.WithStrict(true))
	}
	if cfg.Production() {
		reducerOpts = append(reducerOpts, reducer.WithDiagnostics(false))
	}
	reducerOpts = append(reducerOpts, extra...)

	r, err := def.Reducer(reducerOpts...)
	if err != nil {
		return nil, err
	}

	logger.Debug("Rules loaded",
		"path", opts.RulesPath,
		"name", def.Name,
		"handlers", r.Table().Len(),
	)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Definition: def,
		Reducer:    r,
		Sanitizer:  sanitize.New(cfg.MaxInputSize),
	}, nil
}

// Keys returns the flattened handler keys in table order.
func (a *App) Keys() []string {
	return a.Reducer.Table().Keys()
}

// OpenStore creates the configured snapshot store, wrapped with encryption when a key is set.
// The locker is only returned for shared backends.
func (a *App) OpenStore() (ports.SnapshotStore, ports.DistributedLocker, error) {
	var (
		store  ports.SnapshotStore
		locker ports.DistributedLocker
	)

	switch a.Config.Store {
	case config.StoreFile:
		store = file.NewStore(a.Config.StoreDir)
	case config.StoreRedis:
		redisOpts := []redis.Option{
			redis.WithTTL(a.Config.RedisTTL),
			redis.WithPrefix(a.Config.RedisPrefix),
		}
		if a.Config.RedisVersionCheck {
			redisOpts = append(redisOpts, redis.WithVersionCheck())
		}
		rs := redis.New(a.Config.RedisAddr, a.Config.RedisPassword, a.Config.RedisDB, redisOpts...)
		a.closers = append(a.closers, rs.Close)
		store = rs
		locker = redis.NewLocker(rs.Client(), a.Config.RedisPrefix)
	default:
		store = memory.NewStore()
	}

	active, fallback, err := a.Config.Encryption()
	if err != nil {
		return nil, nil, err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, nil, err
		}
		store = middleware.Chain(store, mw)
	}

	a.Logger.Debug("Store opened", "backend", a.Config.Store, "encrypted", active != nil)
	return store, locker, nil
}

// NewManager opens the store and returns a stream manager around the reducer.
func (a *App) NewManager(opts ...stream.Option) (*stream.Manager, error) {
	store, locker, err := a.OpenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	managerOpts := []stream.Option{
		stream.WithLogger(a.Logger),
		stream.WithLockTTL(a.Config.LockTTL),
	}
	if locker != nil {
		managerOpts = append(managerOpts, stream.WithLocker(locker))
	}
	return stream.NewManager(store, a.Reducer, append(managerOpts, opts...)...), nil
}

// Close releases connections opened by OpenStore.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// createLogger configures the application logger.
// Debug forces the debug level regardless of FOLDTABLE_LOG_LEVEL.
func createLogger(cfg *config.Config, debug bool) *slog.Logger {
	level := logging.ParseLevel(cfg.LogLevel)
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithFormat(cfg.LogFormat, level)
}
