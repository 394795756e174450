// Package maintenance provides scheduled upkeep for the caching and
// rate-limiting storages.
//
// The sweeper periodically invalidates expired entries across registered
// managers so that storages with lazy expiry do not accumulate stale state
// between accesses.
package maintenance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"cachegate/internal/observability/logging"
	"cachegate/pkg/cache"
	"cachegate/pkg/ratelimit"
)

// SweeperConfig holds configuration for the Sweeper.
type SweeperConfig struct {
	// Schedule is the cron expression driving the sweep.
	// Default: "@every 5m".
	Schedule string

	// Location is the zone the schedule is evaluated in. Default: UTC.
	Location *time.Location

	// Timeout bounds one sweep run. Default: 1m.
	Timeout time.Duration

	// Logger receives sweep output. Default: slog.Default().
	Logger *slog.Logger
}

// Sweeper runs Invalidate over registered managers on a cron schedule.
//
// All methods are thread-safe. The sweeper owns its cron scheduler; Stop
// waits for an in-flight sweep to finish.
type Sweeper struct {
	mu                sync.Mutex
	cacheManagers     []cache.Manager
	rateLimitManagers []ratelimit.Manager

	schedule string
	timeout  time.Duration
	logger   *slog.Logger
	cron     *cron.Cron
	entryID  cron.EntryID
	started  bool
}

// NewSweeper creates a sweeper with the given configuration.
func NewSweeper(cfg SweeperConfig) *Sweeper {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 5m"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Sweeper{
		schedule: cfg.Schedule,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
		cron:     cron.New(cron.WithLocation(cfg.Location)),
	}
}

// RegisterCacheManager adds a cache manager to the sweep set.
func (s *Sweeper) RegisterCacheManager(m cache.Manager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheManagers = append(s.cacheManagers, m)
}

// RegisterRateLimitManager adds a rate limit manager to the sweep set.
func (s *Sweeper) RegisterRateLimitManager(m ratelimit.Manager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateLimitManagers = append(s.rateLimitManagers, m)
}

// Start schedules the sweep and starts the cron scheduler.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.sweep)
	if err != nil {
		return err
	}
	s.entryID = entryID
	s.cron.Start()
	s.started = true
	s.logger.Info("maintenance sweeper started",
		slog.String("schedule", s.schedule))
	return nil
}

// Stop halts the scheduler and waits for an in-flight sweep to complete.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("maintenance sweeper stopped")
}

// Sweep runs one invalidation pass immediately.
//
// Every storage of every registered manager is invalidated; one failing
// storage does not stop the pass. A logger carried in the context (via
// logging.WithLogger) takes precedence over the sweeper's own.
func (s *Sweeper) Sweep(ctx context.Context) {
	logger := logging.FromContext(ctx)
	if logger == slog.Default() {
		logger = logging.WithComponent(s.logger, "sweeper")
	}

	s.mu.Lock()
	cacheManagers := append([]cache.Manager(nil), s.cacheManagers...)
	rateLimitManagers := append([]ratelimit.Manager(nil), s.rateLimitManagers...)
	s.mu.Unlock()

	for _, manager := range cacheManagers {
		for _, name := range manager.CacheNames() {
			storage, err := manager.GetCache(ctx, name)
			if err != nil || storage == nil {
				continue
			}
			if err := storage.Invalidate(ctx); err != nil {
				logger.DebugContext(ctx, "cache invalidate failed",
					slog.String("cache", name),
					slog.String("error", err.Error()))
			}
		}
	}

	for _, manager := range rateLimitManagers {
		for _, name := range manager.StorageNames() {
			storage, err := manager.GetStorage(ctx, name)
			if err != nil || storage == nil {
				continue
			}
			if err := storage.Invalidate(ctx); err != nil {
				logger.DebugContext(ctx, "rate limit invalidate failed",
					slog.String("storage", name),
					slog.String("error", err.Error()))
			}
		}
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.Sweep(logging.WithLogger(ctx, logging.WithComponent(s.logger, "sweeper")))
}
