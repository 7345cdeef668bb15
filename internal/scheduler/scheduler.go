// Package scheduler periodically scans the registry for instruments that
// have passed or are approaching their calibration date.
package scheduler

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"calibration-qa-backend/config"
	"calibration-qa-backend/internal/calib"
	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/notification"
)

// Store is the subset of store.Store the scanner uses.
type Store interface {
	MarkOverdue(ctx context.Context, today model.Date) ([]model.Instrument, error)
	ListDueBetween(ctx context.Context, from, to model.Date) ([]model.Instrument, error)
	GetSettings(ctx context.Context) (*model.Settings, error)
}

// Dispatcher queues push notification jobs.
type Dispatcher interface {
	Start(ctx context.Context)
	Dispatch(job notification.Job) bool
}

// Flusher drops cached views; *cache.Cache satisfies it.
type Flusher interface {
	Flush()
}

// Result summarizes one scan.
type Result struct {
	Overdue    []string // codes flipped to CALIBRATION_DUE
	DueSoon    int
	Dispatched int
}

// Service orchestrates the due-date scan.
type Service struct {
	cfg   config.SchedulerConfig
	loc   *time.Location
	store Store
	pool  Dispatcher
	sent  *cache.Cache
	views Flusher
	log   *zap.Logger
	now   func() time.Time
}

// NewService creates a scanner. pool may be nil when push is disabled.
func NewService(cfg *config.Config, s Store, pool Dispatcher, log *zap.Logger) *Service {
	return &Service{
		cfg:   cfg.Scheduler,
		loc:   cfg.Location(),
		store: s,
		pool:  pool,
		sent:  cache.New(24*time.Hour, time.Hour),
		log:   log,
		now:   time.Now,
	}
}

// FlushOnChange registers a cache of rendered views that is flushed whenever
// a scan changes an instrument's status.
func (s *Service) FlushOnChange(views Flusher) {
	s.views = views
}

// Run starts the scanning process in a loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.log.Info("Scheduler is disabled. Not starting.")
		return
	}
	s.log.Info("Starting scheduler", zap.Duration("interval", s.cfg.Interval), zap.String("timezone", s.loc.String()))

	if s.pool != nil {
		s.pool.Start(ctx)
	}

	s.ScanOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scheduler shutting down.")
			return
		case <-timer.C:
			s.ScanOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// ScanOnce flips overdue instruments and dispatches due-soon reminders.
// Each instrument is notified at most once per day.
func (s *Service) ScanOnce(ctx context.Context) Result {
	var res Result
	today := model.DateOf(s.now().In(s.loc))

	overdue, err := s.store.MarkOverdue(ctx, today)
	if err != nil {
		s.log.Error("Failed to mark overdue instruments", zap.Error(err))
	}
	for _, inst := range overdue {
		res.Overdue = append(res.Overdue, inst.Code)
	}
	if len(overdue) > 0 {
		s.log.Info("Instruments marked due", zap.Strings("codes", res.Overdue))
		if s.views != nil {
			s.views.Flush()
		}
	}

	window := calib.DefaultDueSoonDays
	if settings, err := s.store.GetSettings(ctx); err != nil {
		s.log.Warn("Failed to load settings, using default window", zap.Error(err))
	} else if settings.DueSoonDays > 0 {
		window = settings.DueSoonDays
	}

	due, err := s.store.ListDueBetween(ctx, today, today.AddDays(window))
	if err != nil {
		s.log.Error("Failed to list due instruments", zap.Error(err))
		return res
	}
	res.DueSoon = len(due)

	if s.pool == nil {
		return res
	}
	candidates := make([]model.Instrument, 0, len(overdue)+len(due))
	candidates = append(candidates, overdue...)
	candidates = append(candidates, due...)
	for _, inst := range candidates {
		key := inst.ID + "|" + today.String()
		if _, found := s.sent.Get(key); found {
			continue
		}
		job := notification.Job{InstrumentID: inst.ID, DaysLeft: calib.DaysLeft(today, inst.NextCalibration)}
		if s.pool.Dispatch(job) {
			s.sent.SetDefault(key, struct{}{})
			res.Dispatched++
		}
	}
	s.log.Info("Scan finished",
		zap.Int("overdue", len(res.Overdue)),
		zap.Int("due_soon", res.DueSoon),
		zap.Int("dispatched", res.Dispatched))
	return res
}
