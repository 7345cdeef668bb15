package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"calibration-qa-backend/config"
	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/notification"
	"calibration-qa-backend/internal/store"
	"calibration-qa-backend/internal/testutil"
)

// mockStore is a mock implementation of the scheduler Store.
type mockStore struct {
	MarkOverdueFunc    func(ctx context.Context, today model.Date) ([]model.Instrument, error)
	ListDueBetweenFunc func(ctx context.Context, from, to model.Date) ([]model.Instrument, error)
	GetSettingsFunc    func(ctx context.Context) (*model.Settings, error)
}

func (m *mockStore) MarkOverdue(ctx context.Context, today model.Date) ([]model.Instrument, error) {
	return m.MarkOverdueFunc(ctx, today)
}

func (m *mockStore) ListDueBetween(ctx context.Context, from, to model.Date) ([]model.Instrument, error) {
	return m.ListDueBetweenFunc(ctx, from, to)
}

func (m *mockStore) GetSettings(ctx context.Context) (*model.Settings, error) {
	return m.GetSettingsFunc(ctx)
}

type recordingPool struct {
	mu      sync.Mutex
	jobs    []notification.Job
	started bool
}

func (p *recordingPool) Start(ctx context.Context) { p.started = true }

func (p *recordingPool) Dispatch(job notification.Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return true
}

func testConfig() *config.Config {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{Enabled: true, Timezone: "UTC"}}
	cfg.ApplyDefaults()
	return cfg
}

func fixedClock(s *Service, day string) {
	d := model.MustDate(day)
	s.now = func() time.Time { return d.Time.Add(9 * time.Hour) }
}

func TestScanOnce(t *testing.T) {
	var gotFrom, gotTo model.Date
	ms := &mockStore{
		MarkOverdueFunc: func(ctx context.Context, today model.Date) ([]model.Instrument, error) {
			return []model.Instrument{{ID: "INS-001", Code: "TEMP-01", NextCalibration: model.MustDate("2024-04-09")}}, nil
		},
		ListDueBetweenFunc: func(ctx context.Context, from, to model.Date) ([]model.Instrument, error) {
			gotFrom, gotTo = from, to
			return []model.Instrument{{ID: "INS-003", Code: "WGH-12", NextCalibration: model.MustDate("2024-04-13")}}, nil
		},
		GetSettingsFunc: func(ctx context.Context) (*model.Settings, error) {
			return &model.Settings{DueSoonDays: 5}, nil
		},
	}
	pool := &recordingPool{}
	svc := NewService(testConfig(), ms, pool, zap.NewNop())
	fixedClock(svc, "2024-04-10")

	res := svc.ScanOnce(context.Background())

	assert.Equal(t, []string{"TEMP-01"}, res.Overdue)
	assert.Equal(t, 1, res.DueSoon)
	assert.Equal(t, 2, res.Dispatched)
	assert.Equal(t, "2024-04-10", gotFrom.String())
	assert.Equal(t, "2024-04-15", gotTo.String())
	assert.Equal(t, []notification.Job{
		{InstrumentID: "INS-001", DaysLeft: -1},
		{InstrumentID: "INS-003", DaysLeft: 3},
	}, pool.jobs)

	t.Run("same day is not notified twice", func(t *testing.T) {
		res := svc.ScanOnce(context.Background())
		assert.Equal(t, 0, res.Dispatched)
	})

	t.Run("next day notifies again", func(t *testing.T) {
		fixedClock(svc, "2024-04-11")
		res := svc.ScanOnce(context.Background())
		assert.Equal(t, 2, res.Dispatched)
	})
}

func TestScanOnce_SettingsErrorUsesDefaultWindow(t *testing.T) {
	var gotTo model.Date
	ms := &mockStore{
		MarkOverdueFunc: func(ctx context.Context, today model.Date) ([]model.Instrument, error) {
			return nil, errors.New("db down")
		},
		ListDueBetweenFunc: func(ctx context.Context, from, to model.Date) ([]model.Instrument, error) {
			gotTo = to
			return nil, nil
		},
		GetSettingsFunc: func(ctx context.Context) (*model.Settings, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewService(testConfig(), ms, nil, zap.NewNop())
	fixedClock(svc, "2024-04-10")

	res := svc.ScanOnce(context.Background())
	assert.Empty(t, res.Overdue)
	assert.Equal(t, "2024-04-17", gotTo.String())
}

func TestScanOnce_Integration(t *testing.T) {
	gormDB := testutil.SetupSeededDB(t)
	s := store.NewGormStore(gormDB)
	pool := &recordingPool{}
	svc := NewService(testConfig(), s, pool, zap.NewNop())
	fixedClock(svc, "2024-04-12")

	res := svc.ScanOnce(context.Background())
	assert.Empty(t, res.Overdue, "TEMP-01 is due on 2024-04-15, not yet overdue")
	assert.Equal(t, 1, res.DueSoon)

	fixedClock(svc, "2024-04-20")
	res = svc.ScanOnce(context.Background())
	assert.Equal(t, []string{"TEMP-01"}, res.Overdue)

	inst, err := s.GetInstrument(context.Background(), "INS-001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCalibrationDue, inst.Status)

	var entry model.AuditLog
	require.NoError(t, gormDB.Where("action = ?", model.ActionAutoStatus).First(&entry).Error)
	assert.Equal(t, model.SystemUser, entry.User)
}

func TestScanOnce_FlushesViewsOnStatusChange(t *testing.T) {
	var overdue []model.Instrument
	ms := &mockStore{
		MarkOverdueFunc: func(ctx context.Context, today model.Date) ([]model.Instrument, error) {
			return overdue, nil
		},
		ListDueBetweenFunc: func(ctx context.Context, from, to model.Date) ([]model.Instrument, error) {
			return nil, nil
		},
		GetSettingsFunc: func(ctx context.Context) (*model.Settings, error) {
			return &model.Settings{DueSoonDays: 7}, nil
		},
	}
	views := cache.New(time.Minute, 2*time.Minute)
	svc := NewService(testConfig(), ms, nil, zap.NewNop())
	svc.FlushOnChange(views)
	fixedClock(svc, "2024-04-10")

	views.SetDefault("QA|/api/dashboard/stats", "stale")
	svc.ScanOnce(context.Background())
	assert.Equal(t, 1, views.ItemCount(), "nothing changed, cache kept")

	overdue = []model.Instrument{{ID: "INS-001", Code: "TEMP-01"}}
	svc.ScanOnce(context.Background())
	assert.Zero(t, views.ItemCount())
}

func TestRun_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.Enabled = false
	pool := &recordingPool{}
	svc := NewService(cfg, &mockStore{}, pool, zap.NewNop())

	svc.Run(context.Background())
	assert.False(t, pool.started)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ms := &mockStore{
		MarkOverdueFunc: func(ctx context.Context, today model.Date) ([]model.Instrument, error) { return nil, nil },
		ListDueBetweenFunc: func(ctx context.Context, from, to model.Date) ([]model.Instrument, error) {
			return nil, nil
		},
		GetSettingsFunc: func(ctx context.Context) (*model.Settings, error) { return &model.Settings{DueSoonDays: 7}, nil },
	}
	pool := &recordingPool{}
	svc := NewService(testConfig(), ms, pool, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.True(t, pool.started)
}
