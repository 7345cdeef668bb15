package workflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/store"
	"calibration-qa-backend/internal/testutil"
	"calibration-qa-backend/internal/workflow"
)

func newService(t *testing.T) (*workflow.Service, store.Store) {
	s := store.NewGormStore(testutil.SetupSeededDB(t))
	return workflow.NewService(s, time.UTC, zap.NewNop()), s
}

func f(v float64) *float64 { return &v }

func TestService_FullRun(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	job, err := svc.Start(ctx, "INS-001", "Juan")
	require.NoError(t, err)
	assert.Equal(t, model.StepCondition, job.Step)
	assert.Equal(t, "Juan", job.Officer)

	again, err := svc.Start(ctx, "INS-001", "Naila")
	require.NoError(t, err)
	assert.Equal(t, job.ID, again.ID, "an open job is reused")

	_, err = svc.Condition(ctx, job.ID, workflow.ConditionInput{
		CalDate: model.MustDate("2024-04-10"), EnvTemp: f(21.8), EnvRH: f(48),
	})
	require.NoError(t, err)

	job, err = svc.Testing(ctx, job.ID, []model.Reading{
		{TestPoint: 25, AsFound: 25.3, AsLeft: 25.1},
		{TestPoint: 75, AsFound: 75.4, AsLeft: 75.2},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StepVerification, job.Step)

	rec, err := svc.Complete(ctx, job.ID, workflow.VerifyInput{Conclusion: model.ConclusionMS}, "Juan")
	require.NoError(t, err)

	assert.Equal(t, "CAL-TEMP-01-04", rec.ID)
	assert.Equal(t, "CERT/2024/04/TEMP-01-04", rec.CertificateNo)
	assert.Equal(t, "2024-10-10", rec.NextDue.String())
	assert.Equal(t, model.ResultPass, rec.Result)
	assert.Equal(t, 21.8, rec.EnvTemp)
	assert.InDelta(t, 0.2, rec.Deviation, 1e-9)

	inst, err := s.GetInstrument(ctx, "INS-001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOperational, inst.Status)
	assert.Equal(t, "2024-04-10", inst.LastCalibration.String())
	assert.Equal(t, "2024-10-10", inst.NextCalibration.String())

	closed, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, closed.Status)
	assert.Equal(t, rec.ID, closed.RecordID)

	_, err = svc.Back(ctx, job.ID)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestService_CompleteTMS(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	job, err := svc.Start(ctx, "INS-001", "Naila")
	require.NoError(t, err)
	_, err = svc.Condition(ctx, job.ID, workflow.ConditionInput{CalDate: model.MustDate("2024-05-02"), EnvTemp: f(22), EnvRH: f(50)})
	require.NoError(t, err)
	_, err = svc.Testing(ctx, job.ID, []model.Reading{{TestPoint: 50, AsFound: 51.2, AsLeft: 50.9}})
	require.NoError(t, err)

	_, err = svc.Complete(ctx, job.ID, workflow.VerifyInput{Conclusion: model.ConclusionMS}, "Naila")
	require.Error(t, err)

	rec, err := svc.Complete(ctx, job.ID, workflow.VerifyInput{Conclusion: model.ConclusionTMS}, "Naila")
	require.NoError(t, err)
	assert.Equal(t, model.ResultFail, rec.Result)

	inst, err := s.GetInstrument(ctx, "INS-001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOutOfService, inst.Status)
}

func TestService_StartUnknownInstrument(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Start(context.Background(), "INS-404", "Juan")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_QuickSubmit(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	rec, err := svc.QuickSubmit(ctx, "INS-002", model.MustDate("2024-03-15"), "Ade")
	require.NoError(t, err)
	assert.Equal(t, "CAL-PRES-05-04", rec.ID)
	assert.Equal(t, model.ConclusionMS, rec.Conclusion)

	inst, err := s.GetInstrument(ctx, "INS-002")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOperational, inst.Status)
	assert.Equal(t, "2024-09-15", inst.NextCalibration.String())

	_, err = svc.QuickSubmit(ctx, "INS-002", model.Date{}, "Ade")
	assert.Error(t, err)
}
