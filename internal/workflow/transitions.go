// Package workflow drives a calibration job through condition check,
// testing and verification.
package workflow

import (
	"errors"
	"fmt"

	"calibration-qa-backend/internal/calib"
	"calibration-qa-backend/internal/model"
)

// ErrInvalidTransition is returned when a step is submitted out of order.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// ConditionInput is the step 1 form.
type ConditionInput struct {
	CalDate model.Date `json:"calDate"`
	EnvTemp *float64   `json:"envTemp"`
	EnvRH   *float64   `json:"envRH"`
	Notes   string     `json:"notes"`
}

// VerifyInput is the step 3 form.
type VerifyInput struct {
	Conclusion model.Conclusion `json:"conclusion"`
	Notes      string           `json:"notes"`
}

func expectStep(job *model.CalibrationJob, step model.WorkflowStep) error {
	if job.Status == model.JobCompleted {
		return fmt.Errorf("%w: job %s is already completed", ErrInvalidTransition, job.ID)
	}
	if job.Step != step {
		return fmt.Errorf("%w: job %s is at step %d (%s), not %d (%s)",
			ErrInvalidTransition, job.ID, job.Step, job.Step.Label(), step, step.Label())
	}
	return nil
}

// SubmitCondition records the calibration date and ambient conditions and
// moves the job to testing.
func SubmitCondition(job *model.CalibrationJob, in ConditionInput) error {
	if err := expectStep(job, model.StepCondition); err != nil {
		return err
	}
	errs := calib.ValidationErrors{}
	if in.CalDate.IsZero() {
		errs["calDate"] = "Tanggal kalibrasi wajib diisi"
	}
	if in.EnvTemp == nil {
		errs["envTemp"] = "Suhu lingkungan wajib diisi"
	}
	switch {
	case in.EnvRH == nil:
		errs["envRH"] = "Kelembaban relatif wajib diisi"
	case *in.EnvRH < 0 || *in.EnvRH > 100:
		errs["envRH"] = "Kelembaban relatif harus 0-100%"
	}
	if err := errs.OrNil(); err != nil {
		return err
	}

	job.CalDate = in.CalDate
	job.EnvTemp = in.EnvTemp
	job.EnvRH = in.EnvRH
	if in.Notes != "" {
		job.Notes = in.Notes
	}
	job.Step = model.StepTesting
	return nil
}

// SubmitReadings evaluates the test points against spec and moves the job
// to verification.
func SubmitReadings(job *model.CalibrationJob, readings []model.Reading, spec calib.Spec) error {
	if err := expectStep(job, model.StepTesting); err != nil {
		return err
	}
	if len(readings) == 0 {
		return calib.ValidationErrors{"readings": "Minimal satu titik pengujian wajib diisi"}
	}
	job.Readings = calib.EvaluateReadings(readings, spec)
	job.Step = model.StepVerification
	return nil
}

// Back returns the job to the previous step. Step 1 is the floor.
func Back(job *model.CalibrationJob) error {
	if job.Status == model.JobCompleted {
		return fmt.Errorf("%w: job %s is already completed", ErrInvalidTransition, job.ID)
	}
	if job.Step > model.StepCondition {
		job.Step--
	}
	return nil
}

// Verify sets the conclusion. MS is refused while any reading is out of
// tolerance.
func Verify(job *model.CalibrationJob, in VerifyInput) error {
	if err := expectStep(job, model.StepVerification); err != nil {
		return err
	}
	if !in.Conclusion.Valid() {
		return calib.ValidationErrors{"conclusion": "Kesimpulan wajib MS atau TMS"}
	}
	if in.Conclusion == model.ConclusionMS && !calib.AllPass(job.Readings) {
		return calib.ValidationErrors{"conclusion": "Kesimpulan MS tidak dapat dipilih, ada titik pengujian di luar toleransi"}
	}
	job.Conclusion = in.Conclusion
	if in.Notes != "" {
		job.Notes = in.Notes
	}
	return nil
}

// Outcome maps a conclusion to the record result and the instrument status.
func Outcome(c model.Conclusion, readings []model.Reading) (model.Result, model.AssetStatus) {
	if c == model.ConclusionTMS {
		return model.ResultFail, model.StatusOutOfService
	}
	return calib.Summarize(readings).Result, model.StatusOperational
}
