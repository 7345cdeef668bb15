// Package qualification manages DQ/IQ/OQ/PQ protocol items.
package qualification

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"calibration-qa-backend/internal/calib"
	"calibration-qa-backend/internal/model"
)

// Store is the persistence the qualification service needs.
type Store interface {
	ListProtocols(ctx context.Context, stage model.QualificationStage) ([]model.ProtocolItem, error)
	GetProtocol(ctx context.Context, id string) (*model.ProtocolItem, error)
	CreateProtocol(ctx context.Context, p *model.ProtocolItem, actor string) error
	UpdateProtocol(ctx context.Context, p *model.ProtocolItem, actor string) error
	DeleteProtocol(ctx context.Context, id, actor string) error
}

// Input is the protocol form.
type Input struct {
	Stage              model.QualificationStage `json:"stage"`
	Title              string                   `json:"title"`
	Status             model.ProtocolStatus     `json:"status"`
	Date               model.Date               `json:"date"`
	Procedure          string                   `json:"procedure"`
	AcceptanceCriteria string                   `json:"acceptanceCriteria"`
	Tester             string                   `json:"tester"`
	Results            string                   `json:"results"`
}

// Validate checks the form. Stage is only checked on create.
func (in Input) Validate(create bool) error {
	errs := calib.ValidationErrors{}
	if create && !in.Stage.Valid() {
		errs["stage"] = "Tahap kualifikasi tidak dikenal"
	}
	if strings.TrimSpace(in.Title) == "" {
		errs["title"] = "Judul pengujian wajib diisi"
	}
	if strings.TrimSpace(in.Procedure) == "" {
		errs["procedure"] = "Prosedur wajib diisi"
	}
	if strings.TrimSpace(in.AcceptanceCriteria) == "" {
		errs["acceptanceCriteria"] = "Kriteria penerimaan wajib diisi"
	}
	if strings.TrimSpace(in.Tester) == "" {
		errs["tester"] = "Penguji wajib diisi"
	}
	if in.Status != "" && !in.Status.Valid() {
		errs["status"] = "Status protokol tidak dikenal"
	}
	return errs.OrNil()
}

// StageProgress counts completed items of a stage.
type StageProgress struct {
	Stage     model.QualificationStage `json:"stage"`
	Label     string                   `json:"label"`
	Completed int                      `json:"completed"`
	Total     int                      `json:"total"`
	Percent   float64                  `json:"percent"`
}

// Service runs protocol CRUD.
type Service struct {
	store Store
	loc   *time.Location
	log   *zap.Logger
}

// NewService creates a qualification service.
func NewService(s Store, loc *time.Location, log *zap.Logger) *Service {
	return &Service{store: s, loc: loc, log: log}
}

// List returns the items of a stage, or all items for an empty stage.
func (s *Service) List(ctx context.Context, stage model.QualificationStage) ([]model.ProtocolItem, error) {
	if stage != "" && !stage.Valid() {
		return nil, calib.ValidationErrors{"stage": "Tahap kualifikasi tidak dikenal"}
	}
	return s.store.ListProtocols(ctx, stage)
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id string) (*model.ProtocolItem, error) {
	return s.store.GetProtocol(ctx, id)
}

// Create adds an item. Status defaults to PENDING and date to today.
func (s *Service) Create(ctx context.Context, in Input, actor string) (*model.ProtocolItem, error) {
	if err := in.Validate(true); err != nil {
		return nil, err
	}
	p := s.apply(&model.ProtocolItem{Stage: in.Stage}, in)
	if err := s.store.CreateProtocol(ctx, p, actor); err != nil {
		return nil, err
	}
	s.log.Info("Protocol created", zap.String("id", p.ID), zap.String("stage", string(p.Stage)))
	return p, nil
}

// Update replaces the editable fields of an item.
func (s *Service) Update(ctx context.Context, id string, in Input, actor string) (*model.ProtocolItem, error) {
	if err := in.Validate(false); err != nil {
		return nil, err
	}
	existing, err := s.store.GetProtocol(ctx, id)
	if err != nil {
		return nil, err
	}
	p := s.apply(existing, in)
	if err := s.store.UpdateProtocol(ctx, p, actor); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes an item.
func (s *Service) Delete(ctx context.Context, id, actor string) error {
	return s.store.DeleteProtocol(ctx, id, actor)
}

func (s *Service) apply(p *model.ProtocolItem, in Input) *model.ProtocolItem {
	p.Title = strings.TrimSpace(in.Title)
	p.Procedure = in.Procedure
	p.AcceptanceCriteria = in.AcceptanceCriteria
	p.Tester = in.Tester
	p.Results = in.Results
	p.Status = in.Status
	if p.Status == "" {
		p.Status = model.ProtocolPending
	}
	p.Date = in.Date
	if p.Date.IsZero() {
		p.Date = calib.Today(s.loc)
	}
	return p
}

// Progress reports completion for every stage in lifecycle order.
func (s *Service) Progress(ctx context.Context) ([]StageProgress, error) {
	items, err := s.store.ListProtocols(ctx, "")
	if err != nil {
		return nil, err
	}
	return Progress(items), nil
}

// Progress counts items per stage.
func Progress(items []model.ProtocolItem) []StageProgress {
	byStage := make(map[model.QualificationStage]*StageProgress, len(model.Stages))
	out := make([]StageProgress, len(model.Stages))
	for i, st := range model.Stages {
		out[i] = StageProgress{Stage: st, Label: st.Label()}
		byStage[st] = &out[i]
	}
	for _, it := range items {
		p, ok := byStage[it.Stage]
		if !ok {
			continue
		}
		p.Total++
		if it.Status == model.ProtocolCompleted {
			p.Completed++
		}
	}
	for i := range out {
		if out[i].Total > 0 {
			out[i].Percent = math.Round(float64(out[i].Completed)*1000/float64(out[i].Total)) / 10
		}
	}
	return out
}
