// Package report opens plan sessions and generates operating plan and annual
// compliance reports.
package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aapslab/report-atlas/pkg/adapters"
	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/models/store"
	"github.com/aapslab/report-atlas/pkg/services/plan"
	"github.com/aapslab/report-atlas/pkg/services/reportctx"
	"github.com/aapslab/report-atlas/pkg/services/schema"
	"github.com/aapslab/report-atlas/pkg/store/profile"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrNoProfile = errors.New("an author profile is required to generate reports")

type PlanSource interface {
	Entities(ctx context.Context) ([]domain.Entity, error)
	Entity(ctx context.Context, code string) (domain.Entity, error)
	Orders(ctx context.Context, entity domain.Entity, year int) ([]int, error)
	LoadTables(ctx context.Context, entity domain.Entity, key domain.PlanKey) (*domain.PlanTables, error)
	LegalReferences(ctx context.Context, code string) (domain.LegalReferences, error)
}

type AnnualSource interface {
	AnnualTables(ctx context.Context, entity domain.Entity, year int) (*domain.AnnualTables, error)
}

type Renderer interface {
	Render(ctx context.Context, id string, values map[string]any) ([]byte, error)
	Placeholders(id string) ([]string, error)
}

type Sink interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

type RowWriter interface {
	WriteRow(ctx context.Context, workbook, sheet string, key store.RowKey, values map[string]any) error
}

type ProfileStore interface {
	Get(ctx context.Context) (*domain.Profile, error)
	UpdateLastReportNumber(ctx context.Context, n int) error
}

// TxRunner runs fn in one storage transaction carried by the context.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Dependencies struct {
	Plans    PlanSource
	Annual   AnnualSource
	Renderer Renderer
	Sink     Sink
	Writer   RowWriter
	Profiles ProfileStore
	Tx       TxRunner
}

type Service struct {
	deps     Dependencies
	schema   *schema.Schema
	builder  *reportctx.Builder
	validate *validator.Validate
	now      func() time.Time

	// numbers serializes generations from reading the last report number to recording it.
	numbers sync.Mutex
}

func NewService(s *schema.Schema, deps Dependencies) *Service {
	if deps.Tx == nil {
		deps.Tx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{
		deps:     deps,
		schema:   s,
		builder:  reportctx.NewBuilder(s),
		validate: validator.New(),
		now:      time.Now,
	}
}

// Request carries the user input of a report generation.
type Request struct {
	Date     time.Time // zero means now
	Number   int       // zero means the profile's last number plus one
	Filename string    // empty means the default name
	// Author signs the report instead of the saved profile. Without a saved profile the
	// number defaults to 1 and is not recorded.
	Author *domain.Profile
}

type PlanRequest struct {
	Request
	Narrative domain.Narrative
}

type AnnualRequest struct {
	Request
	EPSA      string `validate:"required"`
	Year      int    `validate:"gt=1990"`
	Narrative domain.AnnualNarrative
}

// Output describes a generated document.
type Output struct {
	Name     string
	Location string
	Number   int
	Document []byte
}

func (s *Service) Entities(ctx context.Context) ([]domain.Entity, error) {
	return s.deps.Plans.Entities(ctx)
}

func (s *Service) Orders(ctx context.Context, code string, year int) ([]int, error) {
	entity, err := s.deps.Plans.Entity(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.deps.Plans.Orders(ctx, entity, year)
}

// OpenPlanSession resolves the selection and derives its editable tables.
func (s *Service) OpenPlanSession(ctx context.Context, sel Selection) (*Session, error) {
	if err := s.validate.Struct(sel); err != nil {
		return nil, fmt.Errorf("invalid selection: %w", err)
	}
	entity, err := s.deps.Plans.Entity(ctx, sel.EPSA)
	if err != nil {
		return nil, err
	}
	key := sel.Key()
	tables, err := s.deps.Plans.LoadTables(ctx, entity, key)
	if err != nil {
		return nil, err
	}
	legal, err := s.deps.Plans.LegalReferences(ctx, entity.Code)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("epsa", key.EPSA).Int("year", key.Year).Int("order", key.Order).Msg("plan session opened")
	return NewSession(uuid.NewString(), entity, key, legal, tables), nil
}

// DefaultPlanFilename is the document name used when the caller gives none.
func DefaultPlanFilename(t time.Time) string {
	return fmt.Sprintf("reporte_poa_%s_%d_%d_%d.docx", reportctx.MonthName(t.Month()), t.Day(), t.Hour(), t.Minute())
}

func DefaultAnnualFilename(epsa string, year int, t time.Time) string {
	return fmt.Sprintf("informe_anual_%s_%d_%s_%d_%d_%d.docx",
		epsa, year, reportctx.MonthName(t.Month()), t.Day(), t.Hour(), t.Minute())
}

func (s *Service) header(ctx context.Context, req Request, entity domain.Entity, legal domain.LegalReferences) (reportctx.Header, error) {
	stored, err := s.deps.Profiles.Get(ctx)
	switch {
	case err == nil && stored != nil:
	case req.Author != nil && (err == nil || errors.Is(err, profile.ErrNotFound)):
		stored = &domain.Profile{}
	case err == nil:
		return reportctx.Header{}, ErrNoProfile
	case req.Author != nil:
		return reportctx.Header{}, fmt.Errorf("load profile: %w", err)
	default:
		return reportctx.Header{}, fmt.Errorf("%w: %w", ErrNoProfile, err)
	}

	author := stored
	if req.Author != nil {
		if err := s.validate.Struct(req.Author); err != nil {
			return reportctx.Header{}, fmt.Errorf("invalid author: %w", err)
		}
		author = req.Author
	}

	h := reportctx.Header{Profile: *author, Number: req.Number, Date: req.Date, Entity: entity, Legal: legal}
	if h.Number == 0 {
		h.Number = stored.LastReportNumber + 1
	}
	if h.Number < 1 || h.Number > 999 {
		return reportctx.Header{}, fmt.Errorf("report number %d out of range 1-999", h.Number)
	}
	if h.Date.IsZero() {
		h.Date = s.now()
	}
	return h, nil
}

// GeneratePlanReport renders the session's plan report, saves it, writes edited values
// back to the cache and finally records the report number in the profile.
func (s *Service) GeneratePlanReport(ctx context.Context, session *Session, req PlanRequest) (*Output, error) {
	logger := zerolog.Ctx(ctx).With().Str("epsa", session.Key.EPSA).Int("year", session.Key.Year).
		Int("order", session.Key.Order).Logger()

	s.numbers.Lock()
	defer s.numbers.Unlock()

	h, err := s.header(ctx, req.Request, session.Entity, session.Legal)
	if err != nil {
		return nil, err
	}
	tables := session.Tables()
	id := reportctx.PlanTemplate(session.Entity.Regime())
	values, err := s.builder.Plan(h, session.Key, tables, req.Narrative)
	if err != nil {
		return nil, err
	}

	name := req.Filename
	if name == "" {
		name = DefaultPlanFilename(h.Date)
	}
	out, err := s.renderAndSave(ctx, id, values, name)
	if err != nil {
		return nil, err
	}
	out.Number = h.Number

	if err := s.writeBack(ctx, session.Entity, session.Key, tables); err != nil {
		logger.Error().Err(err).Str("location", out.Location).Msg("edited values not written back")
		return nil, err
	}
	session.clearEdits(tables)

	if err := s.deps.Profiles.UpdateLastReportNumber(ctx, h.Number); err != nil {
		return nil, fmt.Errorf("record report number: %w", err)
	}
	logger.Info().Str("location", out.Location).Int("number", h.Number).Msg("plan report generated")
	return out, nil
}

// GenerateAnnualReport renders and saves the annual compliance report of an entity.
func (s *Service) GenerateAnnualReport(ctx context.Context, req AnnualRequest) (*Output, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid annual request: %w", err)
	}
	entity, err := s.deps.Plans.Entity(ctx, req.EPSA)
	if err != nil {
		return nil, err
	}
	legal, err := s.deps.Plans.LegalReferences(ctx, entity.Code)
	if err != nil {
		return nil, err
	}

	s.numbers.Lock()
	defer s.numbers.Unlock()

	h, err := s.header(ctx, req.Request, entity, legal)
	if err != nil {
		return nil, err
	}
	tables, err := s.deps.Annual.AnnualTables(ctx, entity, req.Year)
	if err != nil {
		return nil, err
	}
	values, err := s.builder.Annual(h, tables, req.Narrative)
	if err != nil {
		return nil, err
	}

	name := req.Filename
	if name == "" {
		name = DefaultAnnualFilename(entity.Code, req.Year, h.Date)
	}
	out, err := s.renderAndSave(ctx, reportctx.TemplateAnnual, values, name)
	if err != nil {
		return nil, err
	}
	out.Number = h.Number

	if err := s.deps.Profiles.UpdateLastReportNumber(ctx, h.Number); err != nil {
		return nil, fmt.Errorf("record report number: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("epsa", entity.Code).Int("year", req.Year).Str("location", out.Location).
		Msg("annual report generated")
	return out, nil
}

// renderAndSave checks the context against both the builder's key set and the keys the
// template file actually references before rendering.
func (s *Service) renderAndSave(ctx context.Context, id reportctx.TemplateID, values reportctx.Context, name string) (*Output, error) {
	required, err := s.builder.RequiredKeys(id)
	if err != nil {
		return nil, err
	}
	placeholders, err := s.deps.Renderer.Placeholders(string(id))
	if err != nil {
		return nil, err
	}
	if err := reportctx.Check(id, values, append(required, placeholders...)); err != nil {
		return nil, err
	}

	doc, err := s.deps.Renderer.Render(ctx, string(id), values)
	if err != nil {
		return nil, err
	}
	location, err := s.deps.Sink.Save(ctx, name, doc)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", name, err)
	}
	return &Output{Name: name, Location: location, Document: doc}, nil
}

// writeBack persists the edited rows of every section in a single transaction.
func (s *Service) writeBack(ctx context.Context, entity domain.Entity, key domain.PlanKey, tables *domain.PlanTables) error {
	type pending struct {
		sheet  string
		values map[string]any
	}
	var writes []pending
	for _, t := range tables.All() {
		if len(t.Edited) == 0 {
			continue
		}
		sec, err := s.schema.Section(t.Section, t.Regime)
		if err != nil {
			return err
		}
		writes = append(writes, pending{sheet: sec.Sheet, values: adapters.MapSectionDataToStoreValues(t.Values(), t.Edited)})
	}
	if len(writes) == 0 {
		return nil
	}

	workbook := plan.WorkbookFor(entity.Regime())
	rowKey := store.RowKey{EPSA: key.EPSA, Year: key.Year, Order: key.Order}
	return s.deps.Tx(ctx, func(ctx context.Context) error {
		for _, w := range writes {
			if err := s.deps.Writer.WriteRow(ctx, workbook, w.sheet, rowKey, w.values); err != nil {
				return fmt.Errorf("write back %s/%s: %w", workbook, w.sheet, err)
			}
		}
		return nil
	})
}
