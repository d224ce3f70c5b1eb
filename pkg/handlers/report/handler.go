package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/aapslab/report-atlas/pkg/adapters"
	"github.com/aapslab/report-atlas/pkg/models/api"
	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/services/report"
	"github.com/aapslab/report-atlas/pkg/store/profile"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

type Service interface {
	Entities(ctx context.Context) ([]domain.Entity, error)
	Orders(ctx context.Context, code string, year int) ([]int, error)
	OpenPlanSession(ctx context.Context, sel report.Selection) (*report.Session, error)
	GeneratePlanReport(ctx context.Context, session *report.Session, req report.PlanRequest) (*report.Output, error)
	GenerateAnnualReport(ctx context.Context, req report.AnnualRequest) (*report.Output, error)
}

type ProfileStore interface {
	Get(ctx context.Context) (*domain.Profile, error)
	Save(ctx context.Context, p domain.Profile) error
}

type Handler struct {
	svc      Service
	profiles ProfileStore

	mu       sync.RWMutex
	sessions map[string]*report.Session
}

func NewHandler(svc Service, profiles ProfileStore) *Handler {
	return &Handler{
		svc:      svc,
		profiles: profiles,
		sessions: make(map[string]*report.Session),
	}
}

func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entities, err := h.svc.Entities(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	response := make([]api.Entity, 0, len(entities))
	for _, e := range entities {
		response = append(response, adapters.MapDomainEntityToApi(e))
	}
	writeJSON(ctx, w, http.StatusOK, response)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "code")

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeJSON(ctx, w, http.StatusBadRequest, api.Error{Error: "year must be a number"})
		return
	}
	orders, err := h.svc.Orders(ctx, code, year)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if orders == nil {
		orders = []int{}
	}
	writeJSON(ctx, w, http.StatusOK, orders)
}

func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SessionRequest
	if !decode(ctx, w, r, &req) {
		return
	}
	session, err := h.svc.OpenPlanSession(ctx, report.Selection{EPSA: req.EPSA, Year: req.Year, Order: req.Order})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.mu.Lock()
	h.sessions[session.ID] = session
	h.mu.Unlock()

	writeJSON(ctx, w, http.StatusCreated, sessionResponse(session))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, sessionResponse(session))
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.mu.Lock()
	_, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		writeJSON(r.Context(), w, http.StatusNotFound, api.Error{Error: "session not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) EditCell(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req api.EditRequest
	if !decode(ctx, w, r, &req) {
		return
	}
	section := domain.SectionKind(req.Section)
	res, err := session.ApplyEdit(section, domain.CellEdit{
		Column: domain.Column(req.Column),
		Row:    req.Row,
		Old:    req.Old,
		New:    req.New,
	})
	if err != nil {
		writeJSON(ctx, w, http.StatusBadRequest, api.Error{Error: err.Error()})
		return
	}

	response := api.EditResponse{
		Applied: res.Applied,
		Text:    res.Text,
		Table:   adapters.MapDomainTableToApi(session.Tables().Table(section)),
	}
	if res.Rejected != nil {
		response.Reason = string(res.Rejected.Reason)
	}
	writeJSON(ctx, w, http.StatusOK, response)
}

func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req api.ReportRequest
	if !decode(ctx, w, r, &req) {
		return
	}
	base, ok := baseRequest(ctx, w, req.Date, req.Number, req.Filename)
	if !ok {
		return
	}
	base.Author = adapters.MapApiAuthorToDomain(req.Author)
	out, err := h.svc.GeneratePlanReport(ctx, session, report.PlanRequest{
		Request:   base,
		Narrative: adapters.MapApiNarrativeToDomain(req.Narrative),
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, api.ReportResponse{Name: out.Name, Location: out.Location, Number: out.Number})
}

func (h *Handler) GenerateAnnualReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.AnnualReportRequest
	if !decode(ctx, w, r, &req) {
		return
	}
	base, ok := baseRequest(ctx, w, req.Date, req.Number, req.Filename)
	if !ok {
		return
	}
	base.Author = adapters.MapApiAuthorToDomain(req.Author)
	out, err := h.svc.GenerateAnnualReport(ctx, report.AnnualRequest{
		Request:   base,
		EPSA:      req.EPSA,
		Year:      req.Year,
		Narrative: adapters.MapApiAnnualNarrativeToDomain(req.Narrative),
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, api.ReportResponse{Name: out.Name, Location: out.Location, Number: out.Number})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := h.profiles.Get(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapDomainProfileToApi(*p))
}

func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.Profile
	if !decode(ctx, w, r, &req) {
		return
	}
	p := adapters.MapApiProfileToDomain(req)
	if err := h.profiles.Save(ctx, p); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapDomainProfileToApi(p))
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*report.Session, bool) {
	id := chi.URLParam(r, "id")

	h.mu.RLock()
	session, ok := h.sessions[id]
	h.mu.RUnlock()

	if !ok {
		writeJSON(r.Context(), w, http.StatusNotFound, api.Error{Error: "session not found"})
	}
	return session, ok
}

func sessionResponse(s *report.Session) api.Session {
	tables := s.Tables()
	response := api.Session{
		ID:     s.ID,
		Entity: adapters.MapDomainEntityToApi(s.Entity),
		Year:   s.Key.Year,
		Order:  s.Key.Order,
	}
	for _, t := range tables.All() {
		response.Tables = append(response.Tables, adapters.MapDomainTableToApi(t))
	}
	return response
}

func baseRequest(ctx context.Context, w http.ResponseWriter, date string, number int, filename string) (report.Request, bool) {
	req := report.Request{Number: number, Filename: filename}
	if date == "" {
		return req, true
	}
	t, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		writeJSON(ctx, w, http.StatusBadRequest, api.Error{Error: "date must use the YYYY-MM-DD format"})
		return req, false
	}
	req.Date = t
	return req, true
}

func decode(ctx context.Context, w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(ctx, w, http.StatusBadRequest, api.Error{Error: "invalid request body"})
		return false
	}
	return true
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		noMatch    *domain.NoMatchingRecordError
		ambiguous  *domain.AmbiguousRecordError
		incomplete *domain.IncompleteContextError
		missing    *domain.MissingFieldError
		badValue   *domain.InvalidValueError
		auth       *domain.AuthError
		invalid    validator.ValidationErrors
	)

	body := api.Error{Error: err.Error()}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, report.ErrNoProfile):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &noMatch), errors.Is(err, profile.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &ambiguous):
		status = http.StatusConflict
	case errors.As(err, &incomplete):
		status = http.StatusUnprocessableEntity
		body.Missing = incomplete.Missing
	case errors.As(err, &missing), errors.As(err, &badValue), errors.As(err, &invalid):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &auth):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		zerolog.Ctx(ctx).Error().Err(err).Msg("request failed")
	} else {
		zerolog.Ctx(ctx).Warn().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(ctx, w, status, body)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Msg("failed to encode response")
	}
}
