// Package api - HTTP handlers for the public widget endpoints.
// Handlers wrap the estimator; they contain NO pricing logic.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"widget-estimate/adapters/storage"
	"widget-estimate/adapters/widgets"
	"widget-estimate/core/engine"
	apperrors "widget-estimate/internal/errors"
	"widget-estimate/internal/logging"
)

// maxListLimit caps GET /api/leads page sizes
const maxListLimit = 500

// notifyTimeout bounds background lead notifications
const notifyTimeout = 30 * time.Second

// LeadNotifier is told about every captured lead
type LeadNotifier interface {
	LeadCreated(ctx context.Context, lead *storage.Lead) error
}

// Handler handles widget and lead requests
type Handler struct {
	widgets   widgets.Provider
	estimator *engine.Estimator
	leads     storage.Store
	notifier  LeadNotifier
	logger    *zap.Logger
}

// NewHandler creates a new handler; leads may be nil
func NewHandler(provider widgets.Provider, estimator *engine.Estimator, leads storage.Store) *Handler {
	return &Handler{
		widgets:   provider,
		estimator: estimator,
		leads:     leads,
		logger:    zap.NewNop(),
	}
}

// WithNotifier sends captured leads to n in the background; failures are
// logged with logger.
func (h *Handler) WithNotifier(n LeadNotifier, logger *zap.Logger) *Handler {
	h.notifier = n
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *Handler) notify(ctx context.Context, lead *storage.Lead) {
	if h.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()
		if err := h.notifier.LeadCreated(ctx, lead); err != nil {
			h.logger.Warn("lead notification failed", zap.String("lead_id", lead.ID), zap.Error(err))
		}
	}()
}

// ListWidgets handles GET /api/widgets
func (h *Handler) ListWidgets(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.widgets.List(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"widgets": summaries,
		"count":   len(summaries),
	}, http.StatusOK)
}

// GetConfig handles GET /api/widget/{widgetKey}/config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.estimator.Config(r.Context(), widgetKey(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, cfg, http.StatusOK)
}

// Estimate handles POST /api/widget/{widgetKey}/estimate
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if missing(req.Responses) {
		writeAppError(w, r, apperrors.InvalidRequest("responses is required"))
		return
	}

	report, err := h.estimator.Estimate(r.Context(), engine.EstimateRequest{
		WidgetKey: widgetKey(r),
		Responses: req.Responses,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, newEstimateResponse(report, req.Responses), http.StatusOK)
}

// CreateLead handles POST /api/widget/{widgetKey}/leads. The estimate is
// recomputed server side; submitted prices are never trusted.
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	if h.leads == nil {
		writeError(w, "LEADS_DISABLED", "lead storage is not configured", http.StatusServiceUnavailable)
		return
	}

	var req LeadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if missing(req.Responses) {
		writeAppError(w, r, apperrors.InvalidRequest("responses is required"))
		return
	}

	key := widgetKey(r)
	report, err := h.estimator.Estimate(r.Context(), engine.EstimateRequest{
		WidgetKey: key,
		Responses: req.Responses,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	var responses bytes.Buffer
	if err := json.Compact(&responses, req.Responses); err != nil {
		writeAppError(w, r, apperrors.Input("invalid responses", err))
		return
	}

	lead := &storage.Lead{
		WidgetKey: key,
		WidgetID:  report.WidgetID,
		Contact:   trimContact(req.Contact),
		Responses: responses.Bytes(),
		Estimate:  report.Result,
		SourceURL: strings.TrimSpace(req.SourceURL),
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
	if err := h.leads.Save(r.Context(), lead); err != nil {
		writeAppError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("lead captured",
		zap.String("lead_id", lead.ID),
		zap.String("widget", key),
		zap.String("total", lead.TotalPrice().StringFixed(2)),
	)
	h.notify(r.Context(), lead)
	writeJSON(w, LeadResponse{Lead: lead}, http.StatusCreated)
}

// GetLead handles GET /api/leads/{leadID}
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	if h.leads == nil {
		writeError(w, "LEADS_DISABLED", "lead storage is not configured", http.StatusServiceUnavailable)
		return
	}
	lead, err := h.leads.Get(r.Context(), chi.URLParam(r, "leadID"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, LeadResponse{Lead: lead}, http.StatusOK)
}

// ListLeads handles GET /api/leads
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	if h.leads == nil {
		writeError(w, "LEADS_DISABLED", "lead storage is not configured", http.StatusServiceUnavailable)
		return
	}
	filter, err := parseListFilter(r)
	if err != nil {
		writeError(w, "INVALID_QUERY", err.Error(), http.StatusBadRequest)
		return
	}
	leads, err := h.leads.List(r.Context(), filter)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if leads == nil {
		leads = []*storage.Lead{}
	}
	writeJSON(w, LeadListResponse{Leads: leads, Count: len(leads)}, http.StatusOK)
}

func widgetKey(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "widgetKey"))
}

// decodeBody decodes a JSON body, writing the error response on failure
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, "BODY_TOO_LARGE", "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func missing(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func trimContact(c storage.ContactInfo) storage.ContactInfo {
	return storage.ContactInfo{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.TrimSpace(c.Email),
		Phone: strings.TrimSpace(c.Phone),
	}
}

// clientIP strips the port from RemoteAddr; RealIP has already applied
// forwarding headers.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func parseListFilter(r *http.Request) (*storage.ListFilter, error) {
	q := r.URL.Query()
	filter := &storage.ListFilter{
		WidgetKey: q.Get("widget_key"),
		Status:    q.Get("status"),
		Limit:     100,
	}

	var err error
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil || filter.Limit < 1 {
			return nil, errors.New("limit must be a positive integer")
		}
		filter.Limit = min(filter.Limit, maxListLimit)
	}
	if v := q.Get("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil || filter.Offset < 0 {
			return nil, errors.New("offset must be a non-negative integer")
		}
	}
	if v := q.Get("since"); v != "" {
		if filter.Since, err = time.Parse(time.RFC3339, v); err != nil {
			return nil, errors.New("since must be an RFC 3339 timestamp")
		}
	}
	if v := q.Get("until"); v != "" {
		if filter.Until, err = time.Parse(time.RFC3339, v); err != nil {
			return nil, errors.New("until must be an RFC 3339 timestamp")
		}
	}
	return filter, nil
}

// writeAppError maps a typed error to its status code
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	t, ok := apperrors.TypeOf(err)
	if !ok {
		t = apperrors.TypeInternal
	}

	status := http.StatusInternalServerError
	switch t {
	case apperrors.TypeNotFound:
		status = http.StatusNotFound
	case apperrors.TypeInvalidRequest:
		status = http.StatusUnprocessableEntity
	case apperrors.TypeInput:
		status = http.StatusBadRequest
	}

	message := err.Error()
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed", zap.Error(err))
		message = "internal error"
	}
	writeError(w, string(t), message, status)
}
