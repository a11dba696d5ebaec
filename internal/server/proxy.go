package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/shared"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Upstream is the subset of the Tekmetric client the proxy forwards to.
type Upstream interface {
	RepairOrder(ctx context.Context, id string) (*models.RepairOrder, error)
	Customer(ctx context.Context, id string) (*models.Customer, error)
	Vehicle(ctx context.Context, id string) (*models.Vehicle, error)
	Jobs(ctx context.Context, repairOrderID string) ([]models.Job, error)
	Appointments(ctx context.Context, shopID string, start, end time.Time) ([]models.Appointment, error)
	AppointmentCounts(ctx context.Context, shopID string, start, end time.Time, loc *time.Location) (models.AppointmentCounts, error)
	CreateAppointment(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error)
}

// ProxyHandler serves the panel's wire contract on top of an [Upstream].
//
// A nil upstream means the proxy is not configured; every endpoint other than /health answers 503.
type ProxyHandler struct {
	upstream Upstream
	logger   *log.Logger
	validate *validator.Validate
	loc      *time.Location
	shopID   string
}

// NewProxyHandler creates the proxy endpoints. Counts are bucketed by calendar day in loc.
func NewProxyHandler(upstream Upstream, logger *log.Logger, loc *time.Location, defaultShopID string) *ProxyHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ProxyHandler{
		upstream: upstream,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		loc:      loc,
		shopID:   defaultShopID,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *ProxyHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/health", Handler: h.health},
		{Method: http.MethodGet, Pattern: "/ro/{roId}", Handler: h.repairOrder},
		{Method: http.MethodGet, Pattern: "/customers/{id}", Handler: h.customer},
		{Method: http.MethodGet, Pattern: "/vehicles/{id}", Handler: h.vehicle},
		{Method: http.MethodGet, Pattern: "/jobs", Handler: h.jobs},
		{Method: http.MethodGet, Pattern: "/appointments/counts", Handler: h.appointmentCounts},
		{Method: http.MethodGet, Pattern: "/appointments", Handler: h.appointments},
		{Method: http.MethodPost, Pattern: "/appointments", Handler: h.createAppointment},
	}
}

func (h *ProxyHandler) health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if h.upstream == nil {
		status = "unconfigured"
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": status})
}

func (h *ProxyHandler) ready(w http.ResponseWriter) bool {
	if h.upstream == nil {
		writeError(w, http.StatusServiceUnavailable, "Tekmetric credentials are not configured")
		return false
	}
	return true
}

func (h *ProxyHandler) repairOrder(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id := chi.URLParam(r, "roId")

	ro, err := h.upstream.RepairOrder(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.RepairOrderResponse{Success: true, RepairOrder: *ro})
}

func (h *ProxyHandler) customer(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	customer, err := h.upstream.Customer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "customer": customer})
}

func (h *ProxyHandler) vehicle(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	vehicle, err := h.upstream.Vehicle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "vehicle": vehicle})
}

func (h *ProxyHandler) jobs(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	roID := strings.TrimSpace(r.URL.Query().Get("repairOrderId"))
	if roID == "" {
		writeError(w, http.StatusBadRequest, "repairOrderId is required")
		return
	}
	jobs, err := h.upstream.Jobs(r.Context(), roID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "jobs": jobs})
}

// dateRange reads shopId, startDate and endDate (YYYY-MM-DD, inclusive).
func (h *ProxyHandler) dateRange(r *http.Request) (shopID string, start, end time.Time, err error) {
	q := r.URL.Query()
	shopID = strings.TrimSpace(q.Get("shopId"))
	if shopID == "" {
		shopID = h.shopID
	}
	startRaw, endRaw := q.Get("startDate"), q.Get("endDate")
	if shopID == "" || startRaw == "" || endRaw == "" {
		return "", time.Time{}, time.Time{}, fmt.Errorf("%w: shopId, startDate and endDate are required", shared.ErrInvalidInput)
	}

	start, err = time.ParseInLocation(time.DateOnly, startRaw, h.loc)
	if err != nil {
		return "", time.Time{}, time.Time{}, fmt.Errorf("%w: startDate must be YYYY-MM-DD", shared.ErrInvalidInput)
	}
	end, err = time.ParseInLocation(time.DateOnly, endRaw, h.loc)
	if err != nil {
		return "", time.Time{}, time.Time{}, fmt.Errorf("%w: endDate must be YYYY-MM-DD", shared.ErrInvalidInput)
	}
	if end.Before(start) {
		return "", time.Time{}, time.Time{}, fmt.Errorf("%w: endDate is before startDate", shared.ErrInvalidInput)
	}
	return shopID, start, end, nil
}

func (h *ProxyHandler) appointmentCounts(w http.ResponseWriter, r *http.Request) {
	shopID, start, end, err := h.dateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.ready(w) {
		return
	}

	counts, err := h.upstream.AppointmentCounts(r.Context(), shopID, start, end.AddDate(0, 0, 1), h.loc)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	first, last := start.Format(time.DateOnly), end.Format(time.DateOnly)
	for key := range counts {
		if key < first || key > last {
			delete(counts, key)
		}
	}
	writeJSON(w, http.StatusOK, models.CountsResponse{Success: true, Counts: counts})
}

func (h *ProxyHandler) appointments(w http.ResponseWriter, r *http.Request) {
	shopID, start, end, err := h.dateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.ready(w) {
		return
	}

	appts, err := h.upstream.Appointments(r.Context(), shopID, start, end.AddDate(0, 0, 1))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if appts == nil {
		appts = []models.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "appointments": appts})
}

func (h *ProxyHandler) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	if !h.ready(w) {
		return
	}

	result, err := h.upstream.CreateAppointment(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info("appointment created", "appointment_id", result.ID, "shop_id", req.ShopID, "request_id", RequestID(r.Context()))
	writeJSON(w, http.StatusOK, models.BookingResponse{Success: true, Appointment: result})
}

// fail maps an upstream error to a status and writes it.
func (h *ProxyHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	h.logger.Warn("upstream request failed", "path", r.URL.Path, "status", status, "error", err, "request_id", RequestID(r.Context()))
	writeError(w, status, err.Error())
}

// StatusFor maps shared sentinel errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrMissingCredentials), errors.Is(err, shared.ErrMissingConfig):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return "invalid appointment: " + strings.Join(parts, ", ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
