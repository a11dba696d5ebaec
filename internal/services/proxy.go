// Typed client for the proxy's panel endpoints
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/panel"
	"github.com/desertthunder/tekx/internal/shared"
)

// ProxyError is a failure reported by the proxy.
type ProxyError struct {
	StatusCode int
	Message    string
}

// Error returns the proxy's message unchanged.
func (e *ProxyError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("proxy returned status %d", e.StatusCode)
	}
	return e.Message
}

func (e *ProxyError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return shared.ErrInvalidInput
	case http.StatusNotFound:
		return shared.ErrNotFound
	case http.StatusServiceUnavailable:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}

// ProxyService implements [panel.Backend] against the tekx proxy.
type ProxyService struct {
	api    *APIService
	logger *log.Logger
}

// NewProxyService creates a typed client on top of api.
func NewProxyService(api *APIService, logger *log.Logger) *ProxyService {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &ProxyService{api: api, logger: logger}
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// call performs the request and decodes the envelope into v.
func (p *ProxyService) call(ctx context.Context, method, path string, body []byte, v any) error {
	resp, err := p.api.Do(ctx, method, path, body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		if !resp.OK() {
			return &ProxyError{StatusCode: resp.StatusCode, Message: string(resp.Body)}
		}
		return fmt.Errorf("%w: %s: %v", shared.ErrUnexpectedShape, path, err)
	}
	if !resp.OK() || !env.Success {
		status := resp.StatusCode
		if resp.OK() {
			status = http.StatusBadGateway
		}
		p.logger.Debug("proxy request failed", "method", method, "path", path, "status", resp.StatusCode, "error", env.Error)
		return &ProxyError{StatusCode: status, Message: env.Error}
	}

	if v != nil {
		if err := json.Unmarshal(resp.Body, v); err != nil {
			return fmt.Errorf("%w: %s: %v", shared.ErrUnexpectedShape, path, err)
		}
	}
	return nil
}

// Health returns the proxy's reported status ("ok" or "unconfigured").
func (p *ProxyService) Health(ctx context.Context) (string, error) {
	var body struct {
		Status string `json:"status"`
	}
	if err := p.call(ctx, http.MethodGet, "/health", nil, &body); err != nil {
		return "", err
	}
	return body.Status, nil
}

// RepairOrder fetches the repair order snapshot.
func (p *ProxyService) RepairOrder(ctx context.Context, roID string) (*models.RepairOrder, error) {
	var body models.RepairOrderResponse
	if err := p.call(ctx, http.MethodGet, "/ro/"+url.PathEscape(roID), nil, &body); err != nil {
		return nil, err
	}
	ro := body.RepairOrder
	return &ro, nil
}

// AppointmentCounts fetches booked appointment counts for the request's window.
func (p *ProxyService) AppointmentCounts(ctx context.Context, req panel.CountsRequest) (models.AppointmentCounts, error) {
	q := url.Values{}
	q.Set("shopId", req.ShopID)
	q.Set("startDate", req.Start.Format(time.DateOnly))
	q.Set("endDate", req.End.Format(time.DateOnly))

	var body models.CountsResponse
	if err := p.call(ctx, http.MethodGet, "/appointments/counts?"+q.Encode(), nil, &body); err != nil {
		return nil, err
	}
	if body.Counts == nil {
		body.Counts = models.AppointmentCounts{}
	}
	return body.Counts, nil
}

// Appointments lists appointments of shopID between start and end, inclusive dates.
func (p *ProxyService) Appointments(ctx context.Context, shopID string, start, end time.Time) ([]models.Appointment, error) {
	q := url.Values{}
	if shopID != "" {
		q.Set("shopId", shopID)
	}
	q.Set("startDate", start.Format(time.DateOnly))
	q.Set("endDate", end.Format(time.DateOnly))

	var body struct {
		Appointments []models.Appointment `json:"appointments"`
	}
	if err := p.call(ctx, http.MethodGet, "/appointments?"+q.Encode(), nil, &body); err != nil {
		return nil, err
	}
	return body.Appointments, nil
}

// CreateAppointment books req.
func (p *ProxyService) CreateAppointment(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode booking: %w", err)
	}

	var body models.BookingResponse
	if err := p.call(ctx, http.MethodPost, "/appointments", data, &body); err != nil {
		return nil, err
	}
	if body.Appointment == nil {
		return &models.BookingResult{}, nil
	}
	return body.Appointment, nil
}
