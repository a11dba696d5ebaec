package tekmetric

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	appointmentPageSize = 100
	maxAppointmentPages = 20
	maxErrorBody        = 512
)

// APIError is a non-2xx answer from Tekmetric.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tekmetric %s: status %d: %s", e.Path, e.StatusCode, e.Body)
}

// Unwrap maps the status to a shared sentinel.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return shared.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return shared.ErrAuthFailed
	default:
		return shared.ErrAPIRequest
	}
}

// Config holds the settings for a [Client].
type Config struct {
	BaseURL string
	ShopID  string
	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64
	Burst     int
	Timeout   time.Duration
}

// Client calls the Tekmetric REST API with a cached bearer token.
//
// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	shopID     string
	httpClient *http.Client
	tokens     *TokenSource
	limiter    *rate.Limiter
	logger     *log.Logger
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithHTTPClient sets the client used for API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Tekmetric client.
func NewClient(cfg Config, tokens *TokenSource, opts ...ClientOption) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: tekmetric base URL is required", shared.ErrMissingConfig)
	}
	if tokens == nil {
		return nil, fmt.Errorf("%w: tekmetric token source is required", shared.ErrMissingConfig)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		shopID:     cfg.ShopID,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     shared.NewLogger(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ShopID returns the default shop.
func (c *Client) ShopID() string { return c.shopID }

// Tokens returns the client's token source.
func (c *Client) Tokens() *TokenSource { return c.tokens }

type upstreamRepairOrder struct {
	ID                models.ID `json:"id"`
	RepairOrderNumber models.ID `json:"repairOrderNumber"`
	ShopID            models.ID `json:"shopId"`
	CustomerID        models.ID `json:"customerId"`
	VehicleID         models.ID `json:"vehicleId"`
	MilesIn           *float64  `json:"milesIn"`
	MilesOut          *float64  `json:"milesOut"`
}

type upstreamCustomer struct {
	ID        models.ID       `json:"id"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Email     json.RawMessage `json:"email"`
	Phone     []struct {
		Number string `json:"number"`
	} `json:"phone"`
}

// Do performs an authenticated request against path and returns the raw body of a 2xx answer.
//
// A 401 invalidates the cached token and the request is retried once.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	data, err := c.do(ctx, method, path, body)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		c.logger.Debug("token rejected, refreshing", "path", path)
		if err := c.tokens.Invalidate(ctx); err != nil {
			c.logger.Warn("failed to clear token cache", "error", err)
		}
		return c.do(ctx, method, path, body)
	}
	return data, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrServiceUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("tekmetric request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(data)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Path: path, Body: strings.TrimSpace(snippet)}
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	data, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrUnexpectedShape, path, err)
	}
	return nil
}

// Customer fetches a customer by id.
func (c *Client) Customer(ctx context.Context, id string) (*models.Customer, error) {
	var uc upstreamCustomer
	if err := c.getJSON(ctx, "/api/v1/customers/"+url.PathEscape(id), &uc); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		ID:        uc.ID,
		FirstName: uc.FirstName,
		LastName:  uc.LastName,
		Email:     firstString(uc.Email),
	}
	if len(uc.Phone) > 0 {
		customer.Phone = uc.Phone[0].Number
	}
	return customer, nil
}

// Vehicle fetches a vehicle by id.
func (c *Client) Vehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := c.getJSON(ctx, "/api/v1/vehicles/"+url.PathEscape(id), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Jobs lists the jobs of a repair order.
func (c *Client) Jobs(ctx context.Context, repairOrderID string) ([]models.Job, error) {
	q := url.Values{"repairOrderId": {repairOrderID}}
	data, err := c.Do(ctx, http.MethodGet, "/api/v1/jobs?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	page, err := DecodeList(data)
	if err != nil {
		return nil, err
	}

	jobs := make([]models.Job, 0, len(page.Items))
	for _, raw := range page.Items {
		var job models.Job
		if err := json.Unmarshal(raw, &job); err != nil {
			return nil, fmt.Errorf("%w: job: %v", shared.ErrUnexpectedShape, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// RepairOrder fetches a repair order and resolves its customer, vehicle and jobs concurrently.
//
// Mileage is taken from milesIn, else milesOut; non-finite values are dropped.
func (c *Client) RepairOrder(ctx context.Context, id string) (*models.RepairOrder, error) {
	var uro upstreamRepairOrder
	if err := c.getJSON(ctx, "/api/v1/repair-orders/"+url.PathEscape(id), &uro); err != nil {
		return nil, err
	}

	ro := &models.RepairOrder{
		ID:      uro.ID,
		Number:  uro.RepairOrderNumber.String(),
		ShopID:  uro.ShopID,
		Mileage: finite(uro.MilesIn, uro.MilesOut),
	}
	if ro.ID == "" {
		ro.ID = models.ID(id)
	}

	g, gctx := errgroup.WithContext(ctx)
	if uro.CustomerID != "" {
		g.Go(func() error {
			customer, err := c.Customer(gctx, uro.CustomerID.String())
			if err != nil {
				return fmt.Errorf("customer %s: %w", uro.CustomerID, err)
			}
			ro.Customer = *customer
			return nil
		})
	}
	if uro.VehicleID != "" {
		g.Go(func() error {
			vehicle, err := c.Vehicle(gctx, uro.VehicleID.String())
			if err != nil {
				return fmt.Errorf("vehicle %s: %w", uro.VehicleID, err)
			}
			ro.Vehicle = *vehicle
			return nil
		})
	}
	g.Go(func() error {
		jobs, err := c.Jobs(gctx, ro.ID.String())
		if err != nil {
			return fmt.Errorf("jobs: %w", err)
		}
		ro.Jobs = jobs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ro, nil
}

// Appointments lists a shop's appointments starting between start and end, following pagination.
func (c *Client) Appointments(ctx context.Context, shopID string, start, end time.Time) ([]models.Appointment, error) {
	if shopID == "" {
		shopID = c.shopID
	}

	var appts []models.Appointment
	for pageNum := 0; pageNum < maxAppointmentPages; pageNum++ {
		q := url.Values{
			"shop":  {shopID},
			"start": {start.Format(time.DateOnly)},
			"end":   {end.Format(time.DateOnly)},
			"size":  {strconv.Itoa(appointmentPageSize)},
			"page":  {strconv.Itoa(pageNum)},
		}
		data, err := c.Do(ctx, http.MethodGet, "/api/v1/appointments?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}

		page, err := DecodeList(data)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			appt, err := decodeAppointment(raw)
			if err != nil {
				c.logger.Warn("skipping appointment", "error", err)
				continue
			}
			appts = append(appts, appt)
		}
		if page.Last || len(page.Items) == 0 {
			break
		}
	}
	return appts, nil
}

// AppointmentCounts counts a shop's appointments per date key in loc between start and end.
func (c *Client) AppointmentCounts(ctx context.Context, shopID string, start, end time.Time, loc *time.Location) (models.AppointmentCounts, error) {
	appts, err := c.Appointments(ctx, shopID, start, end)
	if err != nil {
		return nil, err
	}
	return CountByDate(appts, loc), nil
}

type upstreamBooking struct {
	ShopID            models.ID `json:"shopId"`
	CustomerID        models.ID `json:"customerId"`
	VehicleID         models.ID `json:"vehicleId"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	StartTime         string    `json:"startTime"`
	EndTime           string    `json:"endTime"`
	AppointmentOption string    `json:"appointmentOption"`
	Mileage           *int      `json:"mileage,omitempty"`
}

type upstreamResult struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// CreateAppointment books an appointment. The purpose of visit becomes the description.
func (c *Client) CreateAppointment(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	body, err := json.Marshal(upstreamBooking{
		ShopID:            req.ShopID,
		CustomerID:        req.CustomerID,
		VehicleID:         req.VehicleID,
		Title:             req.Title,
		Description:       req.PurposeOfVisit,
		StartTime:         req.StartTime.UTC().Format(time.RFC3339),
		EndTime:           req.EndTime.UTC().Format(time.RFC3339),
		AppointmentOption: string(req.AppointmentType),
		Mileage:           req.Mileage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode appointment: %w", err)
	}

	data, err := c.Do(ctx, http.MethodPost, "/api/v1/appointments", body)
	if err != nil {
		return nil, err
	}

	var res upstreamResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("%w: appointment result: %v", shared.ErrUnexpectedShape, err)
	}
	if res.Type != "" && !strings.EqualFold(res.Type, "SUCCESS") {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, firstNonEmpty(res.Message, res.Type))
	}

	return &models.BookingResult{ID: resultID(res.Data), Data: res.Data}, nil
}

// resultID reads an id from a bare scalar or an object's id field.
func resultID(raw json.RawMessage) models.ID {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var id models.ID
	if raw[0] == '{' {
		var obj struct {
			ID models.ID `json:"id"`
		}
		if json.Unmarshal(raw, &obj) == nil {
			return obj.ID
		}
		return ""
	}
	if json.Unmarshal(raw, &id) == nil {
		return id
	}
	return ""
}

func firstString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

func finite(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
			m := *v
			return &m
		}
	}
	return nil
}
