package tekmetric

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/shared"
	tu "github.com/desertthunder/tekx/internal/testing"
)

func newTestClient(t *testing.T, fake *tu.FakeTekmetric) *Client {
	t.Helper()
	ts := NewTokenSource(fake.URL(), tu.FakeClientID, tu.FakeClientSecret, NewMemoryTokenCache())
	c, err := NewClient(Config{BaseURL: fake.URL(), ShopID: "238", RateLimit: 100, Burst: 10}, ts)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("NewClient", func(t *testing.T) {
		t.Run("Requires BaseURL", func(t *testing.T) {
			_, err := NewClient(Config{}, NewTokenSource("", "a", "b", nil))
			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("Requires Token Source", func(t *testing.T) {
			_, err := NewClient(Config{BaseURL: "http://example.com"}, nil)
			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})
	})

	t.Run("RepairOrder", func(t *testing.T) {
		fake := tu.NewFakeTekmetric(t)
		c := newTestClient(t, fake)

		ro, err := c.RepairOrder(ctx, "1501")
		if err != nil {
			t.Fatalf("RepairOrder() error = %v", err)
		}

		if ro.ID != "1501" || ro.Number != "10342" || ro.ShopID != "238" {
			t.Errorf("unexpected header fields: %+v", ro)
		}
		if ro.Mileage == nil || *ro.Mileage != 48250 {
			t.Errorf("expected mileage 48250, got %v", ro.Mileage)
		}
		if ro.Customer.Email != "dana@example.com" || ro.Customer.Phone != "555-0100" {
			t.Errorf("unexpected customer %+v", ro.Customer)
		}
		if ro.Vehicle.Description() != "2017 Honda Accord" {
			t.Errorf("unexpected vehicle %+v", ro.Vehicle)
		}
		if len(ro.Jobs) != 4 {
			t.Fatalf("expected 4 jobs, got %d", len(ro.Jobs))
		}
		if fake.TokenRequests() != 1 {
			t.Errorf("expected a single token exchange for concurrent calls, got %d", fake.TokenRequests())
		}
	})

	t.Run("RepairOrder Not Found", func(t *testing.T) {
		fake := tu.NewFakeTekmetric(t)
		c := newTestClient(t, fake)

		_, err := c.RepairOrder(ctx, "404")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			t.Errorf("expected APIError with 404, got %v", err)
		}
	})

	t.Run("Retries Once After 401", func(t *testing.T) {
		fake := tu.NewFakeTekmetric(t)
		c := newTestClient(t, fake)

		if _, err := c.Vehicle(ctx, "44"); err != nil {
			t.Fatalf("Vehicle() error = %v", err)
		}
		fake.RejectNext(1)

		v, err := c.Vehicle(ctx, "44")
		if err != nil {
			t.Fatalf("expected retry to succeed, got %v", err)
		}
		if v.Make != "Honda" {
			t.Errorf("unexpected vehicle %+v", v)
		}
		if fake.TokenRequests() != 2 {
			t.Errorf("expected token refresh after 401, got %d exchanges", fake.TokenRequests())
		}
	})

	t.Run("Gives Up After Second 401", func(t *testing.T) {
		fake := tu.NewFakeTekmetric(t)
		c := newTestClient(t, fake)
		fake.RejectNext(2)

		_, err := c.Customer(ctx, "9")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Appointments And Counts", func(t *testing.T) {
		fake := tu.NewFakeTekmetric(t)
		c := newTestClient(t, fake)
		start := time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 0, 4)

		appts, err := c.Appointments(ctx, "", start, end)
		if err != nil {
			t.Fatalf("Appointments() error = %v", err)
		}
		if len(appts) != 3 {
			t.Fatalf("expected 3 appointments, got %d", len(appts))
		}

		counts, err := c.AppointmentCounts(ctx, "238", start, end, time.UTC)
		if err != nil {
			t.Fatalf("AppointmentCounts() error = %v", err)
		}
		want := models.AppointmentCounts{"2026-04-20": 2, "2026-04-22": 1}
		if len(counts) != len(want) || counts["2026-04-20"] != 2 || counts["2026-04-22"] != 1 {
			t.Errorf("counts = %v, want %v", counts, want)
		}
	})

	t.Run("Appointments Pagination", func(t *testing.T) {
		var pages []string
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/v1/oauth/token" {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer"}`))
				return
			}
			page := r.URL.Query().Get("page")
			pages = append(pages, page)
			if page == "0" {
				w.Write([]byte(`{"content":[{"id":1,"startTime":"2026-04-20T09:00:00Z"}],"last":false}`))
				return
			}
			w.Write([]byte(`{"content":[{"id":2,"startTime":"2026-04-21T09:00:00Z"}],"last":true}`))
		}))
		defer upstream.Close()

		ts := NewTokenSource(upstream.URL, "id", "secret", nil)
		c, _ := NewClient(Config{BaseURL: upstream.URL, ShopID: "1"}, ts)

		appts, err := c.Appointments(ctx, "", time.Now(), time.Now())
		if err != nil {
			t.Fatalf("Appointments() error = %v", err)
		}
		if len(appts) != 2 || len(pages) != 2 {
			t.Errorf("expected 2 appointments over 2 pages, got %d over %v", len(appts), pages)
		}
	})

	t.Run("CreateAppointment", func(t *testing.T) {
		fake := tu.NewFakeTekmetric(t)
		c := newTestClient(t, fake)
		mileage := 53250
		start := time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC)

		res, err := c.CreateAppointment(ctx, models.BookingRequest{
			ShopID:          "238",
			CustomerID:      "9",
			VehicleID:       "44",
			Title:           "6 Month / 5,000 Mile Service",
			PurposeOfVisit:  "APPOINTMENT TYPE: Drop-Off",
			AppointmentType: models.AppointmentDropoff,
			StartTime:       start,
			EndTime:         start.Add(time.Hour),
			Mileage:         &mileage,
		})
		if err != nil {
			t.Fatalf("CreateAppointment() error = %v", err)
		}
		if res.ID != "9001" {
			t.Errorf("expected id 9001, got %q", res.ID)
		}

		created := fake.Created()
		if len(created) != 1 {
			t.Fatalf("expected one booking, got %d", len(created))
		}
		if created[0]["description"] != "APPOINTMENT TYPE: Drop-Off" {
			t.Errorf("expected purpose as description, got %v", created[0]["description"])
		}
		if created[0]["startTime"] != "2026-09-14T08:00:00Z" {
			t.Errorf("unexpected start %v", created[0]["startTime"])
		}
	})

	t.Run("CreateAppointment Upstream Error Type", func(t *testing.T) {
		fake := tu.NewFakeTekmetric(t)
		fake.BookingResponse = `{"type":"ERROR","message":"Vehicle does not belong to customer"}`
		c := newTestClient(t, fake)

		_, err := c.CreateAppointment(ctx, models.BookingRequest{ShopID: "238"})
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if err.Error() != shared.ErrAPIRequest.Error()+": Vehicle does not belong to customer" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("Connection Failure", func(t *testing.T) {
		fake := tu.NewFakeTekmetric(t)
		c := newTestClient(t, fake)
		c.httpClient = &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}

		if _, err := c.Vehicle(ctx, "44"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestResultID(t *testing.T) {
	tt := []struct {
		name string
		raw  string
		want models.ID
	}{
		{name: "number", raw: `9001`, want: "9001"},
		{name: "string", raw: `"abc"`, want: "abc"},
		{name: "object", raw: `{"id": 12, "title": "x"}`, want: "12"},
		{name: "empty", raw: ``, want: ""},
		{name: "array", raw: `[1]`, want: ""},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := resultID([]byte(tc.raw)); got != tc.want {
				t.Errorf("resultID() = %q, want %q", got, tc.want)
			}
		})
	}
}
