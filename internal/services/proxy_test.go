package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/panel"
	"github.com/desertthunder/tekx/internal/server"
	"github.com/desertthunder/tekx/internal/shared"
	"github.com/desertthunder/tekx/internal/tekmetric"
	tu "github.com/desertthunder/tekx/internal/testing"
)

var _ panel.Backend = (*ProxyService)(nil)

// startProxy runs the real proxy in front of a fake Tekmetric.
func startProxy(t *testing.T) (*tu.FakeTekmetric, *ProxyService) {
	t.Helper()
	fake := tu.NewFakeTekmetric(t)
	tokens := tekmetric.NewTokenSource(fake.URL(), tu.FakeClientID, tu.FakeClientSecret, nil)
	client, err := tekmetric.NewClient(tekmetric.Config{BaseURL: fake.URL(), ShopID: "238"}, tokens)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	logger := shared.NewLogger(io.Discard)
	srv := server.New(server.Options{Logger: logger}, server.NewProxyHandler(client, logger, time.UTC, "238"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return fake, NewProxyService(NewAPIService(ts.URL, nil), logger)
}

func TestProxyService(t *testing.T) {
	ctx := context.Background()

	t.Run("Health", func(t *testing.T) {
		_, proxy := startProxy(t)
		status, err := proxy.Health(ctx)
		if err != nil || status != "ok" {
			t.Errorf("expected ok, got %q %v", status, err)
		}
	})

	t.Run("RepairOrder", func(t *testing.T) {
		_, proxy := startProxy(t)
		ro, err := proxy.RepairOrder(ctx, "1501")
		if err != nil {
			t.Fatalf("RepairOrder() error = %v", err)
		}
		if ro.Number != "10342" || ro.Customer.Name() != "Dana Reyes" || len(ro.Jobs) != 4 {
			t.Errorf("unexpected repair order %+v", ro)
		}
		if ro.Mileage == nil || *ro.Mileage != 48250 {
			t.Errorf("unexpected mileage %v", ro.Mileage)
		}
	})

	t.Run("RepairOrder Not Found", func(t *testing.T) {
		_, proxy := startProxy(t)
		_, err := proxy.RepairOrder(ctx, "999")
		var perr *ProxyError
		if !errors.As(err, &perr) || perr.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 ProxyError, got %v", err)
		}
		if !errors.Is(err, shared.ErrNotFound) {
			t.Error("expected ErrNotFound")
		}
	})

	t.Run("AppointmentCounts", func(t *testing.T) {
		_, proxy := startProxy(t)
		counts, err := proxy.AppointmentCounts(ctx, panel.CountsRequest{
			ShopID: "238",
			Start:  time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC),
			End:    time.Date(2026, 4, 24, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("AppointmentCounts() error = %v", err)
		}
		if counts["2026-04-20"] != 2 || counts["2026-04-22"] != 1 || len(counts) != 2 {
			t.Errorf("unexpected counts %v", counts)
		}
	})

	t.Run("Appointments", func(t *testing.T) {
		_, proxy := startProxy(t)
		appts, err := proxy.Appointments(ctx, "", time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 24, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("Appointments() error = %v", err)
		}
		if len(appts) != 3 || appts[0].Title != "Oil" {
			t.Errorf("unexpected appointments %+v", appts)
		}
	})

	t.Run("CreateAppointment Rejected Upstream", func(t *testing.T) {
		fake, proxy := startProxy(t)
		fake.BookingResponse = `{"type":"ERROR","message":"Vehicle does not belong to customer"}`

		start := time.Date(2026, 9, 2, 8, 0, 0, 0, time.UTC)
		_, err := proxy.CreateAppointment(ctx, models.BookingRequest{
			ShopID: "238", CustomerID: "9", VehicleID: "44",
			Title:           "6 Month / 5,000 Mile Service",
			AppointmentType: models.AppointmentDropoff,
			StartTime:       start,
			EndTime:         start.Add(time.Hour),
		})
		var perr *ProxyError
		if !errors.As(err, &perr) || perr.StatusCode != http.StatusBadGateway {
			t.Fatalf("expected 502 ProxyError, got %v", err)
		}
		if perr.Error() != "API request failed: Vehicle does not belong to customer" {
			t.Errorf("unexpected message %q", perr.Error())
		}
	})

	t.Run("Unreachable Proxy", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		proxy := NewProxyService(NewAPIService(url, nil), nil)
		if _, err := proxy.RepairOrder(ctx, "1501"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Success False With 200", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"error":"nope"}`))
		}))
		defer ts.Close()

		proxy := NewProxyService(NewAPIService(ts.URL, nil), nil)
		_, err := proxy.CreateAppointment(ctx, models.BookingRequest{})
		if err == nil || err.Error() != "nope" {
			t.Errorf("expected raw message, got %v", err)
		}
	})
}

func TestPanelThroughProxy(t *testing.T) {
	fake, proxy := startProxy(t)

	var booked []string
	c := panel.NewController(panel.Options{
		Backend:  proxy,
		Now:      func() time.Time { return time.Date(2026, 4, 13, 9, 0, 0, 0, time.UTC) },
		Location: time.UTC,
		OnBooked: func(_ string, _ models.BookingRequest, res *models.BookingResult) {
			booked = append(booked, res.ID.String())
		},
		// 3 months on a Monday lands on 2026-07-13.
		DefaultMonths: 3,
	})

	ctx := context.Background()
	if err := c.Open(ctx, "https://shop.tekmetric.com/admin/shop/238/repair-orders/1501/estimate"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	c.FetchCounts(ctx)
	if vm := c.View(); vm.CountsLoading || len(vm.Dates) != 5 {
		t.Fatalf("unexpected schedule view %+v", vm)
	}

	for _, cmd := range []panel.Command{
		panel.Continue{},
		panel.SetNotes{Text: "Call when ready"},
		panel.Submit{},
	} {
		if err := c.Dispatch(ctx, cmd); err != nil {
			t.Fatalf("Dispatch(%s) error = %v", cmd.Name(), err)
		}
	}

	if c.State().Screen != panel.ScreenConfirmation || c.State().BookedAppointmentID != "9001" {
		t.Errorf("expected confirmation of 9001, got %+v", c.State())
	}
	if len(booked) != 1 || booked[0] != "9001" {
		t.Errorf("expected booking hook call, got %v", booked)
	}

	created := fake.Created()
	if len(created) != 1 {
		t.Fatalf("expected one upstream booking, got %d", len(created))
	}
	if created[0]["title"] != "3 Month / 5,000 Mile Service" || created[0]["startTime"] != "2026-07-13T08:00:00Z" {
		t.Errorf("unexpected upstream booking %v", created[0])
	}
	if created[0]["mileage"] != float64(53250) {
		t.Errorf("unexpected mileage %v", created[0]["mileage"])
	}
}
