package tekmetric

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/shared"
)

func TestDecodeList(t *testing.T) {
	tt := []struct {
		name      string
		body      string
		wantShape ListShape
		wantLen   int
		wantLast  bool
		wantErr   bool
	}{
		{name: "content page", body: `{"content":[{"id":1},{"id":2}],"last":false}`, wantShape: ShapeContent, wantLen: 2, wantLast: false},
		{name: "data wrapper", body: `{"data":[{"id":1}]}`, wantShape: ShapeData, wantLen: 1, wantLast: true},
		{name: "appointments wrapper", body: `{"appointments":[]}`, wantShape: ShapeAppointments, wantLen: 0, wantLast: true},
		{name: "bare array", body: `[{"id":1},{"id":2},{"id":3}]`, wantShape: ShapeArray, wantLen: 3, wantLast: true},
		{name: "content wins over data", body: `{"data":[{"id":1}],"content":[{"id":1},{"id":2}]}`, wantShape: ShapeContent, wantLen: 2, wantLast: true},
		{name: "non array data skipped", body: `{"data":{"id":1},"appointments":[{"id":1}]}`, wantShape: ShapeAppointments, wantLen: 1, wantLast: true},
		{name: "object without list", body: `{"id":1}`, wantErr: true},
		{name: "scalar", body: `42`, wantErr: true},
		{name: "empty", body: ``, wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			page, err := DecodeList([]byte(tc.body))
			if tc.wantErr {
				if !errors.Is(err, shared.ErrUnexpectedShape) {
					t.Fatalf("expected ErrUnexpectedShape, got %v", err)
				}
				if len(page.Items) != 0 {
					t.Errorf("expected empty page on error, got %d items", len(page.Items))
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeList() error = %v", err)
			}
			if page.Shape != tc.wantShape {
				t.Errorf("shape = %s, want %s", page.Shape, tc.wantShape)
			}
			if len(page.Items) != tc.wantLen {
				t.Errorf("len = %d, want %d", len(page.Items), tc.wantLen)
			}
			if page.Last != tc.wantLast {
				t.Errorf("last = %v, want %v", page.Last, tc.wantLast)
			}
		})
	}
}

func TestDecodeAppointment(t *testing.T) {
	t.Run("StartTime Preferred", func(t *testing.T) {
		appt, err := decodeAppointment([]byte(`{"id":7,"startTime":"2026-04-20T14:00:00Z","start":"2026-01-01T00:00:00Z"}`))
		if err != nil {
			t.Fatalf("decodeAppointment() error = %v", err)
		}
		if appt.ID != "7" || appt.StartTime.Month() != time.April {
			t.Errorf("unexpected appointment %+v", appt)
		}
	})

	t.Run("Start Fallback", func(t *testing.T) {
		appt, err := decodeAppointment([]byte(`{"id":"8","start":"2026-04-21T08:00:00"}`))
		if err != nil {
			t.Fatalf("decodeAppointment() error = %v", err)
		}
		if appt.StartTime.Day() != 21 {
			t.Errorf("expected day 21, got %v", appt.StartTime)
		}
	})

	t.Run("Missing Start", func(t *testing.T) {
		if _, err := decodeAppointment([]byte(`{"id":9}`)); err == nil {
			t.Error("expected error for appointment without start")
		}
	})
}

func TestCountByDate(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	appts := []models.Appointment{
		{StartTime: time.Date(2026, 4, 20, 14, 0, 0, 0, time.UTC)},
		{StartTime: time.Date(2026, 4, 20, 16, 0, 0, 0, time.UTC)},
		// 03:00 UTC on the 22nd is still the 21st in Chicago.
		{StartTime: time.Date(2026, 4, 22, 3, 0, 0, 0, time.UTC)},
		{},
	}

	counts := CountByDate(appts, chicago)
	if counts["2026-04-20"] != 2 || counts["2026-04-21"] != 1 || len(counts) != 2 {
		t.Errorf("unexpected counts %v", counts)
	}
}
