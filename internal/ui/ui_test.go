package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/panel"
	tu "github.com/desertthunder/tekx/internal/testing"
)

type stubBackend struct {
	bookErr error
}

func (s *stubBackend) RepairOrder(context.Context, string) (*models.RepairOrder, error) {
	return tu.SampleRepairOrder(), nil
}

func (s *stubBackend) AppointmentCounts(context.Context, panel.CountsRequest) (models.AppointmentCounts, error) {
	return models.AppointmentCounts{"2026-09-02": 4}, nil
}

func (s *stubBackend) CreateAppointment(context.Context, models.BookingRequest) (*models.BookingResult, error) {
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	return &models.BookingResult{ID: "9001"}, nil
}

const pageURL = "https://shop.tekmetric.com/admin/shop/238/repair-orders/1501"

func newTestModel(t *testing.T, backend *stubBackend) (*Model, *panel.Controller) {
	t.Helper()
	ctrl := panel.NewController(panel.Options{
		Backend:  backend,
		Now:      func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) },
		Location: time.UTC,
	})
	m := NewModel(context.Background(), ctrl, backend, pageURL)
	if cmd := m.Init(); cmd == nil {
		t.Fatal("expected Init to start loading")
	}
	if !m.loading {
		t.Fatal("expected loading state")
	}

	// Run the repair order fetch inline.
	ro, err := backend.RepairOrder(context.Background(), "1501")
	_, cmd := m.Update(repairOrderLoadedMsg(ro, err))
	if cmd == nil {
		t.Fatal("expected a counts request after loading")
	}
	// The counts command calls the backend and returns its message.
	m.Update(cmd())
	return m, ctrl
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEscape}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m.Update(msg)
	}
}

func TestModel(t *testing.T) {
	t.Run("Schedule Screen", func(t *testing.T) {
		m, ctrl := newTestModel(t, &stubBackend{})

		view := m.View()
		for _, want := range []string{"step 1 of 3", "RO #10342", "Dana Reyes", "every 6 months / 5,000 miles", "4 booked"} {
			if !strings.Contains(view, want) {
				t.Errorf("schedule view missing %q:\n%s", want, view)
			}
		}

		press(m, "right")
		if got := ctrl.State().Appointment.Date.Format(time.DateOnly); got != "2026-09-03" {
			t.Errorf("expected next weekday selected, got %s", got)
		}

		press(m, "]")
		if ctrl.State().MonthInterval != 7 {
			t.Errorf("expected 7 months, got %d", ctrl.State().MonthInterval)
		}
	})

	t.Run("Services Screen", func(t *testing.T) {
		m, ctrl := newTestModel(t, &stubBackend{})
		press(m, "enter")
		if ctrl.State().Screen != panel.ScreenServices {
			t.Fatalf("expected services screen, got %s", ctrl.State().Screen)
		}

		press(m, "space", "t", "n", "C", "a", "l", "l", "esc")
		s := ctrl.State()
		if s.RepeatServices.Has("11") {
			t.Error("expected first service toggled off")
		}
		if s.Appointment.Type != models.AppointmentWait {
			t.Error("expected wait appointment")
		}
		if s.CustomerNotes != "Call" {
			t.Errorf("expected notes saved, got %q", s.CustomerNotes)
		}
		if view := m.View(); !strings.Contains(view, "CUSTOMER INSTRUCTIONS:") {
			t.Errorf("expected preview in view:\n%s", view)
		}

		press(m, "esc")
		if ctrl.State().Screen != panel.ScreenSchedule {
			t.Error("expected back on schedule screen")
		}
	})

	t.Run("Submit", func(t *testing.T) {
		backend := &stubBackend{bookErr: errors.New("Shop is closed")}
		m, ctrl := newTestModel(t, backend)
		press(m, "enter")

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
		if cmd == nil || !ctrl.State().Submitting {
			t.Fatal("expected submission in flight")
		}
		press(m, "esc")
		if ctrl.State().Screen != panel.ScreenServices {
			t.Error("back should be ignored while a submission is in flight")
		}
		req, _ := ctrl.BookingRequest()
		m.Update(submittedMsg(req, nil, backend.bookErr))
		if !strings.Contains(m.View(), "Shop is closed") {
			t.Error("expected inline submission error")
		}

		backend.bookErr = nil
		press(m, "s")
		m.Update(submittedMsg(req, &models.BookingResult{ID: "9001"}, nil))
		if ctrl.State().Screen != panel.ScreenConfirmation {
			t.Fatal("expected confirmation screen")
		}
		if view := m.View(); !strings.Contains(view, "Appointment ID: 9001") {
			t.Errorf("unexpected confirmation view:\n%s", view)
		}

		press(m, "enter")
		if ctrl.State().SourceROID != "" {
			t.Error("expected state cleared after done")
		}
	})

	t.Run("No Repair Order", func(t *testing.T) {
		ctrl := panel.NewController(panel.Options{})
		m := NewModel(context.Background(), ctrl, nil, "https://shop.tekmetric.com/board")
		m.Init()
		if !errors.Is(m.Err(), panel.ErrNoRepairOrder) {
			t.Errorf("expected ErrNoRepairOrder, got %v", m.Err())
		}
		if !strings.Contains(m.View(), "Error:") {
			t.Error("expected error view")
		}
	})
}
