package panel

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/tekx/internal/models"
)

// Storage keys.
const (
	StateKey = "tekmetric_advance_panel_state"
	OpenKey  = "tekmetric_advance_panel_open"
)

// Storage is the client-side key/value store the panel persists into.
type Storage interface {
	// Get returns the value under key, or false when the key is absent.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// MemoryStorage is a [Storage] held in process memory.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: map[string][]byte{}}
}

func (m *MemoryStorage) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

func (m *MemoryStorage) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = bytes.Clone(value)
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type persistedAppointment struct {
	Date    *string                `json:"date"`
	Mileage *int                   `json:"mileage"`
	Type    models.AppointmentType `json:"type"`
}

type persistedState struct {
	Screen                   Screen                   `json:"screen"`
	SourceROID               string                   `json:"sourceRoId,omitempty"`
	RO                       *models.RepairOrder      `json:"roData"`
	MonthInterval            int                      `json:"monthInterval"`
	MileInterval             int                      `json:"mileInterval"`
	Appointment              persistedAppointment     `json:"appointment"`
	AppointmentCounts        models.AppointmentCounts `json:"appointmentCounts"`
	AppointmentCountWeekKey  string                   `json:"appointmentCountWeekKey"`
	AppointmentCountsLoading bool                     `json:"appointmentCountsLoading"`
	RepeatServices           IDSet                    `json:"repeatServices"`
	DeclinedServices         IDSet                    `json:"declinedServices"`
	CustomerNotes            string                   `json:"customerNotes"`
	SelectionsSeededFor      string                   `json:"selectionsSeededFor,omitempty"`
}

// Marshal serializes the persistent part of s. Dates are RFC 3339.
func Marshal(s State) ([]byte, error) {
	p := persistedState{
		Screen:                   s.Screen,
		SourceROID:               s.SourceROID,
		RO:                       s.RO,
		MonthInterval:            s.MonthInterval,
		MileInterval:             s.MileInterval,
		Appointment:              persistedAppointment{Mileage: s.Appointment.Mileage, Type: s.Appointment.Type},
		AppointmentCounts:        s.AppointmentCounts,
		AppointmentCountWeekKey:  s.AppointmentCountWeekKey,
		AppointmentCountsLoading: s.AppointmentCountsLoading,
		RepeatServices:           s.RepeatServices,
		DeclinedServices:         s.DeclinedServices,
		CustomerNotes:            s.CustomerNotes,
		SelectionsSeededFor:      s.SelectionsSeededFor,
	}
	if p.AppointmentCounts == nil {
		p.AppointmentCounts = models.AppointmentCounts{}
	}
	if p.RepeatServices == nil {
		p.RepeatServices = IDSet{}
	}
	if p.DeclinedServices == nil {
		p.DeclinedServices = IDSet{}
	}
	if s.Appointment.Date != nil {
		d := s.Appointment.Date.Format(time.RFC3339)
		p.Appointment.Date = &d
	}
	return json.Marshal(p)
}

// Hydrate restores a state from data, validating every field on its own.
//
// A field that is missing, of the wrong type or out of range keeps its value from defaults; Hydrate
// never fails. The confirmation screen is not restored: a session that ended there resumes on the
// services screen. A counts fetch that was in flight when the state was written is forgotten so the
// next window request fetches again.
func Hydrate(data []byte, defaults State) State {
	s := defaults.Clone()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return s
	}

	var screen int
	if decode(fields["screen"], &screen) {
		switch Screen(screen) {
		case ScreenSchedule, ScreenServices:
			s.Screen = Screen(screen)
		case ScreenConfirmation:
			s.Screen = ScreenServices
		}
	}

	var roID models.ID
	if decode(fields["sourceRoId"], &roID) {
		s.SourceROID = roID.String()
	}

	var ro models.RepairOrder
	if raw := fields["roData"]; len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) && decode(raw, &ro) {
		s.RO = &ro
	}

	var months, miles int
	if decode(fields["monthInterval"], &months) && ValidMonths(months) {
		s.MonthInterval = months
	}
	if decode(fields["mileInterval"], &miles) && ValidMiles(miles) {
		s.MileInterval = miles
	}

	var appt map[string]json.RawMessage
	if decode(fields["appointment"], &appt) {
		var raw string
		if decode(appt["date"], &raw) {
			if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
				s.Appointment.Date = &t
			}
		}
		var mileage float64
		if decode(appt["mileage"], &mileage) && !math.IsNaN(mileage) && !math.IsInf(mileage, 0) && mileage >= 0 {
			m := int(math.Round(mileage))
			s.Appointment.Mileage = &m
		}
		var typ string
		if decode(appt["type"], &typ) && models.AppointmentType(typ).Valid() {
			s.Appointment.Type = models.AppointmentType(typ)
		}
	}

	var counts map[string]json.RawMessage
	if decode(fields["appointmentCounts"], &counts) {
		s.AppointmentCounts = models.AppointmentCounts{}
		for key, raw := range counts {
			var n int
			if _, err := time.Parse(time.DateOnly, key); err != nil || !decode(raw, &n) || n < 0 {
				continue
			}
			s.AppointmentCounts[key] = n
		}
	}

	var weekKey string
	if decode(fields["appointmentCountWeekKey"], &weekKey) {
		s.AppointmentCountWeekKey = weekKey
	}
	var loading bool
	if decode(fields["appointmentCountsLoading"], &loading) && loading {
		s.AppointmentCountWeekKey = ""
	}
	s.AppointmentCountsLoading = false

	s.RepeatServices = decodeIDs(fields["repeatServices"], s.RepeatServices)
	s.DeclinedServices = decodeIDs(fields["declinedServices"], s.DeclinedServices)

	var notes string
	if decode(fields["customerNotes"], &notes) {
		s.CustomerNotes = notes
	}
	var seeded string
	if decode(fields["selectionsSeededFor"], &seeded) {
		s.SelectionsSeededFor = seeded
	}

	return s
}

func decode(raw json.RawMessage, v any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// decodeIDs reads an array of string or numeric ids, skipping anything else.
func decodeIDs(raw json.RawMessage, fallback IDSet) IDSet {
	var items []json.RawMessage
	if !decode(raw, &items) {
		return fallback
	}
	set := IDSet{}
	for _, item := range items {
		var id models.ID
		if !decode(item, &id) {
			continue
		}
		if v := strings.TrimSpace(id.String()); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
