package panel

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/desertthunder/tekx/internal/models"
)

// Screen is a wizard step.
type Screen int

const (
	ScreenSchedule     Screen = 1 // interval + date selection
	ScreenServices     Screen = 2 // type, services, notes, preview, submit
	ScreenConfirmation Screen = 3 // terminal until the panel is closed
)

func (s Screen) String() string {
	switch s {
	case ScreenSchedule:
		return "schedule"
	case ScreenServices:
		return "services"
	case ScreenConfirmation:
		return "confirmation"
	}
	return "unknown"
}

// Interval bounds.
const (
	MinMonths     = 3
	MaxMonths     = 12
	MinMiles      = 3000
	MaxMiles      = 15000
	MilesStep     = 1000
	DefaultMonths = 6
	DefaultMiles  = 5000
)

// ValidMonths reports whether m is an allowed month interval.
func ValidMonths(m int) bool { return m >= MinMonths && m <= MaxMonths }

// ValidMiles reports whether m is an allowed mile interval.
func ValidMiles(m int) bool { return m >= MinMiles && m <= MaxMiles && m%MilesStep == 0 }

// StepMonths moves the month interval by delta, clamped to the allowed range.
func StepMonths(current, delta int) int {
	return min(max(current+delta, MinMonths), MaxMonths)
}

// StepMiles moves the mile interval by delta steps, clamped to the allowed range.
func StepMiles(current, delta int) int {
	return min(max(current+delta*MilesStep, MinMiles), MaxMiles)
}

// IDSet is a set of service identifiers.
type IDSet map[string]struct{}

// NewIDSet creates a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Toggle flips membership of id.
func (s IDSet) Toggle(id string) {
	if s.Has(id) {
		delete(s, id)
		return
	}
	s[id] = struct{}{}
}

// Sorted returns the members in lexical order.
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	c := make(IDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Retain removes every member not in keep.
func (s IDSet) Retain(keep IDSet) {
	for id := range s {
		if !keep.Has(id) {
			delete(s, id)
		}
	}
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// Appointment is the in-progress booking draft.
type Appointment struct {
	Date    *time.Time
	Mileage *int
	Type    models.AppointmentType
}

// State is the panel's single mutable root.
type State struct {
	Screen     Screen
	SourceROID string
	RO         *models.RepairOrder

	MonthInterval int
	MileInterval  int
	Appointment   Appointment

	AppointmentCounts        models.AppointmentCounts
	AppointmentCountWeekKey  string
	AppointmentCountsLoading bool

	RepeatServices   IDSet
	DeclinedServices IDSet
	CustomerNotes    string

	// SelectionsSeededFor is the repair order id whose selections were defaulted to "all".
	SelectionsSeededFor string

	// Runtime only, never persisted.
	Submitting          bool
	SubmitError         string
	BookedAppointmentID string
}

// DefaultState returns a fresh state with the given intervals.
func DefaultState(months, miles int) State {
	if !ValidMonths(months) {
		months = DefaultMonths
	}
	if !ValidMiles(miles) {
		miles = DefaultMiles
	}
	return State{
		Screen:            ScreenSchedule,
		MonthInterval:     months,
		MileInterval:      miles,
		Appointment:       Appointment{Type: models.AppointmentDropoff},
		AppointmentCounts: models.AppointmentCounts{},
		RepeatServices:    IDSet{},
		DeclinedServices:  IDSet{},
	}
}

// Clone returns a deep copy; the repair order snapshot is shared since it is never mutated.
func (s State) Clone() State {
	c := s
	c.RepeatServices = s.RepeatServices.Clone()
	c.DeclinedServices = s.DeclinedServices.Clone()
	c.AppointmentCounts = make(models.AppointmentCounts, len(s.AppointmentCounts))
	for k, v := range s.AppointmentCounts {
		c.AppointmentCounts[k] = v
	}
	if s.Appointment.Date != nil {
		d := *s.Appointment.Date
		c.Appointment.Date = &d
	}
	if s.Appointment.Mileage != nil {
		m := *s.Appointment.Mileage
		c.Appointment.Mileage = &m
	}
	return c
}

// resetSession clears everything tied to a specific repair order.
func (s *State) resetSession() {
	s.Screen = ScreenSchedule
	s.RO = nil
	s.Appointment.Date = nil
	s.Appointment.Mileage = nil
	s.AppointmentCounts = models.AppointmentCounts{}
	s.AppointmentCountWeekKey = ""
	s.AppointmentCountsLoading = false
	s.RepeatServices = IDSet{}
	s.DeclinedServices = IDSet{}
	s.CustomerNotes = ""
	s.SelectionsSeededFor = ""
	s.Submitting = false
	s.SubmitError = ""
	s.BookedAppointmentID = ""
}
