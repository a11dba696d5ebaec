package panel

import (
	"time"

	"github.com/desertthunder/tekx/internal/models"
)

// DateOption is one weekday of the window.
type DateOption struct {
	Date     time.Time
	Key      string
	Count    int
	Selected bool
}

// ServiceOption is one selectable service.
type ServiceOption struct {
	ID       string
	Name     string
	Selected bool
}

// ViewModel is everything a renderer needs, derived from the state.
type ViewModel struct {
	Screen      Screen
	RepairOrder *models.RepairOrder

	MonthInterval      int
	MileInterval       int
	RecommendedDate    time.Time
	RecommendedMileage *int
	Dates              []DateOption
	CountsLoading      bool

	SelectedDate *time.Time
	Mileage      *int
	Type         models.AppointmentType
	Performed    []ServiceOption
	Declined     []ServiceOption
	Notes        string
	Preview      string
	Title        string

	Submitting          bool
	SubmitError         string
	BookedAppointmentID string

	CanContinue bool
	CanSubmit   bool
}

// View recomputes the full view model from the state.
func (c *Controller) View() ViewModel {
	rec := c.recommendation()
	cl := c.classification()

	vm := ViewModel{
		Screen:              c.state.Screen,
		RepairOrder:         c.state.RO,
		MonthInterval:       c.state.MonthInterval,
		MileInterval:        c.state.MileInterval,
		RecommendedDate:     rec.Date,
		RecommendedMileage:  rec.Mileage,
		CountsLoading:       c.state.AppointmentCountsLoading,
		Mileage:             c.state.Appointment.Mileage,
		Type:                c.state.Appointment.Type,
		Notes:               c.state.CustomerNotes,
		Preview:             c.Preview(),
		Title:               Title(c.state.MonthInterval, c.state.MileInterval),
		Submitting:          c.state.Submitting,
		SubmitError:         c.state.SubmitError,
		BookedAppointmentID: c.state.BookedAppointmentID,
	}
	if c.state.Appointment.Date != nil {
		d := *c.state.Appointment.Date
		vm.SelectedDate = &d
	}

	var selectedKey string
	if vm.SelectedDate != nil {
		selectedKey = DateKey(*vm.SelectedDate, c.loc)
	}
	for _, d := range DateWindow(rec.Date) {
		key := DateKey(d, c.loc)
		vm.Dates = append(vm.Dates, DateOption{
			Date:     d,
			Key:      key,
			Count:    c.state.AppointmentCounts[key],
			Selected: key == selectedKey,
		})
	}

	vm.Performed = serviceOptions(cl.Performed, c.state.RepeatServices)
	vm.Declined = serviceOptions(cl.Declined, c.state.DeclinedServices)

	vm.CanContinue = c.state.Screen == ScreenSchedule && c.state.RO != nil && vm.SelectedDate != nil
	vm.CanSubmit = c.state.Screen == ScreenServices && !c.state.Submitting
	return vm
}

func serviceOptions(items []ServiceItem, selected IDSet) []ServiceOption {
	opts := make([]ServiceOption, 0, len(items))
	for _, it := range items {
		opts = append(opts, ServiceOption{ID: it.ID, Name: it.Label(), Selected: selected.Has(it.ID)})
	}
	return opts
}
