package panel

import (
	"fmt"
	"time"

	"github.com/desertthunder/tekx/internal/models"
)

// Command is a user action dispatched into the [Controller].
type Command interface {
	Name() string
}

// SelectDate picks one of the window's dates on the schedule screen.
type SelectDate struct{ Date time.Time }

// ChangeInterval sets the month and mile intervals. Zero leaves a value unchanged.
type ChangeInterval struct {
	Months int
	Miles  int
}

// ServiceList names one of the two selection lists.
type ServiceList int

const (
	RepeatList ServiceList = iota
	DeclinedList
)

// ToggleService flips a service in the repeat or declined selection.
type ToggleService struct {
	List ServiceList
	ID   string
}

// SetAppointmentType chooses drop-off or wait.
type SetAppointmentType struct{ Type models.AppointmentType }

// SetNotes replaces the customer instructions.
type SetNotes struct{ Text string }

// Continue moves from the schedule screen to the services screen.
type Continue struct{}

// Back returns from the services screen to the schedule screen.
type Back struct{}

// Submit books the appointment.
type Submit struct{}

// Close discards all panel state.
type Close struct{}

func (SelectDate) Name() string         { return "SelectDate" }
func (ChangeInterval) Name() string     { return "ChangeInterval" }
func (ToggleService) Name() string      { return "ToggleService" }
func (SetAppointmentType) Name() string { return "SetAppointmentType" }
func (SetNotes) Name() string           { return "SetNotes" }
func (Continue) Name() string           { return "Continue" }
func (Back) Name() string               { return "Back" }
func (Submit) Name() string             { return "Submit" }
func (Close) Name() string              { return "Close" }

// allowed lists the commands legal on each screen. Close is legal everywhere.
var allowed = map[Screen]map[string]bool{
	ScreenSchedule: {
		"SelectDate": true, "ChangeInterval": true, "Continue": true,
	},
	ScreenServices: {
		"ToggleService": true, "SetAppointmentType": true, "SetNotes": true, "Back": true, "Submit": true,
	},
	ScreenConfirmation: {},
}

func illegal(cmd Command, screen Screen) error {
	return fmt.Errorf("%w: %s on %s screen", ErrIllegalTransition, cmd.Name(), screen)
}
