package panel

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/shared"
	"github.com/go-playground/validator/v10"
)

// Backend is the proxy as seen by the panel.
type Backend interface {
	RepairOrder(ctx context.Context, roID string) (*models.RepairOrder, error)
	AppointmentCounts(ctx context.Context, req CountsRequest) (models.AppointmentCounts, error)
	CreateAppointment(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error)
}

// Options configures a [Controller].
type Options struct {
	Storage Storage
	Backend Backend
	Logger  *log.Logger

	// Now defaults to time.Now and Location to time.Local.
	Now      func() time.Time
	Location *time.Location

	// StartHour is the hour of day the booked hour begins; defaults to 8.
	StartHour     int
	DefaultMonths int
	DefaultMiles  int

	// OnBooked is called after a successful submission with the session's repair order id.
	OnBooked func(roID string, req models.BookingRequest, result *models.BookingResult)
}

// Controller owns the panel state and applies commands to it.
//
// A Controller is not safe for concurrent use; callers apply commands and async results from one
// goroutine.
type Controller struct {
	state    State
	storage  Storage
	backend  Backend
	logger   *log.Logger
	now      func() time.Time
	loc      *time.Location
	hour     int
	months   int
	miles    int
	validate *validator.Validate
	onBooked func(string, models.BookingRequest, *models.BookingResult)
}

// NewController creates a controller holding a default state. Call [Controller.Open] or
// [Controller.BeginSession] to load a session.
func NewController(opts Options) *Controller {
	c := &Controller{
		storage:  opts.Storage,
		backend:  opts.Backend,
		logger:   opts.Logger,
		now:      opts.Now,
		loc:      opts.Location,
		hour:     opts.StartHour,
		months:   opts.DefaultMonths,
		miles:    opts.DefaultMiles,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		onBooked: opts.OnBooked,
	}
	if c.storage == nil {
		c.storage = NewMemoryStorage()
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(io.Discard)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.hour <= 0 || c.hour > 22 {
		c.hour = 8
	}
	c.state = DefaultState(c.months, c.miles)
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State { return c.state.Clone() }

// Location returns the time zone dates are computed in.
func (c *Controller) Location() *time.Location { return c.loc }

func (c *Controller) defaults() State { return DefaultState(c.months, c.miles) }

func (c *Controller) today() time.Time { return Today(c.now(), c.loc) }

func (c *Controller) recommendation() Recommendation {
	var mileage *float64
	if c.state.RO != nil {
		mileage = c.state.RO.Mileage
	}
	return Recommend(c.today(), c.state.MonthInterval, c.state.MileInterval, mileage)
}

func (c *Controller) classification() Classification {
	if c.state.RO == nil {
		return Classification{}
	}
	return Classify(c.state.RO.Jobs)
}

// Dispatch applies cmd. Commands that are not legal on the current screen return
// [ErrIllegalTransition] and leave the state untouched. Submit performs the network call
// synchronously; interactive callers use [Controller.BeginSubmit] instead. While a submission is in
// flight only Close is accepted.
func (c *Controller) Dispatch(ctx context.Context, cmd Command) error {
	if _, ok := cmd.(Close); ok {
		c.Close()
		return nil
	}
	if c.state.Submitting {
		return fmt.Errorf("%w: %s", ErrSubmissionInFlight, cmd.Name())
	}
	if !allowed[c.state.Screen][cmd.Name()] {
		return illegal(cmd, c.state.Screen)
	}

	switch cmd := cmd.(type) {
	case SelectDate:
		return c.selectDate(cmd.Date)
	case ChangeInterval:
		return c.changeInterval(cmd.Months, cmd.Miles)
	case ToggleService:
		return c.toggleService(cmd.List, cmd.ID)
	case SetAppointmentType:
		if !cmd.Type.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidType, cmd.Type)
		}
		c.state.Appointment.Type = cmd.Type
		c.persist()
		return nil
	case SetNotes:
		c.state.CustomerNotes = cmd.Text
		c.persist()
		return nil
	case Continue:
		return c.continueToServices()
	case Back:
		c.state.Screen = ScreenSchedule
		c.state.SubmitError = ""
		c.refresh()
		return nil
	case Submit:
		return c.Submit(ctx)
	}
	return illegal(cmd, c.state.Screen)
}

// refresh re-derives the draft from the recommendation and window, then persists.
//
// The draft date is initialized to the recommended date only when unset; the draft mileage always
// follows the recommendation. A draft date outside the window is reset to the window's Monday.
// Calling refresh again with unchanged inputs changes nothing.
func (c *Controller) refresh() {
	rec := c.recommendation()
	if c.state.Appointment.Date == nil {
		d := rec.Date
		c.state.Appointment.Date = &d
	}
	c.state.Appointment.Mileage = rec.Mileage

	window := DateWindow(rec.Date)
	if !inWindow(window, *c.state.Appointment.Date, c.loc) {
		monday := window[0]
		c.state.Appointment.Date = &monday
	}
	c.persist()
}

func (c *Controller) selectDate(date time.Time) error {
	window := DateWindow(c.recommendation().Date)
	if !inWindow(window, date, c.loc) {
		return fmt.Errorf("%w: %s", ErrDateOutsideWindow, DateKey(date, c.loc))
	}
	d := date.In(c.loc)
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.loc)
	c.state.Appointment.Date = &d
	c.refresh()
	return nil
}

func (c *Controller) changeInterval(months, miles int) error {
	if months != 0 && !ValidMonths(months) {
		return fmt.Errorf("%w: %d months", ErrInvalidInterval, months)
	}
	if miles != 0 && !ValidMiles(miles) {
		return fmt.Errorf("%w: %d miles", ErrInvalidInterval, miles)
	}
	if months != 0 {
		c.state.MonthInterval = months
	}
	if miles != 0 {
		c.state.MileInterval = miles
	}
	c.refresh()
	return nil
}

func (c *Controller) toggleService(list ServiceList, id string) error {
	cl := c.classification()
	var known, selected IDSet
	switch list {
	case RepeatList:
		known, selected = cl.PerformedIDs(), c.state.RepeatServices
	case DeclinedList:
		known, selected = cl.DeclinedIDs(), c.state.DeclinedServices
	default:
		return fmt.Errorf("%w: list %d", ErrUnknownService, list)
	}
	if !known.Has(id) {
		return fmt.Errorf("%w: %s", ErrUnknownService, id)
	}
	selected.Toggle(id)
	c.persist()
	return nil
}

// continueToServices enters screen 2. The first entry for a repair order selects every performed
// and declined job, but only into selections that are still empty.
func (c *Controller) continueToServices() error {
	if c.state.RO == nil {
		return ErrNoRepairOrder
	}
	if c.state.Appointment.Date == nil {
		c.refresh()
	}

	roID := c.state.RO.ID.String()
	if c.state.SelectionsSeededFor != roID {
		cl := c.classification()
		if len(c.state.RepeatServices) == 0 {
			c.state.RepeatServices = cl.PerformedIDs()
		}
		if len(c.state.DeclinedServices) == 0 {
			c.state.DeclinedServices = cl.DeclinedIDs()
		}
		c.state.SelectionsSeededFor = roID
	}

	c.state.Screen = ScreenServices
	c.persist()
	return nil
}

// Preview returns the purpose of visit for the current selections.
func (c *Controller) Preview() string {
	return ComposePurpose(PurposeInput{
		Services: c.classification(),
		Repeat:   c.state.RepeatServices,
		Declined: c.state.DeclinedServices,
		Type:     c.state.Appointment.Type,
		Notes:    c.state.CustomerNotes,
	})
}

// persist writes the state. Failures are logged and otherwise ignored.
func (c *Controller) persist() {
	data, err := Marshal(c.state)
	if err != nil {
		c.logger.Debug("failed to encode panel state", "error", err)
		return
	}
	if err := c.storage.Set(StateKey, data); err != nil {
		c.logger.Debug("failed to persist panel state", "error", err)
	}
}
