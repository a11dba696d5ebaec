package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/shared"
	"github.com/go-playground/validator/v10"
)

// Title formats the appointment title, e.g. "6 Month / 5,000 Mile Service".
func Title(months, miles int) string {
	return fmt.Sprintf("%d Month / %s Mile Service", months, shared.FormatNumber(miles))
}

// BookingRequest builds the submission payload from the current state.
func (c *Controller) BookingRequest() (models.BookingRequest, error) {
	if c.state.RO == nil {
		return models.BookingRequest{}, ErrNoRepairOrder
	}
	if c.state.Appointment.Date == nil {
		c.refresh()
	}

	d := c.state.Appointment.Date.In(c.loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), c.hour, 0, 0, 0, c.loc)

	return models.BookingRequest{
		ShopID:          c.state.RO.ShopID,
		CustomerID:      c.state.RO.Customer.ID,
		VehicleID:       c.state.RO.Vehicle.ID,
		Title:           Title(c.state.MonthInterval, c.state.MileInterval),
		PurposeOfVisit:  c.Preview(),
		AppointmentType: c.state.Appointment.Type,
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		Mileage:         c.state.Appointment.Mileage,
	}, nil
}

// BeginSubmit validates and returns the booking request, marking the state as submitting.
//
// Validation failures are reported like any failed submission: inline, screen unchanged.
func (c *Controller) BeginSubmit() (models.BookingRequest, error) {
	if c.state.Screen != ScreenServices {
		return models.BookingRequest{}, illegal(Submit{}, c.state.Screen)
	}
	if c.state.Submitting {
		return models.BookingRequest{}, ErrSubmissionInFlight
	}

	req, err := c.BookingRequest()
	if err == nil {
		err = c.validate.Struct(req)
	}
	if err != nil {
		serr := &SubmissionError{Message: invalidMessage(err), Err: err}
		c.state.SubmitError = serr.Message
		c.persist()
		return models.BookingRequest{}, serr
	}

	c.state.Submitting = true
	c.state.SubmitError = ""
	return req, nil
}

// ResolveSubmit applies the booking outcome. Success moves to the confirmation screen; failure
// keeps the services screen and draft as they were and records the message for display.
//
// An outcome that arrives when no submission is pending (the session was closed or replaced
// meanwhile) is dropped.
func (c *Controller) ResolveSubmit(req models.BookingRequest, result *models.BookingResult, err error) error {
	if !c.state.Submitting || c.state.Screen != ScreenServices {
		c.logger.Debug("dropping stale submission result", "ro_id", c.state.SourceROID, "screen", c.state.Screen)
		return nil
	}
	c.state.Submitting = false

	if err != nil {
		var serr *SubmissionError
		if !errors.As(err, &serr) {
			serr = &SubmissionError{Message: err.Error(), Err: err}
		}
		c.state.SubmitError = serr.Message
		c.logger.Warn("appointment submission failed", "ro_id", c.state.SourceROID, "error", err)
		c.persist()
		return serr
	}

	c.state.Screen = ScreenConfirmation
	c.state.SubmitError = ""
	if result != nil {
		c.state.BookedAppointmentID = result.ID.String()
	}
	c.logger.Info("appointment booked", "ro_id", c.state.SourceROID, "appointment_id", c.state.BookedAppointmentID)
	c.persist()

	if c.onBooked != nil {
		c.onBooked(c.state.SourceROID, req, result)
	}
	return nil
}

// Submit books the appointment synchronously through the backend.
func (c *Controller) Submit(ctx context.Context) error {
	req, err := c.BeginSubmit()
	if err != nil {
		return err
	}
	if c.backend == nil {
		return c.ResolveSubmit(req, nil, errors.New("booking service unavailable"))
	}
	result, err := c.backend.CreateAppointment(ctx, req)
	return c.ResolveSubmit(req, result, err)
}

func invalidMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return "Repair order is missing " + strings.Join(fields, ", ")
}
