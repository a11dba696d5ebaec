package tekmetric

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/shared"
)

// ListShape names the envelope a list response arrived in.
type ListShape string

const (
	ShapeContent      ListShape = "content"
	ShapeData         ListShape = "data"
	ShapeAppointments ListShape = "appointments"
	ShapeArray        ListShape = "array"
)

// listShapes is the priority order used by [DecodeList].
var listShapes = []ListShape{ShapeContent, ShapeData, ShapeAppointments}

// Page is a decoded list response.
type Page struct {
	Shape ListShape
	Items []json.RawMessage
	// Last is false only when a paginated envelope says more pages follow.
	Last bool
}

type envelope struct {
	Content      json.RawMessage `json:"content"`
	Data         json.RawMessage `json:"data"`
	Appointments json.RawMessage `json:"appointments"`
	Last         *bool           `json:"last"`
}

func (e envelope) field(shape ListShape) json.RawMessage {
	switch shape {
	case ShapeContent:
		return e.Content
	case ShapeData:
		return e.Data
	case ShapeAppointments:
		return e.Appointments
	}
	return nil
}

// DecodeList extracts the items of a list response.
//
// Object envelopes are tried in order content, data, appointments; the first key holding an array
// wins. A bare array is accepted as is. Any other body yields an empty page and
// [shared.ErrUnexpectedShape].
func DecodeList(body []byte) (Page, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Page{Last: true}, fmt.Errorf("%w: empty body", shared.ErrUnexpectedShape)
	}

	if body[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return Page{Last: true}, fmt.Errorf("%w: %v", shared.ErrUnexpectedShape, err)
		}
		return Page{Shape: ShapeArray, Items: items, Last: true}, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Page{Last: true}, fmt.Errorf("%w: %v", shared.ErrUnexpectedShape, err)
	}

	for _, shape := range listShapes {
		raw := bytes.TrimSpace(env.field(shape))
		if len(raw) == 0 || raw[0] != '[' {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return Page{Last: true}, fmt.Errorf("%w: %s: %v", shared.ErrUnexpectedShape, shape, err)
		}
		last := env.Last == nil || *env.Last
		return Page{Shape: shape, Items: items, Last: last}, nil
	}

	return Page{Last: true}, fmt.Errorf("%w: no list in response", shared.ErrUnexpectedShape)
}

type upstreamAppointment struct {
	ID          models.ID `json:"id"`
	ShopID      models.ID `json:"shopId"`
	CustomerID  models.ID `json:"customerId"`
	VehicleID   models.ID `json:"vehicleId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   string    `json:"startTime"`
	Start       string    `json:"start"`
	EndTime     string    `json:"endTime"`
	End         string    `json:"end"`
}

// decodeAppointment reads one appointment, taking the start from startTime, else start.
func decodeAppointment(raw json.RawMessage) (models.Appointment, error) {
	var ua upstreamAppointment
	if err := json.Unmarshal(raw, &ua); err != nil {
		return models.Appointment{}, fmt.Errorf("%w: appointment: %v", shared.ErrUnexpectedShape, err)
	}

	start, err := parseTime(firstNonEmpty(ua.StartTime, ua.Start))
	if err != nil {
		return models.Appointment{}, fmt.Errorf("%w: appointment %s start: %v", shared.ErrUnexpectedShape, ua.ID, err)
	}
	end, _ := parseTime(firstNonEmpty(ua.EndTime, ua.End))

	return models.Appointment{
		ID:          ua.ID,
		ShopID:      ua.ShopID,
		CustomerID:  ua.CustomerID,
		VehicleID:   ua.VehicleID,
		Title:       ua.Title,
		Description: ua.Description,
		StartTime:   start,
		EndTime:     end,
	}, nil
}

// CountByDate tallies appointments per date key in loc.
func CountByDate(appts []models.Appointment, loc *time.Location) models.AppointmentCounts {
	if loc == nil {
		loc = time.Local
	}
	counts := models.AppointmentCounts{}
	for _, a := range appts {
		if a.StartTime.IsZero() {
			continue
		}
		counts[a.StartTime.In(loc).Format(time.DateOnly)]++
	}
	return counts
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing time")
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
