package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ID is an identifier that decodes from a JSON string or number.
type ID string

// UnmarshalJSON accepts "123", 123 and null.
func (i *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*i = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*i = ID(n.String())
	return nil
}

func (i ID) String() string { return string(i) }

// Customer is the repair order's customer.
type Customer struct {
	ID        ID     `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Name returns the customer's display name.
func (c Customer) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Vehicle is the repair order's vehicle.
type Vehicle struct {
	ID           ID     `json:"id"`
	Year         int    `json:"year,omitempty"`
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	SubModel     string `json:"subModel,omitempty"`
	VIN          string `json:"vin,omitempty"`
	LicensePlate string `json:"licensePlate,omitempty"`
}

// Description returns "<year> <make> <model>", skipping blanks.
func (v Vehicle) Description() string {
	var parts []string
	if v.Year > 0 {
		parts = append(parts, fmt.Sprint(v.Year))
	}
	for _, p := range []string{v.Make, v.Model, v.SubModel} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Job is a single line item of work on a repair order.
//
// Status may be carried by any of the three status fields and the explicit flags; classification
// happens in the panel and is never stored here.
type Job struct {
	ID                  ID     `json:"id,omitempty"`
	JobID               ID     `json:"jobId,omitempty"`
	Name                string `json:"name"`
	Authorized          *bool  `json:"authorized,omitempty"`
	Approved            *bool  `json:"approved,omitempty"`
	Declined            *bool  `json:"declined,omitempty"`
	AuthorizationStatus string `json:"authorizationStatus,omitempty"`
	ApprovalStatus      string `json:"approvalStatus,omitempty"`
	Status              string `json:"status,omitempty"`
}

// RepairOrder is the snapshot of a repair order the panel works from.
type RepairOrder struct {
	ID       ID       `json:"roId"`
	Number   string   `json:"roNumber,omitempty"`
	ShopID   ID       `json:"shopId"`
	Mileage  *float64 `json:"mileage"`
	Customer Customer `json:"customer"`
	Vehicle  Vehicle  `json:"vehicle"`
	Jobs     []Job    `json:"jobs"`
}

// RepairOrderResponse is the proxy's GET /ro/{roId} envelope.
type RepairOrderResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	RepairOrder
}

// AppointmentType is how the customer spends the visit.
type AppointmentType string

const (
	AppointmentDropoff AppointmentType = "dropoff"
	AppointmentWait    AppointmentType = "wait"
)

// Valid reports whether t is a known appointment type.
func (t AppointmentType) Valid() bool {
	return t == AppointmentDropoff || t == AppointmentWait
}

// Label returns the human readable form used in the purpose of visit.
func (t AppointmentType) Label() string {
	if t == AppointmentWait {
		return "Customer Waits"
	}
	return "Drop-Off"
}

// AppointmentCounts maps a date key (YYYY-MM-DD) to the number of booked appointments.
type AppointmentCounts map[string]int

// CountsResponse is the proxy's GET /appointments/counts envelope.
type CountsResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	Counts  AppointmentCounts `json:"counts"`
}

// Appointment is an appointment as listed by the proxy.
type Appointment struct {
	ID          ID        `json:"id"`
	ShopID      ID        `json:"shopId"`
	CustomerID  ID        `json:"customerId"`
	VehicleID   ID        `json:"vehicleId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
}

// BookingRequest is the body of POST /appointments.
type BookingRequest struct {
	ShopID          ID              `json:"shopId" validate:"required"`
	CustomerID      ID              `json:"customerId" validate:"required"`
	VehicleID       ID              `json:"vehicleId" validate:"required"`
	Title           string          `json:"title" validate:"required,max=255"`
	PurposeOfVisit  string          `json:"purposeOfVisit"`
	AppointmentType AppointmentType `json:"appointmentType" validate:"required,oneof=dropoff wait"`
	StartTime       time.Time       `json:"startTime" validate:"required"`
	EndTime         time.Time       `json:"endTime" validate:"required,gtfield=StartTime"`
	Mileage         *int            `json:"mileage,omitempty" validate:"omitempty,gte=0"`
}

// BookingResult is the created appointment.
type BookingResult struct {
	ID   ID              `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// BookingResponse is the proxy's POST /appointments envelope.
type BookingResponse struct {
	Success     bool           `json:"success"`
	Error       string         `json:"error,omitempty"`
	Appointment *BookingResult `json:"appointment,omitempty"`
}

// BookingLogEntry records an appointment booked from the panel.
//
// AppointmentID is empty when the proxy answered with the appointment data but no id.
type BookingLogEntry struct {
	ID              string
	AppointmentID   string
	ROID            string
	ShopID          string
	CustomerID      string
	VehicleID       string
	Title           string
	AppointmentType AppointmentType
	StartTime       time.Time
	Mileage         *int
	CreatedAt       time.Time
}
