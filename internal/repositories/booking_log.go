package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/shared"
)

// BookingLogRepository records appointments booked from the panel.
type BookingLogRepository struct {
	db *sql.DB
}

// NewBookingLogRepository creates a new [BookingLogRepository] with the given database connection
func NewBookingLogRepository(db *sql.DB) *BookingLogRepository {
	return &BookingLogRepository{db: db}
}

// Create inserts entry with a generated ID. CreatedAt defaults to now.
func (r *BookingLogRepository) Create(entry *models.BookingLogEntry) error {
	if entry.ROID == "" {
		return fmt.Errorf("%w: booking log entry needs a repair order id", shared.ErrInvalidInput)
	}

	entry.ID = shared.GenerateID()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO booking_log (
			id, appointment_id, ro_id, shop_id, customer_id, vehicle_id,
			title, appointment_type, start_time, mileage, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var mileage sql.NullInt64
	if entry.Mileage != nil {
		mileage = sql.NullInt64{Int64: int64(*entry.Mileage), Valid: true}
	}
	_, err := r.db.Exec(query,
		entry.ID,
		entry.AppointmentID,
		entry.ROID,
		entry.ShopID,
		entry.CustomerID,
		entry.VehicleID,
		entry.Title,
		string(entry.AppointmentType),
		entry.StartTime.UTC(),
		mileage,
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

// Get retrieves a booking by ID.
func (r *BookingLogRepository) Get(id string) (*models.BookingLogEntry, error) {
	query := `
		SELECT id, appointment_id, ro_id, shop_id, customer_id, vehicle_id,
			title, appointment_type, start_time, mileage, created_at
		FROM booking_log
		WHERE id = ?
	`
	entry, err := scanEntry(r.db.QueryRow(query, id))
	if err != nil {
		return nil, notFound(err, "booking "+id)
	}
	return entry, nil
}

// List returns bookings newest first, optionally filtered by "ro_id" or "shop_id". A positive limit
// caps the result.
func (r *BookingLogRepository) List(filters map[string]any, limit int) ([]*models.BookingLogEntry, error) {
	query := `
		SELECT id, appointment_id, ro_id, shop_id, customer_id, vehicle_id,
			title, appointment_type, start_time, mileage, created_at
		FROM booking_log
		WHERE 1 = 1
	`
	var args []any
	if roID, ok := filters["ro_id"]; ok {
		query += " AND ro_id = ?"
		args = append(args, roID)
	}
	if shopID, ok := filters["shop_id"]; ok {
		query += " AND shop_id = ?"
		args = append(args, shopID)
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var entries []*models.BookingLogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Record logs an appointment booked for repair order roID.
func (r *BookingLogRepository) Record(roID string, req models.BookingRequest, result *models.BookingResult) error {
	entry := &models.BookingLogEntry{
		ROID:            roID,
		ShopID:          req.ShopID.String(),
		CustomerID:      req.CustomerID.String(),
		VehicleID:       req.VehicleID.String(),
		Title:           req.Title,
		AppointmentType: req.AppointmentType,
		StartTime:       req.StartTime,
		Mileage:         req.Mileage,
	}
	if result != nil {
		entry.AppointmentID = result.ID.String()
	}
	return r.Create(entry)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.BookingLogEntry, error) {
	var (
		entry   models.BookingLogEntry
		kind    string
		mileage sql.NullInt64
	)
	if err := s.Scan(
		&entry.ID,
		&entry.AppointmentID,
		&entry.ROID,
		&entry.ShopID,
		&entry.CustomerID,
		&entry.VehicleID,
		&entry.Title,
		&kind,
		&entry.StartTime,
		&mileage,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	entry.AppointmentType = models.AppointmentType(kind)
	if mileage.Valid {
		m := int(mileage.Int64)
		entry.Mileage = &m
	}
	return &entry, nil
}
