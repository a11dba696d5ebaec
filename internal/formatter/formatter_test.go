package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/shared"
	th "github.com/desertthunder/tekx/internal/testing"
)

func TestFormatters(t *testing.T) {
	t.Run("ParseFormat", func(t *testing.T) {
		tt := []struct {
			in   string
			want Format
		}{
			{"", FormatText},
			{"MD", FormatMarkdown},
			{"csv", FormatCSV},
			{" json ", FormatJSON},
		}
		for _, tc := range tt {
			got, err := ParseFormat(tc.in)
			if err != nil || got != tc.want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
			}
		}
		if _, err := ParseFormat("yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("RepairOrderToText", func(t *testing.T) {
		data, err := RepairOrderToText(th.SampleRepairOrder())
		if err != nil {
			t.Fatalf("RepairOrderToText failed: %v", err)
		}
		output := string(data)

		for _, want := range []string{
			"Repair Order: #10342",
			"Customer: Dana Reyes",
			"Vehicle: 2017 Honda Accord",
			"Mileage: 48,250 mi",
			"Performed (2):\n1. Oil Change\n2. Tire Rotation",
			"Declined (1):\n1. Brake Pads",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("text missing %q, got:\n%s", want, output)
			}
		}
		if strings.Contains(output, "Cabin Filter") {
			t.Error("pending jobs should not be listed")
		}
	})

	t.Run("RepairOrderToMarkdown", func(t *testing.T) {
		ro := th.SampleRepairOrder()
		ro.Mileage = nil
		data, err := RepairOrderToMarkdown(ro)
		if err != nil {
			t.Fatalf("RepairOrderToMarkdown failed: %v", err)
		}
		output := string(data)

		if !strings.HasPrefix(output, "# Repair Order #10342\n") {
			t.Errorf("missing heading, got:\n%s", output)
		}
		if !strings.Contains(output, "**Mileage**: unknown") {
			t.Error("expected unknown mileage")
		}
		if !strings.Contains(output, "## Declined\n\n- Brake Pads") {
			t.Errorf("missing declined section, got:\n%s", output)
		}
	})

	t.Run("JobsToCSV", func(t *testing.T) {
		data, err := JobsToCSV(th.SampleRepairOrder())
		if err != nil {
			t.Fatalf("JobsToCSV failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 5 {
			t.Fatalf("expected header and 4 rows, got %d", len(lines))
		}
		if lines[0] != "ID,Name,Classification,Status" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if lines[3] != "13,Brake Pads,declined,DECLINED" || lines[4] != "14,Cabin Filter,other,PENDING" {
			t.Errorf("unexpected rows %q", lines[3:])
		}
	})

	t.Run("RepairOrder JSON", func(t *testing.T) {
		data, err := RepairOrder(th.SampleRepairOrder(), FormatJSON)
		if err != nil {
			t.Fatalf("RepairOrder failed: %v", err)
		}
		var ro models.RepairOrder
		if err := json.Unmarshal(data, &ro); err != nil || ro.ID != "1501" {
			t.Errorf("expected decodable repair order, got %v %+v", err, ro)
		}
	})

	t.Run("Counts", func(t *testing.T) {
		start := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 0, 4)
		counts := models.AppointmentCounts{"2026-09-01": 3}

		text, _ := Counts(counts, start, end, FormatText)
		lines := strings.Split(strings.TrimSpace(string(text)), "\n")
		if len(lines) != 5 || lines[1] != "Tue 2026-09-01  3 booked" || lines[0] != "Mon 2026-08-31  0 booked" {
			t.Errorf("unexpected text counts %q", lines)
		}

		csvData, _ := Counts(counts, start, end, FormatCSV)
		if !strings.HasPrefix(string(csvData), "Date,Count\n2026-08-31,0\n2026-09-01,3\n") {
			t.Errorf("unexpected csv counts %q", csvData)
		}
	})

	t.Run("Bookings", func(t *testing.T) {
		booked := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
		entries := []*models.BookingLogEntry{
			{AppointmentID: "1", ROID: "1501", Title: "Older", StartTime: booked, CreatedAt: booked},
			{AppointmentID: "2", ROID: "1502", Title: "Newer", StartTime: booked, CreatedAt: booked.Add(time.Hour)},
		}
		miles := 53250
		detailed := &models.BookingLogEntry{
			ROID: "1503", ShopID: "238", CustomerID: "9", VehicleID: "44", Title: "Detailed",
			AppointmentType: models.AppointmentWait, StartTime: booked, Mileage: &miles, CreatedAt: booked.Add(-time.Hour),
		}

		text, err := Bookings(entries, time.UTC, FormatText)
		if err != nil {
			t.Fatalf("Bookings failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(text)), "\n")
		if len(lines) != 2 || !strings.Contains(lines[0], "Newer") {
			t.Errorf("expected newest first, got %q", lines)
		}

		empty, _ := Bookings(nil, time.UTC, FormatText)
		if string(empty) != "No bookings yet\n" {
			t.Errorf("unexpected empty output %q", empty)
		}

		csvData, _ := Bookings(entries, time.UTC, FormatCSV)
		if !strings.Contains(string(csvData), "2,1502,,,,Newer,,2026-03-02T12:00:00Z,,2026-03-02T13:00:00Z") {
			t.Errorf("unexpected csv %s", csvData)
		}

		csvData, _ = Bookings([]*models.BookingLogEntry{detailed}, time.UTC, FormatCSV)
		if !strings.Contains(string(csvData), ",1503,238,9,44,Detailed,wait,2026-03-02T12:00:00Z,53250,2026-03-02T11:00:00Z") {
			t.Errorf("unexpected csv %s", csvData)
		}

		text, _ = Bookings([]*models.BookingLogEntry{detailed}, time.UTC, FormatText)
		if !strings.Contains(string(text), "RO 1503  appointment id not returned") {
			t.Errorf("unexpected text for an entry without appointment id: %q", text)
		}
	})

	t.Run("WriteExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ro.md")
		if err := WriteExport([]byte("# RO\n"), path); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		th.AssertFileExists(t, path)
		if got := th.MustReadFile(t, path); got != "# RO\n" {
			t.Errorf("unexpected file content %q", got)
		}

		if err := WriteExport([]byte("x"), filepath.Join(t.TempDir(), "missing", "ro.md")); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
