// package formatter renders repair orders, appointment counts and booking history as text,
// Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/panel"
	"github.com/desertthunder/tekx/internal/shared"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat accepts text, markdown (or md), csv and json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: format %q", shared.ErrInvalidArgument, s)
}

// RepairOrder renders ro in the given format.
func RepairOrder(ro *models.RepairOrder, format Format) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return RepairOrderToMarkdown(ro)
	case FormatCSV:
		return JobsToCSV(ro)
	case FormatJSON:
		return json.MarshalIndent(ro, "", "  ")
	default:
		return RepairOrderToText(ro)
	}
}

func mileage(ro *models.RepairOrder) string {
	if ro.Mileage == nil {
		return "unknown"
	}
	return shared.FormatMiles(int(*ro.Mileage))
}

// RepairOrderToText renders a plain text summary with performed and declined services.
func RepairOrderToText(ro *models.RepairOrder) ([]byte, error) {
	var buf bytes.Buffer
	cl := panel.Classify(ro.Jobs)

	fmt.Fprintf(&buf, "Repair Order: #%s (id %s)\n", ro.Number, ro.ID)
	fmt.Fprintf(&buf, "Customer: %s\n", ro.Customer.Name())
	fmt.Fprintf(&buf, "Vehicle: %s\n", ro.Vehicle.Description())
	fmt.Fprintf(&buf, "Mileage: %s\n", mileage(ro))

	fmt.Fprintf(&buf, "\nPerformed (%d):\n", len(cl.Performed))
	for i, item := range cl.Performed {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, item.Label())
	}
	fmt.Fprintf(&buf, "\nDeclined (%d):\n", len(cl.Declined))
	for i, item := range cl.Declined {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, item.Label())
	}

	return buf.Bytes(), nil
}

// RepairOrderToMarkdown renders a Markdown summary.
func RepairOrderToMarkdown(ro *models.RepairOrder) ([]byte, error) {
	var buf bytes.Buffer
	cl := panel.Classify(ro.Jobs)

	fmt.Fprintf(&buf, "# Repair Order #%s\n\n", ro.Number)
	fmt.Fprintf(&buf, "**Customer**: %s\n", ro.Customer.Name())
	fmt.Fprintf(&buf, "**Vehicle**: %s\n", ro.Vehicle.Description())
	fmt.Fprintf(&buf, "**Mileage**: %s\n\n", mileage(ro))

	buf.WriteString("## Performed\n\n")
	for _, item := range cl.Performed {
		fmt.Fprintf(&buf, "- %s\n", item.Label())
	}
	buf.WriteString("\n## Declined\n\n")
	for _, item := range cl.Declined {
		fmt.Fprintf(&buf, "- %s\n", item.Label())
	}

	return buf.Bytes(), nil
}

// JobsToCSV writes one row per job with columns: ID, Name, Classification, Status
func JobsToCSV(ro *models.RepairOrder) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Name", "Classification", "Status"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, job := range ro.Jobs {
		class := "other"
		switch {
		case panel.IsPerformed(job):
			class = "performed"
		case panel.IsDeclined(job):
			class = "declined"
		}
		id := job.ID.String()
		if id == "" {
			id = job.JobID.String()
		}
		if id == "" {
			id = fmt.Sprintf("job-%d", i)
		}
		status := strings.TrimSpace(job.Status)
		if status == "" {
			status = strings.TrimSpace(job.AuthorizationStatus)
		}
		if err := writer.Write([]string{id, job.Name, class, status}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// Counts renders per-day counts between start and end (inclusive), one line per day.
func Counts(counts models.AppointmentCounts, start, end time.Time, format Format) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(counts, "", "  ")
	}

	var buf bytes.Buffer
	if format == FormatCSV {
		buf.WriteString("Date,Count\n")
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		switch format {
		case FormatCSV:
			fmt.Fprintf(&buf, "%s,%d\n", key, counts[key])
		case FormatMarkdown:
			fmt.Fprintf(&buf, "- %s %s: %d booked\n", d.Format("Mon"), key, counts[key])
		default:
			fmt.Fprintf(&buf, "%s %s  %d booked\n", d.Format("Mon"), key, counts[key])
		}
	}
	return buf.Bytes(), nil
}

// Bookings renders booking history newest first.
func Bookings(entries []*models.BookingLogEntry, loc *time.Location, format Format) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}
	sorted := append([]*models.BookingLogEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })

	switch format {
	case FormatJSON:
		return json.MarshalIndent(sorted, "", "  ")
	case FormatCSV:
		var buf bytes.Buffer
		writer := csv.NewWriter(&buf)
		headers := []string{"AppointmentID", "RepairOrder", "Shop", "Customer", "Vehicle", "Title", "Type", "Start", "Mileage", "BookedAt"}
		if err := writer.Write(headers); err != nil {
			return nil, fmt.Errorf("failed to write CSV headers: %w", err)
		}
		for _, e := range sorted {
			var miles string
			if e.Mileage != nil {
				miles = strconv.Itoa(*e.Mileage)
			}
			record := []string{
				e.AppointmentID, e.ROID, e.ShopID, e.CustomerID, e.VehicleID, e.Title, string(e.AppointmentType),
				e.StartTime.In(loc).Format(time.RFC3339), miles, e.CreatedAt.In(loc).Format(time.RFC3339),
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, fmt.Errorf("CSV writer error: %w", err)
		}
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	if len(sorted) == 0 {
		buf.WriteString("No bookings yet\n")
		return buf.Bytes(), nil
	}
	for _, e := range sorted {
		start := e.StartTime.In(loc).Format("Mon Jan 2 2006 15:04")
		appt := "appointment " + e.AppointmentID
		if e.AppointmentID == "" {
			appt = "appointment id not returned"
		}
		if format == FormatMarkdown {
			fmt.Fprintf(&buf, "- **%s** on %s (RO %s, %s)\n", e.Title, start, e.ROID, appt)
			continue
		}
		fmt.Fprintf(&buf, "%s  %s  RO %s  %s\n", start, e.Title, e.ROID, appt)
	}
	return buf.Bytes(), nil
}

// Preview renders the purpose of visit with the appointment title and time.
func Preview(vm panel.ViewModel, loc *time.Location) []byte {
	var buf bytes.Buffer
	buf.WriteString(vm.Title + "\n")
	if vm.SelectedDate != nil {
		fmt.Fprintf(&buf, "%s\n", vm.SelectedDate.In(loc).Format("Monday, January 2, 2006"))
	}
	if vm.Mileage != nil {
		fmt.Fprintf(&buf, "Due at %s\n", shared.FormatMiles(*vm.Mileage))
	}
	buf.WriteString("\n" + vm.Preview + "\n")
	return buf.Bytes()
}

// WriteExport writes data to path, or to stdout when path is empty or "-".
func WriteExport(data []byte, path string) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
