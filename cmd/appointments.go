package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tekx/internal/formatter"
	"github.com/desertthunder/tekx/internal/panel"
	"github.com/desertthunder/tekx/internal/repositories"
	"github.com/desertthunder/tekx/internal/shared"
	"github.com/urfave/cli/v3"
)

// dateRange reads --shop, --start, --end and --days.
func (r *Runner) dateRange(cmd *cli.Command) (panel.CountsRequest, error) {
	shopID := cmd.String("shop")
	if shopID == "" {
		shopID = r.config.Tekmetric.ShopID
	}
	if shopID == "" {
		return panel.CountsRequest{}, fmt.Errorf("%w: --shop or tekmetric.shop_id is required", shared.ErrMissingArgument)
	}

	start, err := r.parseDate(cmd.String("start"))
	if err != nil {
		return panel.CountsRequest{}, err
	}

	var end time.Time
	if v := cmd.String("end"); v != "" {
		if end, err = r.parseDate(v); err != nil {
			return panel.CountsRequest{}, err
		}
	} else {
		days := int(cmd.Int("days"))
		if days < 1 {
			days = 1
		}
		end = start.AddDate(0, 0, days-1)
	}

	if end.Before(start) {
		return panel.CountsRequest{}, fmt.Errorf("%w: end date is before start date", shared.ErrInvalidArgument)
	}
	return panel.CountsRequest{ShopID: shopID, Start: start, End: end}, nil
}

// AppointmentCounts prints booked appointments per day.
func (r *Runner) AppointmentCounts(ctx context.Context, cmd *cli.Command) error {
	if err := r.reload(cmd); err != nil {
		return err
	}

	req, err := r.dateRange(cmd)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	r.logger.Info("fetching appointment counts", "shop", req.ShopID, "start", req.Start.Format(time.DateOnly), "end", req.End.Format(time.DateOnly))

	counts, err := r.proxy.AppointmentCounts(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to fetch appointment counts: %w", err)
	}

	data, err := formatter.Counts(counts, req.Start, req.End, format)
	if err != nil {
		return err
	}
	return r.export(data, "")
}

// AppointmentList prints appointments in the date range.
func (r *Runner) AppointmentList(ctx context.Context, cmd *cli.Command) error {
	if err := r.reload(cmd); err != nil {
		return err
	}

	req, err := r.dateRange(cmd)
	if err != nil {
		return err
	}

	appts, err := r.proxy.Appointments(ctx, req.ShopID, req.Start, req.End)
	if err != nil {
		return fmt.Errorf("failed to list appointments: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(appts, true)
	}

	loc := r.config.Panel.Location()
	r.writePlainHeader(fmt.Sprintf("Appointments %s to %s", req.Start.Format(time.DateOnly), req.End.Format(time.DateOnly)))
	if len(appts) == 0 {
		return r.writePlain("No appointments\n")
	}
	for _, a := range appts {
		r.writePlain("%s  %-40s  customer %s  vehicle %s\n",
			a.StartTime.In(loc).Format("Mon Jan 2 15:04"), a.Title, a.CustomerID, a.VehicleID)
	}
	return r.writePlain("\n%d appointment(s)\n", len(appts))
}

// AppointmentHistory prints appointments booked from the panel.
func (r *Runner) AppointmentHistory(ctx context.Context, cmd *cli.Command) error {
	if err := r.reload(cmd); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	filters := map[string]any{}
	if v := cmd.String("ro"); v != "" {
		filters["ro_id"] = v
	}
	if v := cmd.String("shop"); v != "" {
		filters["shop_id"] = v
	}

	entries, err := repositories.NewBookingLogRepository(db).List(filters, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to read booking history: %w", err)
	}

	data, err := formatter.Bookings(entries, r.config.Panel.Location(), format)
	if err != nil {
		return err
	}
	return r.export(data, cmd.String("output"))
}
