package main

import (
	"context"
	"database/sql"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tekx/internal/formatter"
	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/panel"
	"github.com/desertthunder/tekx/internal/repositories"
	"github.com/desertthunder/tekx/internal/shared"
	"github.com/desertthunder/tekx/internal/ui"
	"github.com/urfave/cli/v3"
)

// newController builds a panel controller over storage. Bookings are recorded in the booking log
// when db is non-nil.
func (r *Runner) newController(storage panel.Storage, db *sql.DB) *panel.Controller {
	opts := panel.Options{
		Storage:       storage,
		Backend:       r.proxy,
		Logger:        shared.WithLogger(r.logger, "component", "panel"),
		Now:           r.now,
		Location:      r.config.Panel.Location(),
		StartHour:     r.config.Panel.StartHour,
		DefaultMonths: r.config.Panel.MonthInterval,
		DefaultMiles:  r.config.Panel.MileInterval,
	}

	if db != nil {
		bookings := repositories.NewBookingLogRepository(db)
		opts.OnBooked = func(roID string, req models.BookingRequest, result *models.BookingResult) {
			if err := bookings.Record(roID, req, result); err != nil {
				r.logger.Warn("failed to record booking", "ro", roID, "error", err)
			}
		}
	}
	return panel.NewController(opts)
}

// panelURL resolves the page to open from --url, then --ro, then a session left open.
func (r *Runner) panelURL(url, ro, shop string, storage panel.Storage) (string, error) {
	if url != "" {
		return url, nil
	}
	if ro != "" {
		return r.pageURL(ro, shop)
	}

	if storage != nil {
		reader := panel.NewController(panel.Options{Storage: storage})
		if data, ok, err := storage.Get(panel.StateKey); err == nil && ok && reader.ShouldAutoOpen() {
			st := panel.Hydrate(data, panel.DefaultState(0, 0))
			if st.SourceROID != "" {
				if shop == "" && st.RO != nil {
					shop = st.RO.ShopID.String()
				}
				r.logger.Info("resuming panel session", "ro", st.SourceROID)
				return r.pageURL(st.SourceROID, shop)
			}
		}
	}

	return "", fmt.Errorf("%w: --url or --ro is required", shared.ErrMissingArgument)
}

// Panel launches the interactive advance appointment panel.
func (r *Runner) Panel(ctx context.Context, cmd *cli.Command) error {
	if err := r.reload(cmd); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	storage := repositories.NewStorageRepository(db)
	pageURL, err := r.panelURL(cmd.String("url"), cmd.String("ro"), cmd.String("shop"), storage)
	if err != nil {
		return err
	}

	// Logs go to a file so they never interleave with the rendered screen.
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.config.Log.Level)
	r.SetLogger(fileLogger)

	ctrl := r.newController(storage, db)
	model := ui.NewModel(ctx, ctrl, r.proxy, pageURL)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running panel: %w", err)
	}
	return model.Err()
}

// PanelPreview loads a repair order and prints the recommended appointment and purpose of visit.
//
// The saved session is left untouched.
func (r *Runner) PanelPreview(ctx context.Context, cmd *cli.Command) error {
	if err := r.reload(cmd); err != nil {
		return err
	}

	pageURL, err := r.panelURL(cmd.String("url"), cmd.String("ro"), cmd.String("shop"), nil)
	if err != nil {
		return err
	}

	ctrl := r.newController(panel.NewMemoryStorage(), nil)
	if err := ctrl.Open(ctx, pageURL); err != nil {
		return fmt.Errorf("failed to open repair order: %w", err)
	}
	ctrl.FetchCounts(ctx)
	if err := ctrl.Dispatch(ctx, panel.Continue{}); err != nil {
		return err
	}

	vm := ctrl.View()
	loc := ctrl.Location()

	if ro := vm.RepairOrder; ro != nil {
		r.writePlainHeader(fmt.Sprintf("RO #%s", ro.Number))
	}
	if _, err := r.output.Write(formatter.Preview(vm, loc)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if len(vm.Dates) == 0 {
		return nil
	}
	counts := make(models.AppointmentCounts, len(vm.Dates))
	for _, d := range vm.Dates {
		counts[d.Key] = d.Count
	}
	data, err := formatter.Counts(counts, vm.Dates[0].Date, vm.Dates[len(vm.Dates)-1].Date, formatter.FormatText)
	if err != nil {
		return err
	}
	r.writePlainln("Booked that week")
	return r.export(data, "")
}

// PanelClose discards the saved panel session.
func (r *Runner) PanelClose(ctx context.Context, cmd *cli.Command) error {
	if err := r.reload(cmd); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	r.newController(repositories.NewStorageRepository(db), nil).Close()
	r.logger.Info("panel session discarded")
	return r.writePlain("✓ Panel session discarded\n")
}
