package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tekx/internal/formatter"
	"github.com/desertthunder/tekx/internal/shared"
	"github.com/desertthunder/tekx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ROGet fetches a repair order through the proxy and renders it.
func (r *Runner) ROGet(ctx context.Context, cmd *cli.Command) error {
	if err := r.reload(cmd); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: repair order id", shared.ErrMissingArgument)
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	r.logger.Info("fetching repair order", "id", id)

	ro, err := r.proxy.RepairOrder(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch repair order %s: %w", id, err)
	}

	data, err := formatter.RepairOrder(ro, format)
	if err != nil {
		return fmt.Errorf("failed to render repair order: %w", err)
	}

	output := cmd.String("output")
	if err := r.export(data, output); err != nil {
		return err
	}
	if output != "" && output != "-" {
		r.logger.Info("repair order exported", "file", output, "format", format)
	}
	return nil
}

// ROOpen opens the repair order's estimate page in the default browser.
func (r *Runner) ROOpen(ctx context.Context, cmd *cli.Command) error {
	if err := r.reload(cmd); err != nil {
		return err
	}

	url, err := r.pageURL(cmd.StringArg("id"), cmd.String("shop"))
	if err != nil {
		return err
	}

	if cmd.Bool("print") {
		return r.writePlain("%s\n", url)
	}

	r.logger.Info("opening repair order", "url", url)
	if err := shared.OpenBrowser(url); err != nil {
		r.logger.Warn("could not open browser", "error", err)
		return r.writePlain("Open this URL in your browser:\n%s\n", url)
	}
	return nil
}

// ROExport fetches each repair order named on the command line and writes one file per order
// plus a manifest.
func (r *Runner) ROExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.reload(cmd); err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one repair order id", shared.ErrMissingArgument)
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	r.logger.Info("starting bulk export", "count", len(ids), "format", format)
	r.writePlain("Exporting %d repair order(s)...\n\n", len(ids))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchRepairOrder:
				r.logger.Debug(update.Message)
			case tasks.ExportRepairOrder:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteManifest:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := tasks.BulkExport(ctx, progressCh, r.proxy, ids, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n═══════════════════════════════════════\n")
	r.writePlain("Export Complete!\n")
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Exported: %d/%d\n", result.SuccessfulExports, result.TotalRepairOrders)

	if result.FailedExports > 0 {
		r.writePlain("\nFailed to export %d repair order(s):\n", result.FailedExports)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %v\n", res.ROID, res.Error)
			}
		}
	}
	return nil
}

// pageURL builds the Tekmetric estimate page for roID in shopID, or the configured shop.
func (r *Runner) pageURL(roID, shopID string) (string, error) {
	if roID == "" {
		return "", fmt.Errorf("%w: repair order id", shared.ErrMissingArgument)
	}
	if shopID == "" {
		shopID = r.config.Tekmetric.ShopID
	}
	if shopID == "" {
		return "", fmt.Errorf("%w: --shop or tekmetric.shop_id is required", shared.ErrMissingArgument)
	}
	return shared.RepairOrderURL(r.config.Tekmetric.BaseURL, shopID, roID), nil
}
