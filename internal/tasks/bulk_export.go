package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/tekx/internal/formatter"
	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/shared"
	"golang.org/x/time/rate"
)

// RepairOrderFetcher loads a single repair order. [services.ProxyService] satisfies it.
type RepairOrderFetcher interface {
	RepairOrder(ctx context.Context, roID string) (*models.RepairOrder, error)
}

// BulkExportOpts contains configuration for bulk repair order exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format: text, markdown, csv, json
	OutputDir  string           // Base output directory (default: ro_export_{epoch})
	NumWorkers int              // Concurrent writers (default: 5, max: 10)
	RateLimit  float64          // Fetches per second (default: 5)
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalRepairOrders int            `json:"total_repair_orders"`
	SuccessfulExports int            `json:"successful_exports"`
	FailedExports     int            `json:"failed_exports"`
	OutputDirectory   string         `json:"output_directory"`
	ManifestPath      string         `json:"-"`
	Format            string         `json:"format"`
	ExportedAt        time.Time      `json:"exported_at"`
	Results           []ExportResult `json:"results"`
}

// ExportResult is the outcome for one repair order.
type ExportResult struct {
	ROID     string   `json:"ro_id"`
	RONumber string   `json:"ro_number,omitempty"`
	Success  bool     `json:"success"`
	Files    []string `json:"files,omitempty"`
	Error    error    `json:"-"`
	Message  string   `json:"error,omitempty"`
}

// Label is the repair order number when known, else its ID.
func (r ExportResult) Label() string {
	if r.RONumber != "" {
		return r.RONumber
	}
	return r.ROID
}

type exportJob struct {
	roID string
	ro   *models.RepairOrder
}

// BulkExport fetches each repair order in ids and writes it to OutputDir, one file per order.
//
// Fetches are serialized through a rate limiter; rendering and writing run on a worker pool.
// Failures are collected per repair order and a manifest is written once all workers finish.
func BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	src RepairOrderFetcher,
	ids []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: repair order source not initialized", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one repair order id", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("ro_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalRepairOrders: len(ids),
		OutputDirectory:   opts.OutputDir,
		Format:            string(opts.Format),
		ExportedAt:        time.Now().UTC(),
		Results:           make([]ExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(ids))
	results := make(chan ExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go exportWorker(ctx, &wg, jobs, results, opts)
	}

	// The fetcher sends failures straight to results, so wg alone cannot tell
	// when results is safe to close.
	var fetcher sync.WaitGroup
	fetcher.Add(1)
	go func() {
		defer fetcher.Done()
		defer close(jobs)
		for i, id := range ids {
			if ctx.Err() != nil {
				return
			}
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			sendProgress(prog, fetchingUpdate(i+1, len(ids), id))
			ro, err := src.RepairOrder(ctx, id)
			if err != nil {
				results <- ExportResult{
					ROID:  id,
					Error: fmt.Errorf("failed to fetch repair order: %w", err),
				}
				continue
			}
			jobs <- exportJob{roID: id, ro: ro}
		}
	}()

	go func() {
		fetcher.Wait()
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.Message = res.Error.Error()
		}
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(ids), res))
		} else {
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, len(ids), res))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export cancelled: %w", err)
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	sendProgress(prog, manifestUpdate(manifestPath))
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- ExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- exportOne(job, opts)
	}
}

func exportOne(j exportJob, opts BulkExportOpts) ExportResult {
	result := ExportResult{ROID: j.roID, RONumber: j.ro.Number}

	data, err := formatter.RepairOrder(j.ro, opts.Format)
	if err != nil {
		result.Error = fmt.Errorf("%s render failed: %w", opts.Format, err)
		return result
	}

	path := filepath.Join(opts.OutputDir, exportFilename(j.roID, opts.Format))
	if err := formatter.WriteExport(data, path); err != nil {
		result.Error = err
		return result
	}
	result.Files = []string{path}
	result.Success = true
	return result
}

// exportFilename is ro_{id} with the format's extension.
func exportFilename(roID string, format formatter.Format) string {
	ext := "txt"
	switch format {
	case formatter.FormatMarkdown:
		ext = "md"
	case formatter.FormatCSV:
		ext = "csv"
	case formatter.FormatJSON:
		ext = "json"
	}
	return fmt.Sprintf("ro_%s.%s", roID, ext)
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return formatter.WriteExport(append(data, '\n'), path)
}
