// Package tasks runs batch jobs against the proxy with progress reporting.
//
// # Bulk Export
//
// [BulkExport] fetches many repair orders and renders each one to a file:
//   - Repair orders are fetched one at a time, paced by a rate limiter so the proxy (and the
//     Tekmetric rate limit behind it) is not flooded
//   - Rendering and writing happen on a bounded worker pool
//   - A failed fetch or write is recorded in the result and does not stop the batch
//   - An export_manifest.json summarizing every repair order is written last
//
// # Progress Reporting
//
// Operations accept an optional progress channel. Sends never block: when the channel is full
// the update is dropped, so a slow reader cannot stall an export.
package tasks
