// Package repositories implements SQLite persistence for the panel.
//
// Key Implementations:
//   - [StorageRepository] : key/value rows backing [panel.Storage], so a panel session survives restarts
//   - [BookingLogRepository] : history of appointments booked from the panel
//
// Both tables are created by the embedded migrations in [shared.RunMigrations].
package repositories
