// Package models defines the data exchanged between the Tekmetric proxy, its clients and the panel.
//
// The package contains two categories of types:
//
// 1. Wire DTOs: the shapes the proxy serves and the panel consumes
//   - [RepairOrder] : repair order snapshot with [Customer], [Vehicle] and [Job] line items
//   - [AppointmentCounts] : booked appointment counts keyed by date key
//   - [BookingRequest] / [BookingResult] : advance appointment submission
//
// 2. Persistent records
//   - [BookingLogEntry] : appointments booked from the panel, stored locally
//
// Identifiers arrive as JSON numbers from Tekmetric and as strings from older proxy builds, so [ID]
// accepts both and always renders as a string.
package models
