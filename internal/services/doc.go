// Package services implements HTTP clients for the tekx proxy.
//
// # Proxy Client
//
// [ProxyService] speaks the proxy's wire contract and implements [panel.Backend]:
//   - GET /ro/{roId} : repair order snapshot with customer, vehicle and jobs
//   - GET /appointments/counts : booked appointments per day for a window
//   - POST /appointments : book an appointment
//
// Non-2xx answers and envelopes with success=false become a [*ProxyError] carrying the proxy's
// message verbatim so the panel can show it inline.
//
// # Raw Requests
//
// [APIService] performs untyped GET and POST requests for the `api` CLI commands and returns the
// status, headers and body as received.
//
// # Error Handling
//
// [ProxyError] unwraps to the shared sentinels:
//   - [shared.ErrInvalidInput] : 400
//   - [shared.ErrNotFound] : 404
//   - [shared.ErrServiceUnavailable] : 503, or the proxy could not be reached
//   - [shared.ErrAPIRequest] : everything else
package services
