// Package server provides HTTP routing, middleware, and the Tekmetric proxy handlers.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// The [BasicRouter] implementation wraps a chi mux, so route patterns carry path parameters and
// unknown routes or methods answer with the same JSON error envelope as the handlers.
//
// # Middleware
//
// [New] installs, in order:
//   - [RequestIDMiddleware] : reuses or assigns X-Request-Id
//   - [RecoverMiddleware] : converts panics into 500 responses
//   - [LoggingMiddleware] : one structured line per request
//   - [CORSMiddleware] : allowlist of shop UI origins, answers preflight requests
//   - [MetricsMiddleware] : request counts and latency labelled by route pattern
//
// # Proxy Handler
//
// [ProxyHandler] serves the contract consumed by the panel:
//
//	GET  /health
//	GET  /ro/{roId}
//	GET  /customers/{id}
//	GET  /vehicles/{id}
//	GET  /jobs?repairOrderId=
//	GET  /appointments/counts?shopId&startDate&endDate
//	GET  /appointments?shopId&startDate&endDate
//	POST /appointments
//
// Every response carries a "success" flag; failures add an "error" message. Upstream errors are
// mapped by [StatusFor]: bad input 400, not found 404, missing configuration 503, anything else
// from Tekmetric 502.
package server
