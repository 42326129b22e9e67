// Package server provides HTTP routing, middleware and server lifecycle for the rango web application.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally and registers "METHOD /path" patterns,
// so wildcards and method matching come from the mux.
//
// # Middleware
//
//   - [Logging] : one structured log line per request
//   - [Recover] : converts panics into 500 responses
//   - [Metrics] : Prometheus request counters and latency histograms, served by [Metrics.Handler]
//   - [Throttle] : per-client token buckets (golang.org/x/time/rate), used on login
//
// # Lifecycle
//
// [Serve] runs an [http.Server] until its context is cancelled and then shuts down gracefully.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
