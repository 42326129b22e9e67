// Package tasks runs long-running maintenance jobs over the directory with real-time progress reporting.
//
// # Link Checking
//
// [LinkChecker.Check] requests every page URL through a bounded worker pool:
//   - A shared [rate.Limiter] paces requests across all workers
//   - Each URL is tried with HEAD first and falls back to GET when the server rejects HEAD
//   - Any 2xx or 3xx final status counts as healthy; everything else, including transport errors, is broken
//
// Results keep the order of the input pages regardless of which worker finished first.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
