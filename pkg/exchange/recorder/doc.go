// Package recorder selectively captures proxied exchanges.
//
// Recording sits outside the request path: the handler offers each
// completed flow, the filter decides whether the route is worth
// keeping, and a single worker goroutine drains a bounded channel into
// the configured store. When the channel is full the exchange is
// dropped with a warning; a slow disk never backpressures live
// traffic.
//
// Exclude patterns are matched case-insensitively and beat include
// patterns, so analytics and telemetry noise stays out of the log even
// when a broad include would catch it. An empty include list records
// everything the excludes let through.
package recorder
