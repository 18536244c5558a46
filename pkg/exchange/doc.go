// Package exchange defines the recorded request/response pair that the
// interception engine persists for offline processing.
//
// # Exchange Records
//
// Each exchange captures one flow observed by the engine:
//   - Request metadata (method, url, path, query, headers)
//   - Request and response bodies as tagged JSON values, with raw text
//     retained when a structured decode fails
//   - Response status and headers
//   - The recording timestamp
//
// Exchanges are created once at response time and are append-only: the
// recorded log is never mutated, only appended to (and pruned as whole
// records by retention).
//
// # Recording Flow
//
// Recording is asynchronous so it can never block or fail the client
// response path:
//
//	Flow complete → path filter → build Exchange
//	     ↓
//	async channel (recorder worker)
//	     ↓
//	Store.Append (JSONL log, optional SQLite index)
//
// The recorded log is consumed offline by the mock table compiler
// (pkg/mocktable).
package exchange
