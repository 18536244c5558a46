// Package storage persists recorded exchanges.
//
// The canonical backend is the append-only JSONL file consumed by the
// mock table compiler: one complete JSON document per line, written
// with a single write call so concurrent appends never interleave.
// A SQLite index can run alongside it for fast per-route summaries,
// and an in-memory store backs tests and ephemeral sessions.
//
// Stores are fanned out with Multi when more than one backend should
// see each exchange.
package storage
