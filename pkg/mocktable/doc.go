// Package mocktable compiles recorded exchange logs into a mock
// server route table.
//
// The compiler is offline: it reads a JSONL exchange log, collapses
// recordings of the same logical route into one definition, and emits
// a Mockoon-compatible environment document ready for import. Paths
// are templated first (numeric and UUID-like segments become an :id
// placeholder), then recordings are grouped by method and template, so
// GET /users/42 and GET /users/17 compile to a single GET /users/:id
// route. The first-seen recording of each group is the canonical
// response.
//
// Output is deterministic for identical input up to generated
// identifiers: routes keep first-seen order and header lists are
// sorted by name.
package mocktable
