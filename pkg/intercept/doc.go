// Package intercept applies routing decisions to live HTTP flows.
//
// The package owns the mutation half of the proxy: pkg/policy decides,
// pkg/intercept acts. An Interceptor rewrites the outgoing request per
// the Decision (mock retarget, loopback host rewrite, debug header
// injection, query flag stripping) and forwards it upstream. Two
// post-response stages then run in order:
//
//   - Supervisor retries server-error responses from the real backend
//     against the mock backend and swaps in the mock response when one
//     exists (a mock 404 preserves the original error).
//   - Enhancer blends supplemental mock data into successful real
//     responses when the client asked for it.
//
// All stages operate on a Flow, the package's mutable per-request
// record. A Flow is confined to the goroutine serving its request;
// nothing here shares state between flows.
package intercept
