// Package policy implements the routing decision engine: a pure function
// from request attributes to a routing Decision.
//
// # Precedence
//
// Rules are evaluated in a fixed precedence order, not source order:
//
//  1. Host normalization — the emulator loopback alias (10.0.2.2) is
//     rewritten to the local-machine alias, independent of every other
//     rule.
//  2. Explicit overrides — X-Force-Mock, X-Force-Real, X-Mock-Mode, the
//     mock query flag, and X-Test-Scenario presence beat pattern rules.
//     When force-mock and force-real are both present, force-mock wins
//     unless the engine is configured otherwise.
//  3. Always-real deny patterns route to the real backend.
//  4. Mock-allow patterns and mock domains route to the mock backend.
//  5. Everything else passes through to the real backend unchanged.
//
// Decide performs no I/O and no mutation; applying the Decision to a
// request is the interceptor's job (pkg/intercept). Exactly one Decision
// is computed per request, deterministic given the rule set and request
// attributes.
//
// Malformed patterns fail when the engine (or a replacement rule set) is
// built, never per request. The active rule set can be swapped
// atomically with Reload, which is how the rule sources in
// pkg/policy/source feed hot reloads.
package policy
