// Package source loads routing rule documents from external locations
// and feeds hot reloads into the policy engine.
//
// # Sources
//
// Two source kinds are supported:
//
//   - FileSource reads a YAML rules file from disk and watches it with
//     fsnotify, debouncing rapid write bursts into a single reload.
//   - GitSource clones a rules repository, reads the rules file from
//     the checkout, and polls the remote on an interval; a moved HEAD
//     triggers a reload.
//
// Both implement Source. A reload that fails to parse is logged and
// dropped; the engine keeps its previous rule set.
package source
