// Package diagnostic provides the structured errors and warnings of the packet
// generator and renders them for the operator.
//
// Key capabilities:
//   - Stable error codes, matchable with errors.Is(err, diagnostic.CodeX)
//   - Declaration, field and position context on every diagnostic
//   - Aggregation of many diagnostics into one joined error
//   - Colored terminal output
package diagnostic
