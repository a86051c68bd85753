// Package extract builds the schema graph from a syntax forest.
//
// Extraction runs per file in parallel: every marked declaration is
// flattened (own fields first, then inherited ones), its fields resolved,
// and the declaration classified as a packet (marker with a protocol id) or
// a reusable message (bare marker). Per-file results are merged once all
// workers finish, validated as a whole, and the include set is derived from
// the merged graph. Any failure fails the whole run.
package extract
