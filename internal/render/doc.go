// Package render produces the output artifacts from a schema graph.
//
// Rendering is deterministic: the graph is ordered (packets by protocol id,
// messages and includes by name) before two text/template files are
// executed, one for the type definitions and one for the dispatch skeleton.
// Templates are parsed strictly: a missing key is an error.
//
// Artifacts are written all or nothing: both files are staged as
// temporaries in the output directory and only renamed into place once
// every staged write succeeded. If moving a later file into place fails,
// files already moved are reverted to their previous content.
package render
