// Package frontend loads schema sources and turns them into the syntax
// contract consumed by the extractor.
//
// Two directory trees are loaded: the schema directory holding marked
// declarations, and the reference directory holding the definitions library
// (capability interfaces and generic containers). Every directory with Go
// files is one package whose import path is its path relative to the tree
// root. Files are parsed in parallel with go/parser and type-checked with
// go/types through an importer that serves both trees from memory, so no
// module layout or go toolchain is required around the sources.
//
// Key types:
//   - Loader: discovery, parsing and type checking
//   - Program: the resulting syntax.Forest and syntax.Symbols
package frontend
