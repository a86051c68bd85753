// Package resolve turns schema type expressions into model.TypeReference
// values.
//
// Resolution is a pure function of the expression, the field's size marker,
// the static name tables and the Symbols service. It keeps no state between
// calls, so one Resolver may be shared by concurrent extraction workers and
// identical schemas always yield identical references, type ids included.
package resolve
