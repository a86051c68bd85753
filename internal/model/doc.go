// Package model defines the resolved schema graph produced by one compilation
// run: type references, field, message and packet descriptors.
//
// Every value is built once during extraction and treated as immutable
// afterwards. The renderer and the inspect encoders only read it.
package model
