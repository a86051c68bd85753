package common

import "strings"

// UnknownStr is the String() result for enum values outside their declared range.
const UnknownStr = "unknown"

// Namespace converts a package import path into the dotted namespace used in
// qualified type names. Returns empty string if pkgPath is empty.
//
// Examples:
//   - "packetdef" -> "packetdef"
//   - "game/packets" -> "game.packets"
func Namespace(pkgPath string) string {
	if pkgPath == "" {
		return ""
	}

	return strings.ReplaceAll(pkgPath, "/", ".")
}

// Qualify joins a namespace and a simple type name. Universe types have no
// namespace and are returned unchanged.
func Qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}

	return namespace + "." + name
}
