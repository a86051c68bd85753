package resolve

import (
	"strconv"
	"strings"

	"packet-generator/internal/diagnostic"
	"packet-generator/internal/syntax"
)

// DefaultSizeWidth is the length-prefix width of an unannotated collection.
const DefaultSizeWidth = 2

// sizeTypes maps the supported length-prefix widths to target integer types.
var sizeTypes = map[int]string{
	1: "uint8_t",
	2: "uint16_t",
	4: "uint32_t",
	8: "uint64_t",
}

// SizeType returns the target integer type for a supported width.
func SizeType(width int) (string, bool) {
	name, ok := sizeTypes[width]
	return name, ok
}

// sizeWidth decodes a field's size marker. Absent markers select the default width.
func sizeWidth(m *syntax.SizeMarker) (uint8, string, error) {
	width := DefaultSizeWidth

	if m != nil {
		v, err := strconv.Atoi(strings.TrimSpace(m.Value))
		if err != nil {
			return 0, "", diagnostic.Errorf(diagnostic.CodeUnsupportedSizeWidth,
				"length-prefix width %q is not a number (supported: 1, 2, 4, 8)", m.Value)
		}

		width = v
	}

	name, ok := SizeType(width)
	if !ok {
		return 0, "", diagnostic.Errorf(diagnostic.CodeUnsupportedSizeWidth,
			"unsupported length-prefix width %d (supported: 1, 2, 4, 8)", width)
	}

	// Every key of sizeTypes fits a byte.
	return uint8(width), name, nil
}
