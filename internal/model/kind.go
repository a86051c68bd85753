package model

//go:generate go tool stringer -type=Kind -trimprefix=Kind -output=kind_string.go

// Kind tags the variant of a TypeReference.
type Kind int

const (
	KindPrimitive  Kind = iota // universe scalar: int32, bool, string, ...
	KindNamed                  // opaque or user type, possibly parameterized
	KindCollection             // single-element container with a length prefix
	KindPair                   // two-argument tuple-like container
	KindMap                    // key/value container with a length prefix
)

// IsSized reports whether values of this kind are encoded behind a length prefix.
func (k Kind) IsSized() bool {
	return k == KindCollection || k == KindMap
}

// MarshalText encodes the kind by name so dumps stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
