package resolve

import "hash/fnv"

// TypeID hashes a qualified or source-syntax type name into the 32-bit
// identifier shared with the runtime library (FNV-1a).
func TypeID(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))

	return h.Sum32()
}
