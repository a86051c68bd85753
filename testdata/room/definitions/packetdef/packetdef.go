// Package packetdef is the definitions library imported by packet schemas.
package packetdef

// Collection is implemented by every length-prefixed container.
type Collection interface {
	Count() int
}

// Map is implemented by key/value containers.
type Map interface {
	Collection
	Keyed()
}

type List[T any] struct {
	items []T
}

func (l *List[T]) Count() int { return len(l.items) }

type LinkedList[T any] struct {
	items []T
}

func (l *LinkedList[T]) Count() int { return len(l.items) }

type Dictionary[K comparable, V any] struct {
	items map[K]V
}

func (d *Dictionary[K, V]) Count() int { return len(d.items) }
func (d *Dictionary[K, V]) Keyed()     {}

type SortedDictionary[K comparable, V any] struct {
	items map[K]V
}

func (d *SortedDictionary[K, V]) Count() int { return len(d.items) }
func (d *SortedDictionary[K, V]) Keyed()     {}

type Tuple[A, B any] struct {
	First  A
	Second B
}

// FixedSizeString is a string with a fixed wire length, 15 by default.
type FixedSizeString struct {
	Size  int
	Value string
}
