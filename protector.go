package protector

import "strconv"

// Protector identifies a single invariant cell guarding an iterator fast path.
type Protector uint8

const (
	ArrayIteratorProtector Protector = iota
	MapIteratorProtector
	SetIteratorProtector
	StringIteratorProtector

	numProtectors
)

var protectorNames = [numProtectors]string{
	ArrayIteratorProtector:  "ArrayIteratorProtector",
	MapIteratorProtector:    "MapIteratorProtector",
	SetIteratorProtector:    "SetIteratorProtector",
	StringIteratorProtector: "StringIteratorProtector",
}

func (p Protector) String() string {
	if p < numProtectors {
		return protectorNames[p]
	}
	return "Protector(" + strconv.Itoa(int(p)) + ")"
}

// ParseProtector returns the protector with the given name.
func ParseProtector(name string) (Protector, bool) {
	for p, n := range protectorNames {
		if n == name {
			return Protector(p), true
		}
	}
	return 0, false
}

// AllProtectors returns every protector in declaration order.
func AllProtectors() []Protector {
	res := make([]Protector, numProtectors)
	for i := range res {
		res[i] = Protector(i)
	}
	return res
}

// IteratorKind tags an iterator object with the built-in factory that made it.
// The zero value means the object is not an iterator.
type IteratorKind uint8

const (
	iteratorKindNone IteratorKind = iota
	IteratorKindArray
	IteratorKindMap
	IteratorKindSet
	IteratorKindString
	// IteratorKindUnknown marks host-made iterators whose origin could not be
	// established. Tampering with one invalidates every iterator protector.
	IteratorKindUnknown
)

// wellKnownIteratorKinds lists the kinds that own a protector.
var wellKnownIteratorKinds = [...]IteratorKind{
	IteratorKindArray,
	IteratorKindMap,
	IteratorKindSet,
	IteratorKindString,
}

func (k IteratorKind) String() string {
	switch k {
	case iteratorKindNone:
		return "none"
	case IteratorKindArray:
		return "Array"
	case IteratorKindMap:
		return "Map"
	case IteratorKindSet:
		return "Set"
	case IteratorKindString:
		return "String"
	case IteratorKindUnknown:
		return "unknown"
	}
	return "IteratorKind(" + strconv.Itoa(int(k)) + ")"
}

// ParseIteratorKind accepts the names returned by IteratorKind.String. Any
// other name yields IteratorKindUnknown.
func ParseIteratorKind(name string) IteratorKind {
	for _, k := range wellKnownIteratorKinds {
		if k.String() == name {
			return k
		}
	}
	return IteratorKindUnknown
}

// Protector returns the protector owned by the kind.
func (k IteratorKind) Protector() (Protector, bool) {
	switch k {
	case IteratorKindArray:
		return ArrayIteratorProtector, true
	case IteratorKindMap:
		return MapIteratorProtector, true
	case IteratorKindSet:
		return SetIteratorProtector, true
	case IteratorKindString:
		return StringIteratorProtector, true
	}
	return 0, false
}

func (k IteratorKind) className() string {
	switch k {
	case IteratorKindArray:
		return classArrayIterator
	case IteratorKindMap:
		return classMapIterator
	case IteratorKindSet:
		return classSetIterator
	case IteratorKindString:
		return classStringIterator
	}
	return classIterator
}

// kindSet is a bit set of iterator kinds.
type kindSet uint8

func (s kindSet) has(k IteratorKind) bool {
	return s&(1<<k) != 0
}

func (s *kindSet) add(k IteratorKind) {
	*s |= 1 << k
}

func allKinds() (s kindSet) {
	for _, k := range wellKnownIteratorKinds {
		s.add(k)
	}
	return
}
