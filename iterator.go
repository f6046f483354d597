package protector

import (
	"strings"
	"unicode/utf8"
)

// SymIterator is the property key under which @@iterator is stored. The object
// model keys properties by string, so well-known symbols use the @@name form.
const SymIterator = "@@iterator"

// IterationKind selects what a collection iterator yields.
type IterationKind uint8

const (
	IterationKindValue IterationKind = iota
	IterationKindKey
	IterationKindKeyValue
)

type iteratorSource interface {
	next() (value any, done bool)
	close()
}

type sliceSource struct {
	values  []any
	nextIdx int
	kind    IterationKind
}

func (s *sliceSource) next() (any, bool) {
	if s.values == nil || s.nextIdx >= len(s.values) {
		s.close()
		return nil, true
	}
	idx := s.nextIdx
	s.nextIdx++
	switch s.kind {
	case IterationKindKey:
		return idx, false
	case IterationKindKeyValue:
		return []any{idx, s.values[idx]}, false
	}
	return s.values[idx], false
}

func (s *sliceSource) close() {
	s.values = nil
}

type mapSource struct {
	iter *orderedMapIter
	kind IterationKind
	// set iterators yield the key where a map iterator yields the value
	set bool
}

func (s *mapSource) next() (any, bool) {
	entry := s.iter.next()
	if entry == nil {
		return nil, true
	}
	value := entry.value
	if s.set {
		value = entry.key
	}
	switch s.kind {
	case IterationKindKey:
		return entry.key, false
	case IterationKindKeyValue:
		return []any{entry.key, value}, false
	}
	return value, false
}

func (s *mapSource) close() {
	s.iter.close()
}

type stringSource struct {
	s   string
	pos int
}

func (s *stringSource) next() (any, bool) {
	if s.pos >= len(s.s) {
		s.close()
		return nil, true
	}
	_, size := utf8.DecodeRuneInString(s.s[s.pos:])
	cp := s.s[s.pos : s.pos+size]
	s.pos += size
	return cp, false
}

func (s *stringSource) close() {
	s.pos = len(s.s)
}

// Intrinsics holds the well-known prototype objects of a Runtime.
//
// Every iterator kind prototype delegates to IteratorPrototype, which
// delegates to ObjectPrototype.
type Intrinsics struct {
	ObjectPrototype   *Object
	IteratorPrototype *Object

	ArrayIteratorPrototype  *Object
	MapIteratorPrototype    *Object
	SetIteratorPrototype    *Object
	StringIteratorPrototype *Object
}

// KindPrototype returns the intrinsic prototype for iterators of kind k, or nil
// if the kind has none.
func (i *Intrinsics) KindPrototype(k IteratorKind) *Object {
	switch k {
	case IteratorKindArray:
		return i.ArrayIteratorPrototype
	case IteratorKindMap:
		return i.MapIteratorPrototype
	case IteratorKindSet:
		return i.SetIteratorPrototype
	case IteratorKindString:
		return i.StringIteratorPrototype
	}
	return nil
}

// Lookup finds an intrinsic by name. Both "%ArrayIteratorPrototype%" and
// "ArrayIteratorPrototype" are accepted.
func (i *Intrinsics) Lookup(name string) (*Object, bool) {
	name = strings.TrimSuffix(strings.TrimPrefix(name, "%"), "%")
	var o *Object
	switch name {
	case "ObjectPrototype":
		o = i.ObjectPrototype
	case "IteratorPrototype":
		o = i.IteratorPrototype
	case "ArrayIteratorPrototype":
		o = i.ArrayIteratorPrototype
	case "MapIteratorPrototype":
		o = i.MapIteratorPrototype
	case "SetIteratorPrototype":
		o = i.SetIteratorPrototype
	case "StringIteratorPrototype":
		o = i.StringIteratorPrototype
	}
	return o, o != nil
}

func (r *Runtime) newBaseObject(proto *Object, class string) *Object {
	o := &Object{
		runtime:    r,
		class:      class,
		prototype:  proto,
		extensible: true,
	}
	o.init()
	return o
}

func (r *Runtime) initIterators() {
	in := &r.intrinsics
	in.ObjectPrototype = r.newBaseObject(nil, classObject)
	in.IteratorPrototype = r.newBaseObject(in.ObjectPrototype, classObject)
	in.IteratorPrototype._putProp(SymIterator, NativeFunction(func(call FunctionCall) (any, error) {
		return call.This, nil
	}), true, false, true)

	for _, k := range wellKnownIteratorKinds {
		proto := r.newBaseObject(in.IteratorPrototype, classObject)
		proto._putProp("next", r.iteratorProto_next(k), true, false, true)
		switch k {
		case IteratorKindArray:
			in.ArrayIteratorPrototype = proto
		case IteratorKindMap:
			in.MapIteratorPrototype = proto
		case IteratorKindSet:
			in.SetIteratorPrototype = proto
		case IteratorKindString:
			in.StringIteratorPrototype = proto
		}
	}
}

func (r *Runtime) iteratorProto_next(kind IteratorKind) NativeFunction {
	return func(call FunctionCall) (any, error) {
		o := call.This
		if o == nil || o.iterKind != kind || o.iter == nil {
			return nil, typeError("next method called on incompatible receiver %v", call.This)
		}
		value, done := o.iter.next()
		return r.createIterResultObject(value, done), nil
	}
}

func (r *Runtime) createIterResultObject(value any, done bool) *Object {
	o := r.NewObject()
	o._putProp("value", value, true, true, true)
	o._putProp("done", done, true, true, true)
	return o
}

func (r *Runtime) createIterator(kind IteratorKind, src iteratorSource) *Object {
	proto := r.intrinsics.KindPrototype(kind)
	if proto == nil {
		proto = r.intrinsics.IteratorPrototype
	}
	o := r.newBaseObject(proto, kind.className())
	o.iterKind = kind
	o.iter = src
	return o
}

// NewArrayIterator returns an Array Iterator over values, as produced by
// Array.prototype.values, keys and entries.
func (r *Runtime) NewArrayIterator(values []any, kind IterationKind) *Object {
	return r.createIterator(IteratorKindArray, &sliceSource{values: values, kind: kind})
}

// NewMapIterator returns a Map Iterator over m.
func (r *Runtime) NewMapIterator(m *OrderedMap, kind IterationKind) *Object {
	return r.createIterator(IteratorKindMap, &mapSource{iter: m.newIter(), kind: kind})
}

// NewSetIterator returns a Set Iterator over the keys of m.
func (r *Runtime) NewSetIterator(m *OrderedMap, kind IterationKind) *Object {
	if kind == IterationKindKey {
		kind = IterationKindValue
	}
	return r.createIterator(IteratorKindSet, &mapSource{iter: m.newIter(), kind: kind, set: true})
}

// NewStringIterator returns a String Iterator yielding the code points of s.
func (r *Runtime) NewStringIterator(s string) *Object {
	return r.createIterator(IteratorKindString, &stringSource{s: s})
}

// NewHostIterator returns an iterator tagged with kind that yields items. It is
// meant for embedders that build iterators on behalf of built-in factories.
// Passing IteratorKindUnknown is allowed; such an iterator has no fast path
// and any tampering with it invalidates every iterator protector.
func (r *Runtime) NewHostIterator(kind IteratorKind, items []any) *Object {
	if kind == iteratorKindNone {
		kind = IteratorKindUnknown
	}
	o := r.createIterator(kind, &sliceSource{values: items})
	if r.intrinsics.KindPrototype(kind) == nil {
		o._putProp("next", r.iteratorProto_next(kind), true, false, true)
	}
	return o
}
