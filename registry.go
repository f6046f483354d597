package protector

import (
	"errors"
	"strconv"
	"sync/atomic"
)

var ErrUnknownProtector = errors.New("unknown protector")

// Op names the mutation that caused an invalidation.
type Op uint8

const (
	OpDefineOwnProperty Op = iota
	OpSet
	OpDelete
	OpSetPrototype
	OpExplicit
	OpSnapshot
)

func (op Op) String() string {
	switch op {
	case OpDefineOwnProperty:
		return "define"
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	case OpSetPrototype:
		return "setPrototypeOf"
	case OpExplicit:
		return "explicit"
	case OpSnapshot:
		return "snapshot"
	}
	return "Op(" + strconv.Itoa(int(op)) + ")"
}

// Cause describes the mutation behind an invalidation.
type Cause struct {
	Op Op
	// Key is the property name for property operations.
	Key string
	// Class is the class name of the mutated object, if there was one.
	Class string
}

func (c Cause) String() string {
	s := c.Op.String()
	if c.Key != "" {
		s += " " + strconv.Quote(c.Key)
	}
	if c.Class != "" {
		s += " on " + c.Class
	}
	return s
}

// Invalidation is delivered to listeners when a protector flips to invalid.
type Invalidation struct {
	Protector Protector
	Cause     Cause
}

/*
Registry holds the protector cells of a single Runtime.

A cell starts valid and can only be invalidated. Reads are safe from any
goroutine and observe an invalidation as soon as Invalidate has returned.
The zero value has every protector valid and no listeners.
*/
type Registry struct {
	// a set bit means invalid, so the zero value is fully valid
	invalid [numProtectors]atomic.Bool

	listeners []func(Invalidation)
}

// Get reports whether p is still valid.
func (r *Registry) Get(p Protector) bool {
	if p >= numProtectors {
		return false
	}
	return !r.invalid[p].Load()
}

// GetByName is Get keyed by the protector name.
func (r *Registry) GetByName(name string) (bool, error) {
	p, ok := ParseProtector(name)
	if !ok {
		return false, ErrUnknownProtector
	}
	return r.Get(p), nil
}

// Invalidate marks p as invalid. Invalidating an already invalid protector is a
// no-op.
func (r *Registry) Invalidate(p Protector) {
	r.invalidate(p, Cause{Op: OpExplicit})
}

// invalidate flips p and notifies listeners, returning true if this call did the flip.
func (r *Registry) invalidate(p Protector, cause Cause) bool {
	if p >= numProtectors {
		return false
	}
	if !r.invalid[p].CompareAndSwap(false, true) {
		return false
	}
	inv := Invalidation{Protector: p, Cause: cause}
	for _, l := range r.listeners {
		l(inv)
	}
	return true
}

func (r *Registry) resetAll() {
	for i := range r.invalid {
		r.invalid[i].Store(false)
	}
}

// States returns the current value of every protector keyed by name.
func (r *Registry) States() map[string]bool {
	res := make(map[string]bool, numProtectors)
	for i := range r.invalid {
		p := Protector(i)
		res[p.String()] = r.Get(p)
	}
	return res
}
