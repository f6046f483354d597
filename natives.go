package protector

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNativesSyntaxNotAllowed = errors.New("natives syntax is not allowed in this runtime")
	ErrUnknownNative           = errors.New("unknown native function")
)

// Natives is the privileged diagnostic surface of a Runtime, the Go side of
// %Name() calls in test scripts. It only exists for runtimes created with
// WithAllowNativesSyntax(true).
type Natives struct {
	r *Runtime
}

// Natives returns the diagnostic surface or ErrNativesSyntaxNotAllowed.
func (r *Runtime) Natives() (*Natives, error) {
	if !r.allowNativesSyntax {
		return nil, ErrNativesSyntaxNotAllowed
	}
	return &Natives{r: r}, nil
}

func (n *Natives) ArrayIteratorProtector() bool {
	return n.r.protectors.Get(ArrayIteratorProtector)
}

func (n *Natives) MapIteratorProtector() bool {
	return n.r.protectors.Get(MapIteratorProtector)
}

func (n *Natives) SetIteratorProtector() bool {
	return n.r.protectors.Get(SetIteratorProtector)
}

func (n *Natives) StringIteratorProtector() bool {
	return n.r.protectors.Get(StringIteratorProtector)
}

// ResetProtectors makes every protector valid again. It exists to isolate test
// cases that share a runtime and has no production use.
func (n *Natives) ResetProtectors() {
	n.r.protectors.resetAll()
}

type nativeFunc func(n *Natives) any

var nativeFunctions = map[string]nativeFunc{
	"ArrayIteratorProtector":  func(n *Natives) any { return n.ArrayIteratorProtector() },
	"MapIteratorProtector":    func(n *Natives) any { return n.MapIteratorProtector() },
	"SetIteratorProtector":    func(n *Natives) any { return n.SetIteratorProtector() },
	"StringIteratorProtector": func(n *Natives) any { return n.StringIteratorProtector() },
	"ResetProtectors": func(n *Natives) any {
		n.ResetProtectors()
		return nil
	},
}

// Call dispatches a native by name, the way %Name() is resolved.
func (n *Natives) Call(name string) (any, error) {
	f, ok := nativeFunctions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %%%s", ErrUnknownNative, name)
	}
	return f(n), nil
}

// Names returns the names accepted by Call, sorted.
func (n *Natives) Names() []string {
	names := make([]string, 0, len(nativeFunctions))
	for name := range nativeFunctions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
