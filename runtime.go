package protector

import (
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("protector")

// Runtime owns an object graph, its intrinsics and the protector registry that
// guards fast paths over them. Runtimes share nothing; each has its own
// registry.
//
// A Runtime is not goroutine-safe, with the exception of reads through
// Protectors().
type Runtime struct {
	protectors Registry
	intrinsics Intrinsics

	allowNativesSyntax bool
}

// New creates a Runtime with every protector valid.
func New(opts ...Option) *Runtime {
	o := defaultOptions
	for _, opt := range opts {
		opt.apply(&o)
	}

	r := &Runtime{
		allowNativesSyntax: o.allowNativesSyntax,
	}
	if o.trace {
		logger := o.logger
		if logger == nil {
			logger = log
		}
		t := &tracer{log: logger, filter: o.traceFilter}
		r.protectors.listeners = append(r.protectors.listeners, t.trace)
	}
	r.protectors.listeners = append(r.protectors.listeners, o.listeners...)

	r.initIterators()
	return r
}

// Protectors returns the runtime's registry. Fast-path code must query it on
// every operation and never cache the result.
func (r *Runtime) Protectors() *Registry {
	return &r.protectors
}

// Intrinsics returns the well-known objects of the runtime.
func (r *Runtime) Intrinsics() *Intrinsics {
	return &r.intrinsics
}

// NewObject creates an ordinary extensible object inheriting from
// ObjectPrototype.
func (r *Runtime) NewObject() *Object {
	return r.newBaseObject(r.intrinsics.ObjectPrototype, classObject)
}
