package protector

import (
	"github.com/dlclark/regexp2"
	"github.com/tliron/commonlog"
)

var defaultOptions = options{}

// Option configures a Runtime created by New.
type Option interface {
	apply(*options)
}

type options struct {
	allowNativesSyntax bool

	trace       bool
	traceFilter *regexp2.Regexp
	logger      commonlog.Logger

	listeners []func(Invalidation)
}

type funcOption struct {
	f func(*options)
}

func (fdo *funcOption) apply(do *options) {
	fdo.f(do)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{
		f: f,
	}
}

// WithAllowNativesSyntax enables the privileged diagnostic surface returned by
// Runtime.Natives. It must stay off for untrusted code.
func WithAllowNativesSyntax(allow bool) Option {
	return newFuncOption(func(o *options) {
		o.allowNativesSyntax = allow
	})
}

// WithInvalidationListener registers fn to be called synchronously whenever a
// protector flips to invalid. Listeners run before the mutation that caused the
// flip returns and must not mutate objects of the same runtime.
func WithInvalidationListener(fn func(Invalidation)) Option {
	return newFuncOption(func(o *options) {
		o.listeners = append(o.listeners, fn)
	})
}

// WithTraceInvalidation logs every invalidation whose protector name matches
// filter. A nil filter traces all protectors.
func WithTraceInvalidation(filter *regexp2.Regexp) Option {
	return newFuncOption(func(o *options) {
		o.trace = true
		o.traceFilter = filter
	})
}

// WithLogger replaces the logger used for tracing.
func WithLogger(logger commonlog.Logger) Option {
	return newFuncOption(func(o *options) {
		o.logger = logger
	})
}
