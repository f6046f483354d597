package protector

import (
	"github.com/dlclark/regexp2"
	"github.com/tliron/commonlog"
)

type tracer struct {
	log    commonlog.Logger
	filter *regexp2.Regexp
}

func (t *tracer) trace(inv Invalidation) {
	if t.filter != nil {
		if ok, err := t.filter.MatchString(inv.Protector.String()); err != nil || !ok {
			return
		}
	}
	t.log.Noticef("Invalidating protector cell %s: %s", inv.Protector, inv.Cause)
}

// CompileTraceFilter compiles a protector-name filter for WithTraceInvalidation.
// An empty expression matches everything and yields nil.
func CompileTraceFilter(expr string) (*regexp2.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	return regexp2.Compile(expr, regexp2.None)
}
