package protector

import (
	"fmt"
	"math"
	"reflect"
)

// Flag is a tri-state used by PropertyDescriptor to tell an unset attribute
// apart from an explicit false.
type Flag int

const (
	FLAG_NOT_SET Flag = iota
	FLAG_FALSE
	FLAG_TRUE
)

func (f Flag) Bool() bool {
	return f == FLAG_TRUE
}

func ToFlag(b bool) Flag {
	if b {
		return FLAG_TRUE
	}
	return FLAG_FALSE
}

// PropertyDescriptor describes a property for Object.DefineOwnProperty. A nil
// Value together with nil Getter and Setter leaves the current value alone.
type PropertyDescriptor struct {
	Value any

	Writable, Configurable, Enumerable Flag

	Getter, Setter NativeFunction
}

// FunctionCall is passed to a NativeFunction.
type FunctionCall struct {
	This      *Object
	Arguments []any
}

// Argument returns the argument at idx or nil (undefined) if there is none.
func (f FunctionCall) Argument(idx int) any {
	if idx < len(f.Arguments) {
		return f.Arguments[idx]
	}
	return nil
}

// NativeFunction is a callable property value implemented in Go.
type NativeFunction func(call FunctionCall) (any, error)

// TypeError is returned when an object operation is rejected.
type TypeError struct {
	msg string
}

func (e *TypeError) Error() string {
	return "TypeError: " + e.msg
}

// Message returns the error text without the TypeError prefix.
func (e *TypeError) Message() string {
	return e.msg
}

func typeError(format string, args ...any) *TypeError {
	return &TypeError{msg: fmt.Sprintf(format, args...)}
}

// NewTypeError creates a TypeError for operations that embedders reject on
// behalf of the object model.
func NewTypeError(format string, args ...any) *TypeError {
	return typeError(format, args...)
}

// toBoolean follows ToBoolean for the value types the object model carries.
func toBoolean(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0 && !math.IsNaN(v)
	case interface{ ToBoolean() bool }:
		return v.ToBoolean()
	}
	return true
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func sameValue(a, b any) bool {
	if fa, ok := toNumber(a); ok {
		fb, ok := toNumber(b)
		if !ok {
			return false
		}
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return true
		}
		return fa == fb && math.Signbit(fa) == math.Signbit(fb)
	}
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		// functions, slices and maps never compare equal
		return false
	}
	return a == b
}
