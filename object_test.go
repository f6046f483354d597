package protector

import (
	"errors"
	"reflect"
	"testing"
)

func TestDefineOwnPropertyDefaults(t *testing.T) {
	rt := New()
	o := rt.NewObject()
	if err := o.DefineOwnProperty("x", PropertyDescriptor{Value: 1}); err != nil {
		t.Fatal(err)
	}
	d, ok := o.GetOwnPropertyDescriptor("x")
	if !ok {
		t.Fatal("x is missing")
	}
	if d.Value != 1 || d.Writable != FLAG_FALSE || d.Enumerable != FLAG_FALSE || d.Configurable != FLAG_FALSE {
		t.Fatalf("unexpected descriptor %+v", d)
	}
	if err := o.Set("x", 2); err == nil {
		t.Fatal("expected an error assigning a read-only property")
	}
	if err := o.DefineOwnProperty("x", PropertyDescriptor{Value: 1}); err != nil {
		t.Fatalf("redefining with the same value should succeed: %v", err)
	}
	err := o.DefineOwnProperty("x", PropertyDescriptor{Value: 2})
	var te *TypeError
	if !errors.As(err, &te) {
		t.Fatalf("expected a TypeError, got %v", err)
	}
	if err.Error() != "TypeError: Cannot redefine property: x" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestObjectAccessors(t *testing.T) {
	rt := New()
	o := rt.NewObject()
	var stored any
	err := o.DefineOwnProperty("v", PropertyDescriptor{
		Getter: func(call FunctionCall) (any, error) {
			return stored, nil
		},
		Setter: func(call FunctionCall) (any, error) {
			stored = call.Argument(0)
			return nil, nil
		},
		Configurable: FLAG_TRUE,
	})
	if err != nil {
		t.Fatal(err)
	}
	child := rt.NewObject()
	if err := child.SetPrototypeOf(o); err != nil {
		t.Fatal(err)
	}
	if err := child.Set("v", 42); err != nil {
		t.Fatal(err)
	}
	if child.HasOwnProperty("v") {
		t.Fatal("inherited setter should not create an own property")
	}
	v, err := child.Get("v")
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 {
		t.Fatalf("got %v", v)
	}
	if err := o.DefineOwnProperty("v", PropertyDescriptor{Value: 1}); err != nil {
		t.Fatal(err)
	}
	if d, _ := o.GetOwnPropertyDescriptor("v"); d.Getter != nil || d.Value != 1 {
		t.Fatalf("accessor was not converted to data: %+v", d)
	}
}

func TestObjectKeysOrder(t *testing.T) {
	rt := New()
	o := rt.NewObject()
	for _, k := range []string{"b", "a", "c"} {
		if err := o.Set(k, k); err != nil {
			t.Fatal(err)
		}
	}
	if err := o.DefineOwnProperty("hidden", PropertyDescriptor{Value: 1, Configurable: FLAG_TRUE}); err != nil {
		t.Fatal(err)
	}
	if err := o.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if keys := o.Keys(); !reflect.DeepEqual(keys, []string{"b", "c"}) {
		t.Fatalf("Keys() = %v", keys)
	}
	if keys := o.OwnKeys(); !reflect.DeepEqual(keys, []string{"b", "c", "hidden"}) {
		t.Fatalf("OwnKeys() = %v", keys)
	}
}

func TestSetPrototypeOfCycle(t *testing.T) {
	rt := New()
	a := rt.NewObject()
	b := rt.NewObject()
	if err := b.SetPrototypeOf(a); err != nil {
		t.Fatal(err)
	}
	err := a.SetPrototypeOf(b)
	if err == nil || err.Error() != "TypeError: Cyclic __proto__ value" {
		t.Fatalf("unexpected error %v", err)
	}
	if b.Prototype() != a || a.Prototype() != rt.Intrinsics().ObjectPrototype {
		t.Fatal("a rejected cycle must leave both chains untouched")
	}
}

func TestInheritedReadOnlyBlocksSet(t *testing.T) {
	rt := New()
	proto := rt.NewObject()
	if err := proto.DefineOwnProperty("x", PropertyDescriptor{Value: 1}); err != nil {
		t.Fatal(err)
	}
	o := rt.NewObject()
	if err := o.SetPrototypeOf(proto); err != nil {
		t.Fatal(err)
	}
	if err := o.Set("x", 2); err == nil {
		t.Fatal("expected an error shadowing a read-only inherited property")
	}
	if o.HasOwnProperty("x") {
		t.Fatal("x was created")
	}
}

func TestIteratorObjectIdentity(t *testing.T) {
	rt := New()
	it := rt.NewStringIterator("")
	if it.Class() != classStringIterator {
		t.Fatalf("class %q", it.Class())
	}
	if it.Prototype() != rt.Intrinsics().StringIteratorPrototype {
		t.Fatal("wrong prototype")
	}
	if it.Runtime() != rt {
		t.Fatal("wrong runtime")
	}
	if _, ok := rt.NewObject().IteratorKind(); ok {
		t.Fatal("plain object reports an iterator kind")
	}
	if it.String() != "[object String Iterator]" {
		t.Fatalf("String() = %q", it.String())
	}
	for _, name := range []string{"%IteratorPrototype%", "ArrayIteratorPrototype", "ObjectPrototype"} {
		if _, ok := rt.Intrinsics().Lookup(name); !ok {
			t.Fatalf("Lookup(%q) failed", name)
		}
	}
	if _, ok := rt.Intrinsics().Lookup("GeneratorPrototype"); ok {
		t.Fatal("unexpected intrinsic")
	}
}

func TestRedefineFrozenNumber(t *testing.T) {
	rt := New()
	o := rt.NewObject()
	if err := o.DefineOwnProperty("n", PropertyDescriptor{Value: 1}); err != nil {
		t.Fatal(err)
	}
	if err := o.DefineOwnProperty("n", PropertyDescriptor{Value: float64(1)}); err != nil {
		t.Fatalf("1 and 1.0 are the same value: %v", err)
	}
	if err := o.DefineOwnProperty("n", PropertyDescriptor{Value: int64(2)}); err == nil {
		t.Fatal("redefined a frozen property with a different number")
	}

	if err := o.DefineOwnProperty("s", PropertyDescriptor{Value: []any{1}}); err != nil {
		t.Fatal(err)
	}
	if err := o.DefineOwnProperty("s", PropertyDescriptor{Value: []any{1}}); err == nil {
		t.Fatal("slices are never the same value")
	}
	if err := o.DefineOwnProperty("s", PropertyDescriptor{Value: "x"}); err == nil {
		t.Fatal("redefined a frozen slice with a string")
	}
}
