package protector

import (
	"testing"
)

func expectProtectors(t *testing.T, rt *Runtime, want map[Protector]bool) {
	t.Helper()
	for _, p := range AllProtectors() {
		w, ok := want[p]
		if !ok {
			w = true
		}
		if got := rt.Protectors().Get(p); got != w {
			t.Fatalf("%s: got %v, want %v", p, got, w)
		}
	}
}

func defineReturn(t *testing.T, rt *Runtime, o *Object) {
	t.Helper()
	err := o.DefineOwnProperty("return", PropertyDescriptor{Value: rt.NewObject()})
	if err != nil {
		t.Fatal(err)
	}
}

func TestArrayIteratorReturn(t *testing.T) {
	rt := New(WithAllowNativesSyntax(true))
	n, err := rt.Natives()
	if err != nil {
		t.Fatal(err)
	}
	if !n.SetIteratorProtector() || !n.MapIteratorProtector() || !n.StringIteratorProtector() || !n.ArrayIteratorProtector() {
		t.Fatal("protectors are not valid initially")
	}

	defineReturn(t, rt, rt.NewArrayIterator(nil, IterationKindValue))

	if !n.SetIteratorProtector() {
		t.Fatal("SetIteratorProtector")
	}
	if !n.MapIteratorProtector() {
		t.Fatal("MapIteratorProtector")
	}
	if !n.StringIteratorProtector() {
		t.Fatal("StringIteratorProtector")
	}
	if n.ArrayIteratorProtector() {
		t.Fatal("ArrayIteratorProtector was not invalidated")
	}
}

func TestMapIteratorReturn(t *testing.T) {
	rt := New()
	defineReturn(t, rt, rt.NewMapIterator(NewOrderedMap(), IterationKindKeyValue))
	expectProtectors(t, rt, map[Protector]bool{MapIteratorProtector: false})
}

func TestSetAndStringIteratorReturn(t *testing.T) {
	rt := New()
	defineReturn(t, rt, rt.NewSetIterator(NewOrderedMap(), IterationKindValue))
	expectProtectors(t, rt, map[Protector]bool{SetIteratorProtector: false})

	rt = New()
	defineReturn(t, rt, rt.NewStringIterator("abc"))
	expectProtectors(t, rt, map[Protector]bool{StringIteratorProtector: false})
}

func TestSharedIteratorPrototypeReturn(t *testing.T) {
	rt := New(WithAllowNativesSyntax(true))
	n, err := rt.Natives()
	if err != nil {
		t.Fatal(err)
	}
	in := rt.Intrinsics()

	shared := rt.NewObject()
	if err := shared.SetPrototypeOf(in.IteratorPrototype); err != nil {
		t.Fatal(err)
	}
	if err := in.ArrayIteratorPrototype.SetPrototypeOf(shared); err != nil {
		t.Fatal(err)
	}
	if err := in.StringIteratorPrototype.SetPrototypeOf(shared); err != nil {
		t.Fatal(err)
	}
	// rewiring the chains is a tamper of its own
	expectProtectors(t, rt, map[Protector]bool{ArrayIteratorProtector: false, StringIteratorProtector: false})
	n.ResetProtectors()
	expectProtectors(t, rt, nil)

	defineReturn(t, rt, shared)
	expectProtectors(t, rt, map[Protector]bool{ArrayIteratorProtector: false, StringIteratorProtector: false})
}

func TestIteratorPrototypeReturnInvalidatesAll(t *testing.T) {
	rt := New()
	defineReturn(t, rt, rt.Intrinsics().IteratorPrototype)
	expectProtectors(t, rt, map[Protector]bool{
		ArrayIteratorProtector:  false,
		MapIteratorProtector:    false,
		SetIteratorProtector:    false,
		StringIteratorProtector: false,
	})
}

func TestObjectPrototypeNextInvalidatesAll(t *testing.T) {
	rt := New()
	if err := rt.Intrinsics().ObjectPrototype.Set("next", 1); err != nil {
		t.Fatal(err)
	}
	for _, p := range AllProtectors() {
		if rt.Protectors().Get(p) {
			t.Fatalf("%s is still valid", p)
		}
	}
}

func TestUnrelatedMutationsKeepProtectors(t *testing.T) {
	rt := New()

	o := rt.NewObject()
	defineReturn(t, rt, o)
	if err := o.Set("next", 1); err != nil {
		t.Fatal(err)
	}
	if err := o.Delete("next"); err != nil {
		t.Fatal(err)
	}
	if err := o.SetPrototypeOf(nil); err != nil {
		t.Fatal(err)
	}

	it := rt.NewArrayIterator([]any{1, 2}, IterationKindValue)
	if err := it.Set("foo", 1); err != nil {
		t.Fatal(err)
	}
	if err := it.DefineOwnProperty("bar", PropertyDescriptor{Value: 2}); err != nil {
		t.Fatal(err)
	}
	if err := it.Delete("foo"); err != nil {
		t.Fatal(err)
	}
	// deleting a reserved key that is not there changes nothing
	if err := it.Delete("return"); err != nil {
		t.Fatal(err)
	}
	if err := rt.Intrinsics().MapIteratorPrototype.Set("size", 0); err != nil {
		t.Fatal(err)
	}
	expectProtectors(t, rt, nil)
}

func TestDeleteNextOnKindPrototype(t *testing.T) {
	rt := New()
	if err := rt.Intrinsics().SetIteratorPrototype.Delete("next"); err != nil {
		t.Fatal(err)
	}
	expectProtectors(t, rt, map[Protector]bool{SetIteratorProtector: false})
}

func TestRedefineNextOnKindPrototype(t *testing.T) {
	rt := New()
	proto := rt.Intrinsics().StringIteratorPrototype
	d, ok := proto.GetOwnPropertyDescriptor("next")
	if !ok {
		t.Fatal("StringIteratorPrototype has no next")
	}
	if err := proto.DefineOwnProperty("next", PropertyDescriptor{Enumerable: d.Enumerable}); err != nil {
		t.Fatal(err)
	}
	expectProtectors(t, rt, map[Protector]bool{StringIteratorProtector: false})
}

func TestAssignReturnOnIterator(t *testing.T) {
	rt := New()
	it := rt.NewMapIterator(NewOrderedMap(), IterationKindValue)
	if err := it.Set("return", rt.NewObject()); err != nil {
		t.Fatal(err)
	}
	expectProtectors(t, rt, map[Protector]bool{MapIteratorProtector: false})
}

func TestSetPrototypeOfIterator(t *testing.T) {
	rt := New()
	it := rt.NewArrayIterator(nil, IterationKindValue)
	if err := it.SetPrototypeOf(rt.Intrinsics().ArrayIteratorPrototype); err != nil {
		t.Fatal(err)
	}
	expectProtectors(t, rt, nil)

	if err := it.SetPrototypeOf(rt.NewObject()); err != nil {
		t.Fatal(err)
	}
	expectProtectors(t, rt, map[Protector]bool{ArrayIteratorProtector: false})

	rt = New()
	if err := rt.Intrinsics().MapIteratorPrototype.SetPrototypeOf(nil); err != nil {
		t.Fatal(err)
	}
	expectProtectors(t, rt, map[Protector]bool{MapIteratorProtector: false})
}

func TestRejectedMutationKeepsProtectors(t *testing.T) {
	rt := New()
	it := rt.NewArrayIterator(nil, IterationKindValue)
	it.PreventExtensions()
	if err := it.DefineOwnProperty("return", PropertyDescriptor{Value: 1}); err == nil {
		t.Fatal("expected an error defining on a non-extensible object")
	}
	if err := it.Set("return", 1); err == nil {
		t.Fatal("expected an error assigning on a non-extensible object")
	}
	if err := it.SetPrototypeOf(nil); err == nil {
		t.Fatal("expected an error changing the prototype of a non-extensible object")
	}

	proto := rt.Intrinsics().ArrayIteratorPrototype
	if err := proto.DefineOwnProperty("return", PropertyDescriptor{Value: 1, Configurable: FLAG_FALSE, Writable: FLAG_FALSE}); err != nil {
		t.Fatal(err)
	}
	rt.Protectors().resetAll()
	if err := proto.DefineOwnProperty("return", PropertyDescriptor{Value: 2}); err == nil {
		t.Fatal("expected an error redefining a non-configurable property")
	}
	if err := proto.Delete("return"); err == nil {
		t.Fatal("expected an error deleting a non-configurable property")
	}
	if err := proto.Set("return", 2); err == nil {
		t.Fatal("expected an error assigning a read-only property")
	}
	expectProtectors(t, rt, nil)
}

func TestUnknownIteratorKindFailsSafe(t *testing.T) {
	rt := New()
	it := rt.NewHostIterator(IteratorKindUnknown, []any{1})
	if k, ok := it.IteratorKind(); !ok || k != IteratorKindUnknown {
		t.Fatalf("unexpected kind %v, %v", k, ok)
	}
	if err := it.Set("foo", 1); err != nil {
		t.Fatal(err)
	}
	expectProtectors(t, rt, nil)

	defineReturn(t, rt, it)
	for _, p := range AllProtectors() {
		if rt.Protectors().Get(p) {
			t.Fatalf("%s survived tampering with an unknown iterator", p)
		}
	}
}

func TestInvalidationVisibleToListener(t *testing.T) {
	var events []Invalidation
	var rt *Runtime
	rt = New(WithInvalidationListener(func(inv Invalidation) {
		if rt.Protectors().Get(inv.Protector) {
			t.Errorf("%s still reads valid inside the listener", inv.Protector)
		}
		events = append(events, inv)
	}))
	it := rt.NewArrayIterator(nil, IterationKindValue)
	defineReturn(t, rt, it)
	defineReturn(t, rt, rt.NewArrayIterator(nil, IterationKindValue))

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Protector != ArrayIteratorProtector {
		t.Fatalf("unexpected protector %s", ev.Protector)
	}
	if ev.Cause.Op != OpDefineOwnProperty || ev.Cause.Key != "return" || ev.Cause.Class != classArrayIterator {
		t.Fatalf("unexpected cause %+v", ev.Cause)
	}
	if s := ev.Cause.String(); s != `define "return" on Array Iterator` {
		t.Fatalf("unexpected cause string %q", s)
	}
}

func TestRuntimesAreIsolated(t *testing.T) {
	rt1 := New()
	rt2 := New()
	defineReturn(t, rt1, rt1.NewArrayIterator(nil, IterationKindValue))
	expectProtectors(t, rt1, map[Protector]bool{ArrayIteratorProtector: false})
	expectProtectors(t, rt2, nil)

	if err := rt2.NewObject().SetPrototypeOf(rt1.NewObject()); err == nil {
		t.Fatal("expected an error using a foreign prototype")
	}
}

func TestDetachPrototype(t *testing.T) {
	rt := New()
	in := rt.Intrinsics()

	// already null on the model side, the detach still counts
	if err := in.ObjectPrototype.DetachPrototype(); err != nil {
		t.Fatal(err)
	}
	expectProtectors(t, rt, map[Protector]bool{
		ArrayIteratorProtector:  false,
		MapIteratorProtector:    false,
		SetIteratorProtector:    false,
		StringIteratorProtector: false,
	})

	rt = New()
	it := rt.NewSetIterator(NewOrderedMap(), IterationKindValue)
	if err := it.DetachPrototype(); err != nil {
		t.Fatal(err)
	}
	if it.Prototype() != nil {
		t.Fatal("prototype still set")
	}
	expectProtectors(t, rt, map[Protector]bool{SetIteratorProtector: false})

	rt = New()
	o := rt.NewObject()
	o.PreventExtensions()
	if err := o.DetachPrototype(); err == nil {
		t.Fatal("non-extensible object detached")
	}
	expectProtectors(t, rt, nil)
}
