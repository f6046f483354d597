package protector

// maxPrototypeChainDepth bounds the prototype walk done by the tamper hooks.
// Chains longer than this are treated as undeterminable.
const maxPrototypeChainDepth = 1 << 10

// IsReservedKey reports whether an iterator fast path relies on the property
// name. Mutating such a property can invalidate a protector.
func IsReservedKey(name string) bool {
	switch name {
	case "next", "return", SymIterator:
		return true
	}
	return false
}

// affectedKinds returns the iterator kinds whose fast path can observe a
// mutation of o: the kind o was tagged with, plus every kind whose intrinsic
// prototype has o on its prototype chain. Anything it cannot classify yields
// every kind.
func (r *Runtime) affectedKinds(o *Object) kindSet {
	var kinds kindSet
	switch o.iterKind {
	case iteratorKindNone:
	case IteratorKindUnknown:
		return allKinds()
	default:
		if _, ok := o.iterKind.Protector(); !ok {
			return allKinds()
		}
		kinds.add(o.iterKind)
	}

	for _, k := range wellKnownIteratorKinds {
		if kinds.has(k) {
			continue
		}
		depth := 0
		for p := r.intrinsics.KindPrototype(k); p != nil; p = p.prototype {
			if p == o {
				kinds.add(k)
				break
			}
			depth++
			if depth > maxPrototypeChainDepth {
				return allKinds()
			}
		}
	}
	return kinds
}

func (r *Runtime) invalidateKinds(kinds kindSet, cause Cause) {
	for _, k := range wellKnownIteratorKinds {
		if kinds.has(k) {
			p, _ := k.Protector()
			r.protectors.invalidate(p, cause)
		}
	}
}

// onPropertyMutation runs before an own property of o named name is created,
// overwritten, redefined or deleted.
func (r *Runtime) onPropertyMutation(o *Object, name string, op Op) {
	if !IsReservedKey(name) {
		return
	}
	if kinds := r.affectedKinds(o); kinds != 0 {
		r.invalidateKinds(kinds, Cause{Op: op, Key: name, Class: o.class})
	}
}

// onPrototypeMutation runs before the [[Prototype]] of o is replaced.
func (r *Runtime) onPrototypeMutation(o *Object) {
	if kinds := r.affectedKinds(o); kinds != 0 {
		r.invalidateKinds(kinds, Cause{Op: OpSetPrototype, Class: o.class})
	}
}
