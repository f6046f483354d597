package protector

const (
	classObject = "Object"

	classIterator       = "Iterator"
	classArrayIterator  = "Array Iterator"
	classMapIterator    = "Map Iterator"
	classSetIterator    = "Set Iterator"
	classStringIterator = "String Iterator"
)

type valueProperty struct {
	value                  any
	getterFunc, setterFunc NativeFunction

	accessor     bool
	writable     bool
	enumerable   bool
	configurable bool
}

func (p *valueProperty) descriptor() PropertyDescriptor {
	d := PropertyDescriptor{
		Enumerable:   ToFlag(p.enumerable),
		Configurable: ToFlag(p.configurable),
	}
	if p.accessor {
		d.Getter = p.getterFunc
		d.Setter = p.setterFunc
	} else {
		d.Value = p.value
		d.Writable = ToFlag(p.writable)
	}
	return d
}

// Object is an ordinary object of the runtime's object model. Every mutation
// that can break an iterator fast path goes through the runtime's tamper hooks
// before it is committed.
//
// Objects belong to the Runtime that created them and are not goroutine-safe.
type Object struct {
	runtime    *Runtime
	class      string
	prototype  *Object
	extensible bool

	values    map[string]*valueProperty
	propNames []string

	iterKind IteratorKind
	iter     iteratorSource
}

func (o *Object) init() {
	o.values = make(map[string]*valueProperty)
}

func (o *Object) String() string {
	return "[object " + o.class + "]"
}

// Class returns the internal class name, e.g. "Array Iterator".
func (o *Object) Class() string {
	return o.class
}

// Runtime returns the runtime that owns the object.
func (o *Object) Runtime() *Runtime {
	return o.runtime
}

// Prototype returns the object's [[Prototype]], nil for null.
func (o *Object) Prototype() *Object {
	return o.prototype
}

// IteratorKind returns the kind the object was tagged with at creation and
// false if the object is not an iterator.
func (o *Object) IteratorKind() (IteratorKind, bool) {
	return o.iterKind, o.iterKind != iteratorKindNone
}

func (o *Object) IsExtensible() bool {
	return o.extensible
}

func (o *Object) PreventExtensions() {
	o.extensible = false
}

func (o *Object) HasOwnProperty(name string) bool {
	_, exists := o.values[name]
	return exists
}

func (o *Object) HasProperty(name string) bool {
	for obj := o; obj != nil; obj = obj.prototype {
		if obj.HasOwnProperty(name) {
			return true
		}
	}
	return false
}

// GetOwnPropertyDescriptor returns the descriptor of an own property.
func (o *Object) GetOwnPropertyDescriptor(name string) (PropertyDescriptor, bool) {
	if prop, exists := o.values[name]; exists {
		return prop.descriptor(), true
	}
	return PropertyDescriptor{}, false
}

// Keys returns the own enumerable property names in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.propNames))
	for _, name := range o.propNames {
		if o.values[name].enumerable {
			keys = append(keys, name)
		}
	}
	return keys
}

// OwnKeys returns all own property names in insertion order.
func (o *Object) OwnKeys() []string {
	return append([]string(nil), o.propNames...)
}

func (o *Object) lookup(name string) *valueProperty {
	for obj := o; obj != nil; obj = obj.prototype {
		if prop, exists := obj.values[name]; exists {
			return prop
		}
	}
	return nil
}

// Get returns the value of the named property looked up along the prototype
// chain. Missing properties yield nil.
func (o *Object) Get(name string) (any, error) {
	prop := o.lookup(name)
	if prop == nil {
		return nil, nil
	}
	if prop.accessor {
		if prop.getterFunc == nil {
			return nil, nil
		}
		return prop.getterFunc(FunctionCall{This: o})
	}
	return prop.value, nil
}

// Set performs an ordinary [[Set]] with o as the receiver.
func (o *Object) Set(name string, val any) error {
	own := o.values[name]
	if own == nil {
		for proto := o.prototype; proto != nil; proto = proto.prototype {
			prop := proto.values[name]
			if prop == nil {
				continue
			}
			if prop.accessor {
				if prop.setterFunc == nil {
					return typeError("Cannot set property %s of %s which has only a getter", name, o)
				}
				_, err := prop.setterFunc(FunctionCall{This: o, Arguments: []any{val}})
				return err
			}
			if !prop.writable {
				return typeError("Cannot assign to read only property '%s'", name)
			}
			break
		}
		if !o.extensible {
			return typeError("Cannot add property %s, object is not extensible", name)
		}
		o.runtime.onPropertyMutation(o, name, OpSet)
		o._putProp(name, val, true, true, true)
		return nil
	}
	if own.accessor {
		if own.setterFunc == nil {
			return typeError("Cannot set property %s of %s which has only a getter", name, o)
		}
		_, err := own.setterFunc(FunctionCall{This: o, Arguments: []any{val}})
		return err
	}
	if !own.writable {
		return typeError("Cannot assign to read only property '%s'", name)
	}
	o.runtime.onPropertyMutation(o, name, OpSet)
	own.value = val
	return nil
}

// DefineOwnProperty implements [[DefineOwnProperty]].
func (o *Object) DefineOwnProperty(name string, descr PropertyDescriptor) error {
	existing := o.values[name]
	prop, err := o._defineOwnProperty(name, existing, descr)
	if err != nil {
		return err
	}
	o.runtime.onPropertyMutation(o, name, OpDefineOwnProperty)
	if existing == nil {
		o.values[name] = prop
		o.propNames = append(o.propNames, name)
	} else {
		*existing = *prop
	}
	return nil
}

func (o *Object) _defineOwnProperty(name string, existingProp *valueProperty, descr PropertyDescriptor) (*valueProperty, error) {
	var existing valueProperty

	if existingProp == nil {
		if !o.extensible {
			return nil, typeError("Cannot define property %s, object is not extensible", name)
		}
	} else {
		existing = *existingProp

		if !existing.configurable {
			if descr.Configurable == FLAG_TRUE {
				goto Reject
			}
			if descr.Enumerable != FLAG_NOT_SET && descr.Enumerable.Bool() != existing.enumerable {
				goto Reject
			}
		}
		if existing.accessor && descr.Value != nil || !existing.accessor && (descr.Getter != nil || descr.Setter != nil) {
			if !existing.configurable {
				goto Reject
			}
		} else if !existing.accessor {
			if !existing.configurable && !existing.writable {
				if descr.Writable == FLAG_TRUE {
					goto Reject
				}
				if descr.Value != nil && !sameValue(descr.Value, existing.value) {
					goto Reject
				}
			}
		} else if !existing.configurable {
			// accessor functions cannot be compared, any replacement is a change
			if descr.Getter != nil || descr.Setter != nil {
				goto Reject
			}
		}
	}

	if descr.Writable != FLAG_NOT_SET {
		existing.writable = descr.Writable.Bool()
	}
	if descr.Enumerable != FLAG_NOT_SET {
		existing.enumerable = descr.Enumerable.Bool()
	}
	if descr.Configurable != FLAG_NOT_SET {
		existing.configurable = descr.Configurable.Bool()
	}

	if descr.Value != nil {
		existing.value = descr.Value
		existing.getterFunc = nil
		existing.setterFunc = nil
	}

	if descr.Value != nil || descr.Writable != FLAG_NOT_SET {
		existing.accessor = false
	}

	if descr.Getter != nil {
		existing.getterFunc = descr.Getter
		existing.value = nil
		existing.accessor = true
	}

	if descr.Setter != nil {
		existing.setterFunc = descr.Setter
		existing.value = nil
		existing.accessor = true
	}

	return &existing, nil

Reject:
	return nil, typeError("Cannot redefine property: %s", name)
}

// Delete removes an own property. Deleting a missing property succeeds.
func (o *Object) Delete(name string) error {
	prop, exists := o.values[name]
	if !exists {
		return nil
	}
	if !prop.configurable {
		return typeError("Cannot delete property '%s' of %s", name, o)
	}
	o.runtime.onPropertyMutation(o, name, OpDelete)
	o._delete(name)
	return nil
}

func (o *Object) _delete(name string) {
	delete(o.values, name)
	for i, n := range o.propNames {
		if n == name {
			copy(o.propNames[i:], o.propNames[i+1:])
			o.propNames = o.propNames[:len(o.propNames)-1]
			break
		}
	}
}

// SetPrototypeOf implements [[SetPrototypeOf]]. A nil proto means null.
func (o *Object) SetPrototypeOf(proto *Object) error {
	if o.prototype == proto {
		return nil
	}
	if proto != nil && proto.runtime != o.runtime {
		return typeError("Cannot use an object from a different runtime as a prototype")
	}
	if !o.extensible {
		return typeError("%s is not extensible", o)
	}
	for p := proto; p != nil; p = p.prototype {
		if p == o {
			return typeError("Cyclic __proto__ value")
		}
	}
	o.runtime.onPrototypeMutation(o)
	o.prototype = proto
	return nil
}

// DetachPrototype records that the prototype of o was replaced by an object
// that lives outside the object model. The hooks see it as a prototype
// mutation and o is left with a null prototype on the model side.
func (o *Object) DetachPrototype() error {
	if !o.extensible {
		return typeError("%s is not extensible", o)
	}
	o.runtime.onPrototypeMutation(o)
	o.prototype = nil
	return nil
}

// _putProp stores a property without running the tamper hooks. It is used
// while building intrinsics and for properties created by Set.
func (o *Object) _putProp(name string, value any, writable, enumerable, configurable bool) {
	prop := &valueProperty{
		value:        value,
		writable:     writable,
		enumerable:   enumerable,
		configurable: configurable,
	}
	if _, exists := o.values[name]; !exists {
		o.propNames = append(o.propNames, name)
	}
	o.values[name] = prop
}
