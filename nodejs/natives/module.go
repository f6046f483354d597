package natives

import (
	"errors"
	"strconv"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"

	protector "github.com/dop251/goja_protector"
)

const ModuleName = "natives"

// maxPrototypeChainDepth bounds the walk over goja prototype chains, which
// proxies can make arbitrarily long.
const maxPrototypeChainDepth = 1 << 10

// Natives binds one goja runtime to a protector runtime. Objects created by
// the protector runtime are exposed to scripts as dynamic objects so that
// writes, deletes and prototype changes go through the hooked operations.
//
// A wrapper's goja prototype is the wrapper of its prototype in the object
// model, so a script that walks up from an iterator only ever reaches hooked
// objects. The chain ends in root, a frozen object holding [Symbol.iterator].
type Natives struct {
	vm *goja.Runtime
	rt *protector.Runtime

	exports     *goja.Object
	root        *goja.Object
	objectProto *goja.Object

	// only intrinsics and createObject results keep a stable wrapper,
	// iterators and result objects are wrapped on every crossing
	wrapped map[*protector.Object]*goja.Object

	// detached holds the goja prototypes of objects whose prototype was
	// replaced by a plain goja object
	detached map[*protector.Object]*goja.Object
}

type hostObject struct {
	n *Natives
	o *protector.Object
	w *goja.Object

	// proto and coreProto are the prototypes the wrapper was last synced to
	proto     *goja.Object
	coreProto *protector.Object
}

func (h *hostObject) Get(key string) goja.Value {
	h.sync()
	d, exists := h.o.GetOwnPropertyDescriptor(key)
	if !exists {
		if h.inherits(key) {
			return h.n.objectProto.Get(key)
		}
		return nil
	}
	if d.Getter != nil {
		v, err := d.Getter(protector.FunctionCall{This: h.o})
		if err != nil {
			h.n.throw(err)
		}
		return h.n.toValue(v)
	}
	return h.n.toValue(d.Value)
}

func (h *hostObject) Set(key string, val goja.Value) bool {
	h.sync()
	return h.o.Set(key, h.n.fromValue(val)) == nil
}

func (h *hostObject) Has(key string) bool {
	h.sync()
	return h.o.HasOwnProperty(key) || h.inherits(key) && h.n.objectProto.Get(key) != nil
}

func (h *hostObject) Delete(key string) bool {
	h.sync()
	return h.o.Delete(key) == nil
}

func (h *hostObject) Keys() []string {
	h.sync()
	return h.o.Keys()
}

// inherits reports whether key is looked up on the goja Object.prototype. The
// model's ObjectPrototype stands in for it, except for the names an iterator
// fast path relies on.
func (h *hostObject) inherits(key string) bool {
	return h.o == h.n.rt.Intrinsics().ObjectPrototype && key != "__proto__" && !protector.IsReservedKey(key)
}

// sync reconciles the wrapper's prototype with the object model. A goja
// prototype replaced without going through the bridge is committed to the
// model, or reverted when the model refuses it. A prototype changed on the Go
// side is mirrored to the wrapper.
func (h *hostObject) sync() {
	if p := h.w.Prototype(); p != h.proto {
		if err := h.n.commitPrototype(h, p); err != nil {
			h.w.SetPrototype(h.proto)
			return
		}
		h.proto = p
		h.coreProto = h.o.Prototype()
	}
	if h.o.Prototype() != h.coreProto {
		h.link(h.n.protoOf(h.o))
	}
}

func (h *hostObject) link(proto *goja.Object) {
	h.w.SetPrototype(proto)
	h.proto = proto
	h.coreProto = h.o.Prototype()
}

func (n *Natives) throw(err error) {
	var te *protector.TypeError
	if errors.As(err, &te) {
		panic(n.vm.NewTypeError("%s", te.Message()))
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		panic(ex)
	}
	panic(n.vm.NewGoError(err))
}

func (n *Natives) wrap(o *protector.Object) *goja.Object {
	if w, exists := n.wrapped[o]; exists {
		return w
	}
	return n.newWrapper(o)
}

func (n *Natives) newWrapper(o *protector.Object) *goja.Object {
	h := &hostObject{n: n, o: o}
	h.w = n.vm.NewDynamicObject(h)
	h.link(n.protoOf(o))
	return h.w
}

// protoOf returns the goja prototype a wrapper of o should have.
func (n *Natives) protoOf(o *protector.Object) *goja.Object {
	if p := o.Prototype(); p != nil {
		return n.wrap(p)
	}
	if p, exists := n.detached[o]; exists {
		return p
	}
	if o == n.rt.Intrinsics().ObjectPrototype {
		return n.root
	}
	return nil
}

func (n *Natives) hostOf(v goja.Value) (*hostObject, bool) {
	if o, ok := v.(*goja.Object); ok {
		if h, ok := o.Export().(*hostObject); ok && h.n == n {
			return h, true
		}
	}
	return nil, false
}

// commitPrototype applies a goja prototype change of h to the object model.
// A wrapper maps to its object, a plain goja object detaches the model-side
// prototype, so the hooks run either way.
func (n *Natives) commitPrototype(h *hostObject, proto *goja.Object) error {
	depth := 0
	for p := proto; p != nil; p = p.Prototype() {
		if p == h.w {
			return protector.NewTypeError("Cyclic __proto__ value")
		}
		if ph, ok := n.hostOf(p); ok && ph.o == h.o {
			return protector.NewTypeError("Cyclic __proto__ value")
		}
		depth++
		if depth > maxPrototypeChainDepth {
			return protector.NewTypeError("Maximum prototype chain length exceeded")
		}
	}
	if proto == nil {
		if h.o.Prototype() == nil {
			// null to null still drops whatever the wrapper inherited
			delete(n.detached, h.o)
			return h.o.DetachPrototype()
		}
		delete(n.detached, h.o)
		return h.o.SetPrototypeOf(nil)
	}
	if ph, ok := n.hostOf(proto); ok {
		if err := h.o.SetPrototypeOf(ph.o); err != nil {
			return err
		}
		delete(n.detached, h.o)
		return nil
	}
	if err := h.o.DetachPrototype(); err != nil {
		return err
	}
	n.detached[h.o] = proto
	return nil
}

func (n *Natives) setPrototype(h *hostObject, proto goja.Value, throw bool) bool {
	var p *goja.Object
	if !goja.IsNull(proto) {
		o, ok := proto.(*goja.Object)
		if !ok {
			panic(n.vm.NewTypeError("Object prototype may only be an Object or null: %s", proto))
		}
		p = o
	}
	h.sync()
	if p == h.proto {
		return true
	}
	if err := n.commitPrototype(h, p); err != nil {
		if throw {
			n.throw(err)
		}
		return false
	}
	h.link(p)
	return true
}

func (n *Natives) toPropertyDescriptor(v goja.Value) protector.PropertyDescriptor {
	obj, ok := v.(*goja.Object)
	if !ok {
		panic(n.vm.NewTypeError("Property description must be an object: %s", v))
	}
	var d protector.PropertyDescriptor
	flag := func(name string) protector.Flag {
		if f := obj.Get(name); f != nil {
			return protector.ToFlag(f.ToBoolean())
		}
		return protector.FLAG_NOT_SET
	}
	accessor := func(name string) protector.NativeFunction {
		f := obj.Get(name)
		if f == nil || goja.IsUndefined(f) {
			return nil
		}
		call, ok := goja.AssertFunction(f)
		if !ok {
			panic(n.vm.NewTypeError("%s must be a function: %s", name, f))
		}
		return n.nativeFunction(call)
	}
	d.Enumerable = flag("enumerable")
	d.Configurable = flag("configurable")
	d.Writable = flag("writable")
	value := obj.Get("value")
	if value != nil {
		if goja.IsUndefined(value) {
			d.Value = value
		} else {
			d.Value = n.fromValue(value)
		}
	}
	d.Getter = accessor("get")
	d.Setter = accessor("set")
	if (d.Getter != nil || d.Setter != nil) && (value != nil || d.Writable != protector.FLAG_NOT_SET) {
		panic(n.vm.NewTypeError("Invalid property descriptor. Cannot both specify accessors and a value or writable attribute"))
	}
	return d
}

func (n *Natives) nativeFunction(fn goja.Callable) protector.NativeFunction {
	return func(call protector.FunctionCall) (any, error) {
		var this goja.Value = goja.Undefined()
		if call.This != nil {
			this = n.wrap(call.This)
		}
		args := make([]goja.Value, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = n.toValue(a)
		}
		res, err := fn(this, args...)
		if err != nil {
			return nil, err
		}
		return n.fromValue(res), nil
	}
}

func (n *Natives) toValue(v any) goja.Value {
	switch v := v.(type) {
	case nil:
		return goja.Undefined()
	case goja.Value:
		return v
	case *protector.Object:
		return n.wrap(v)
	case protector.NativeFunction:
		return n.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			this, _ := n.fromValue(call.This).(*protector.Object)
			args := make([]any, len(call.Arguments))
			for i, a := range call.Arguments {
				args[i] = n.fromValue(a)
			}
			res, err := v(protector.FunctionCall{This: this, Arguments: args})
			if err != nil {
				n.throw(err)
			}
			return n.toValue(res)
		})
	case []any:
		items := make([]interface{}, len(v))
		for i, item := range v {
			items[i] = n.toValue(item)
		}
		return n.vm.NewArray(items...)
	}
	return n.vm.ToValue(v)
}

func (n *Natives) fromValue(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) {
		return nil
	}
	if h, ok := n.hostOf(v); ok {
		return h.o
	}
	return v
}

func (n *Natives) hostArg(call goja.FunctionCall, idx int, nullable bool) *protector.Object {
	arg := call.Argument(idx)
	if nullable && goja.IsNull(arg) {
		return nil
	}
	if o, ok := n.fromValue(arg).(*protector.Object); ok {
		return o
	}
	panic(n.vm.NewTypeError("Argument %d is not a protector object", idx))
}

func (n *Natives) createIterator(call goja.FunctionCall) goja.Value {
	kind := protector.ParseIteratorKind(call.Argument(0).String())
	var items []any
	if arg := call.Argument(1); !goja.IsUndefined(arg) && !goja.IsNull(arg) {
		arr := arg.ToObject(n.vm)
		l := arr.Get("length").ToInteger()
		items = make([]any, 0, l)
		for i := int64(0); i < l; i++ {
			items = append(items, arr.Get(strconv.FormatInt(i, 10)))
		}
	}
	return n.wrap(n.rt.NewHostIterator(kind, items))
}

func (n *Natives) intrinsic(name string) goja.Value {
	o, exists := n.rt.Intrinsics().Lookup(name)
	if !exists {
		panic(n.vm.NewTypeError("Unknown intrinsic: %s", name))
	}
	return n.wrap(o)
}

func (n *Natives) handlerArg(call goja.FunctionCall, idx int) *hostObject {
	h, ok := n.hostOf(call.Argument(idx))
	if !ok {
		panic(n.vm.NewTypeError("Argument %d is not a protector object", idx))
	}
	return h
}

func (n *Natives) setPrototypeOf(call goja.FunctionCall) goja.Value {
	n.setPrototype(n.handlerArg(call, 0), call.Argument(1), true)
	return call.Argument(0)
}

func (n *Natives) bridgeSetPrototypeOf(call goja.FunctionCall) goja.Value {
	return n.vm.ToValue(n.setPrototype(n.handlerArg(call, 0), call.Argument(1), call.Argument(2).ToBoolean()))
}

func (n *Natives) bridgeGetPrototypeOf(call goja.FunctionCall) goja.Value {
	h := n.handlerArg(call, 0)
	h.sync()
	if p := h.w.Prototype(); p != nil {
		return p
	}
	return goja.Null()
}

func (n *Natives) bridgeDefineProperty(call goja.FunctionCall) goja.Value {
	h := n.handlerArg(call, 0)
	key := call.Argument(1).String()
	descr := n.toPropertyDescriptor(call.Argument(2))
	h.sync()
	if err := h.o.DefineOwnProperty(key, descr); err != nil {
		if call.Argument(3).ToBoolean() {
			n.throw(err)
		}
		return n.vm.ToValue(false)
	}
	return n.vm.ToValue(true)
}

func (n *Natives) isHost(call goja.FunctionCall) goja.Value {
	_, ok := n.hostOf(call.Argument(0))
	return n.vm.ToValue(ok)
}

func (n *Natives) getPrototypeOf(call goja.FunctionCall) goja.Value {
	if proto := n.hostArg(call, 0, false).Prototype(); proto != nil {
		return n.wrap(proto)
	}
	return goja.Null()
}

func (n *Natives) createObject(call goja.FunctionCall) goja.Value {
	o := n.rt.NewObject()
	if len(call.Arguments) > 0 {
		if err := o.SetPrototypeOf(n.hostArg(call, 0, true)); err != nil {
			n.throw(err)
		}
	}
	w := n.newWrapper(o)
	n.wrapped[o] = w
	return w
}

func (n *Natives) kindOf(call goja.FunctionCall) goja.Value {
	if o, ok := n.fromValue(call.Argument(0)).(*protector.Object); ok {
		if kind, tagged := o.IteratorKind(); tagged {
			return n.vm.ToValue(kind.String())
		}
	}
	return goja.Undefined()
}

func (n *Natives) install(goja.FunctionCall) goja.Value {
	fn, err := n.vm.RunString(installSource)
	if err != nil {
		panic(err)
	}
	patch, _ := goja.AssertFunction(fn)
	if _, err := patch(goja.Undefined(), n.exports); err != nil {
		panic(err)
	}
	return goja.Undefined()
}

func (n *Natives) guard() {
	fn, err := n.vm.RunString(guardSource)
	if err != nil {
		panic(err)
	}
	guard, _ := goja.AssertFunction(fn)
	bridge := n.vm.NewObject()
	bridge.Set("isHost", n.isHost)
	bridge.Set("getPrototypeOf", n.bridgeGetPrototypeOf)
	bridge.Set("setPrototypeOf", n.bridgeSetPrototypeOf)
	bridge.Set("defineProperty", n.bridgeDefineProperty)
	root, err := guard(goja.Undefined(), bridge)
	if err != nil {
		panic(err)
	}
	n.root = root.(*goja.Object)
}

func (n *Natives) exportIntrinsics(o *goja.Object) {
	queries, err := n.rt.Natives()
	if err != nil {
		// without natives syntax only the iterator plumbing is available
		return
	}
	for _, name := range queries.Names() {
		o.Set(name, func(goja.FunctionCall) goja.Value {
			v, err := queries.Call(name)
			if err != nil {
				n.throw(err)
			}
			return n.toValue(v)
		})
	}
}

// Register makes the module available to every runtime enabled on reg. All
// those runtimes share the protector state of rt.
func Register(reg *require.Registry, rt *protector.Runtime) {
	reg.RegisterNativeModule(ModuleName, Require(rt))
}

func Require(rt *protector.Runtime) require.ModuleLoader {
	return func(runtime *goja.Runtime, module *goja.Object) {
		n := &Natives{
			vm:       runtime,
			rt:       rt,
			wrapped:  make(map[*protector.Object]*goja.Object),
			detached: make(map[*protector.Object]*goja.Object),
		}
		n.objectProto = runtime.Get("Object").ToObject(runtime).Get("prototype").ToObject(runtime)
		n.guard()

		// prototypes first, so that every wrapper links to the cached one
		in := rt.Intrinsics()
		for _, proto := range []*protector.Object{
			in.ObjectPrototype, in.IteratorPrototype,
			in.ArrayIteratorPrototype, in.MapIteratorPrototype,
			in.SetIteratorPrototype, in.StringIteratorPrototype,
		} {
			n.wrapped[proto] = n.newWrapper(proto)
		}

		o := module.Get("exports").(*goja.Object)
		n.exports = o
		n.exportIntrinsics(o)
		o.Set("createIterator", n.createIterator)
		o.Set("intrinsic", n.intrinsic)
		o.Set("setPrototypeOf", n.setPrototypeOf)
		o.Set("getPrototypeOf", n.getPrototypeOf)
		o.Set("createObject", n.createObject)
		o.Set("kindOf", n.kindOf)
		o.Set("install", n.install)
	}
}

func Enable(runtime *goja.Runtime) {
	runtime.Set(ModuleName, require.Require(runtime, ModuleName))
}

// Install patches the built-in iterator factories of runtime so that they
// return tagged iterators. The module must be enabled first.
func Install(runtime *goja.Runtime) error {
	exports, ok := runtime.Get(ModuleName).(*goja.Object)
	if !ok {
		return errors.New("natives module is not enabled")
	}
	install, ok := goja.AssertFunction(exports.Get("install"))
	if !ok {
		return errors.New("natives module is not enabled")
	}
	_, err := install(goja.Undefined())
	return err
}
