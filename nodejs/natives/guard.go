package natives

// guardSource evaluates to a function that reroutes the reflective builtins
// which goja applies to dynamic objects without consulting the handler. For
// protector objects the bridge performs the operation on the object model;
// symbol keys and every other object go to the saved originals.
//
// The function returns the frozen null-prototype object that terminates the
// prototype chain of every wrapper and carries [Symbol.iterator].
const guardSource = `(function(bridge) {
	"use strict";
	var objectDefineProperty = Object.defineProperty;
	var objectDefineProperties = Object.defineProperties;
	var objectGetPrototypeOf = Object.getPrototypeOf;
	var objectSetPrototypeOf = Object.setPrototypeOf;
	var reflectDefineProperty = Reflect.defineProperty;
	var reflectGetPrototypeOf = Reflect.getPrototypeOf;
	var reflectSetPrototypeOf = Reflect.setPrototypeOf;
	var protoAccessor = Object.getOwnPropertyDescriptor(Object.prototype, "__proto__");
	var ownKeys = Reflect.ownKeys;
	var isEnumerable = Object.prototype.propertyIsEnumerable;

	function replace(target, name, f) {
		objectDefineProperty(target, name, {value: f, writable: true, enumerable: false, configurable: true});
	}

	replace(Object, "getPrototypeOf", function getPrototypeOf(o) {
		if (bridge.isHost(o)) {
			return bridge.getPrototypeOf(o);
		}
		return objectGetPrototypeOf(o);
	});
	replace(Reflect, "getPrototypeOf", function getPrototypeOf(o) {
		if (bridge.isHost(o)) {
			return bridge.getPrototypeOf(o);
		}
		return reflectGetPrototypeOf(o);
	});
	replace(Object, "setPrototypeOf", function setPrototypeOf(o, proto) {
		if (bridge.isHost(o)) {
			bridge.setPrototypeOf(o, proto, true);
			return o;
		}
		return objectSetPrototypeOf(o, proto);
	});
	replace(Reflect, "setPrototypeOf", function setPrototypeOf(o, proto) {
		if (bridge.isHost(o)) {
			return bridge.setPrototypeOf(o, proto, false);
		}
		return reflectSetPrototypeOf(o, proto);
	});
	replace(Object, "defineProperty", function defineProperty(o, key, desc) {
		if (bridge.isHost(o) && typeof key !== "symbol") {
			bridge.defineProperty(o, key, desc, true);
			return o;
		}
		return objectDefineProperty(o, key, desc);
	});
	replace(Reflect, "defineProperty", function defineProperty(o, key, desc) {
		if (bridge.isHost(o) && typeof key !== "symbol") {
			return bridge.defineProperty(o, key, desc, false);
		}
		return reflectDefineProperty(o, key, desc);
	});
	replace(Object, "defineProperties", function defineProperties(o, props) {
		if (!bridge.isHost(o)) {
			return objectDefineProperties(o, props);
		}
		props = Object(props);
		var keys = ownKeys(props);
		for (var i = 0; i < keys.length; i++) {
			var key = keys[i];
			if (!isEnumerable.call(props, key)) {
				continue;
			}
			if (typeof key === "symbol") {
				objectDefineProperty(o, key, props[key]);
			} else {
				bridge.defineProperty(o, key, props[key], true);
			}
		}
		return o;
	});
	objectDefineProperty(Object.prototype, "__proto__", {
		get: function() {
			if (bridge.isHost(this)) {
				return bridge.getPrototypeOf(this);
			}
			return protoAccessor.get.call(this);
		},
		set: function(proto) {
			if (bridge.isHost(this)) {
				if (proto === null || typeof proto === "object" || typeof proto === "function") {
					bridge.setPrototypeOf(this, proto, true);
				}
				return;
			}
			protoAccessor.set.call(this, proto);
		},
		enumerable: false,
		configurable: true
	});

	var root = Object.create(null);
	objectDefineProperty(root, Symbol.iterator, {
		value: function() {
			return this;
		}
	});
	return Object.freeze(root);
})`
