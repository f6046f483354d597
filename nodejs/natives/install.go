package natives

// installSource evaluates to a function that replaces the built-in iterator
// factories. The replacements drain the original iterator and hand the items
// to createIterator, so the returned iterator is a snapshot of its source.
// Names that share one builtin, such as Array.prototype.values and
// Array.prototype[Symbol.iterator], keep sharing the replacement.
const installSource = `(function(natives) {
	"use strict";
	function drain(it) {
		var items = [];
		for (var r = it.next(); !r.done; r = it.next()) {
			items.push(r.value);
		}
		return items;
	}
	function patch(proto, key, kind) {
		var orig = proto[key];
		if (typeof orig !== "function" || orig.__tagged) {
			return;
		}
		var f = function() {
			return natives.createIterator(kind, drain(orig.call(this)));
		};
		Object.defineProperty(f, "__tagged", {value: true});
		Object.defineProperty(proto, key, {value: f, writable: true, enumerable: false, configurable: true});
	}
	function alias(proto, key, from) {
		Object.defineProperty(proto, key, {value: proto[from], writable: true, enumerable: false, configurable: true});
	}
	patch(Array.prototype, "values", "Array");
	patch(Array.prototype, "keys", "Array");
	patch(Array.prototype, "entries", "Array");
	patch(Map.prototype, "entries", "Map");
	patch(Map.prototype, "keys", "Map");
	patch(Map.prototype, "values", "Map");
	patch(Set.prototype, "values", "Set");
	patch(Set.prototype, "entries", "Set");
	patch(String.prototype, Symbol.iterator, "String");
	alias(Array.prototype, Symbol.iterator, "values");
	alias(Map.prototype, Symbol.iterator, "entries");
	alias(Set.prototype, "keys", "values");
	alias(Set.prototype, Symbol.iterator, "values");
})`
