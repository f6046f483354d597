package main

// mjsunitSource defines the subset of the mjsunit assertion helpers that
// protector tests use.
const mjsunitSource = `
function MjsUnitAssertionError(message) {
	this.message = message;
}
MjsUnitAssertionError.prototype.toString = function() {
	return "MjsUnitAssertionError: " + this.message;
};

function fail(expectedText, found, name_opt) {
	var message = "Failure";
	if (name_opt) {
		message += " (" + name_opt + ")";
	}
	message += ": expected <" + expectedText + "> found <" + String(found) + ">";
	throw new MjsUnitAssertionError(message);
}

function deepEquals(a, b) {
	if (a === b) {
		return a !== 0 || 1 / a === 1 / b;
	}
	if (typeof a === "number" && typeof b === "number") {
		return isNaN(a) && isNaN(b);
	}
	if (Array.isArray(a) && Array.isArray(b)) {
		if (a.length !== b.length) {
			return false;
		}
		for (var i = 0; i < a.length; i++) {
			if (!deepEquals(a[i], b[i])) {
				return false;
			}
		}
		return true;
	}
	return false;
}

function assertTrue(value, name_opt) {
	if (value !== true) {
		fail("true", value, name_opt);
	}
}

function assertFalse(value, name_opt) {
	if (value !== false) {
		fail("false", value, name_opt);
	}
}

function assertEquals(expected, found, name_opt) {
	if (!deepEquals(expected, found)) {
		fail(String(expected), found, name_opt);
	}
}

function assertThrows(code, type_opt) {
	try {
		code();
	} catch (e) {
		if (type_opt && !(e instanceof type_opt)) {
			fail(type_opt.name, e, "exception type");
		}
		return;
	}
	throw new MjsUnitAssertionError("Did not throw exception");
}
`
