package protector

// Iterate calls fn with every value produced by iter until the iterator is
// exhausted or fn returns false.
//
// While the protector for iter's kind is valid the values are pulled straight
// from the iterator's source. Otherwise, including when fn invalidates the
// protector part way through, the full protocol is used: "next" is looked up
// and called for every step and "return" is called when fn stops early.
func (r *Runtime) Iterate(iter *Object, fn func(value any) bool) error {
	for r.fastPathEligible(iter) {
		value, done := iter.iter.next()
		if done {
			return nil
		}
		if !fn(value) {
			if r.fastPathEligible(iter) {
				iter.iter.close()
				return nil
			}
			return r.iteratorClose(iter)
		}
	}
	// the protocol resumes from the same source, "next" pulls from iter.iter
	return r.iterateProtocol(iter, fn)
}

// fastPathEligible is re-evaluated after every step, fn may tamper with the
// iterator.
func (r *Runtime) fastPathEligible(o *Object) bool {
	if o.iter == nil {
		return false
	}
	p, ok := o.iterKind.Protector()
	return ok && r.protectors.Get(p)
}

func (r *Runtime) iterateProtocol(iter *Object, fn func(value any) bool) error {
	nextVal, err := iter.Get("next")
	if err != nil {
		return err
	}
	next, ok := nextVal.(NativeFunction)
	if !ok {
		return typeError("%v is not a function", nextVal)
	}
	for {
		res, err := next(FunctionCall{This: iter})
		if err != nil {
			return err
		}
		resObj, ok := res.(*Object)
		if !ok {
			return typeError("Iterator result %v is not an object", res)
		}
		done, err := resObj.Get("done")
		if err != nil {
			return err
		}
		if toBoolean(done) {
			return nil
		}
		value, err := resObj.Get("value")
		if err != nil {
			return err
		}
		if !fn(value) {
			return r.iteratorClose(iter)
		}
	}
}

func (r *Runtime) iteratorClose(iter *Object) error {
	retVal, err := iter.Get("return")
	if err != nil {
		return err
	}
	if retVal == nil {
		return nil
	}
	ret, ok := retVal.(NativeFunction)
	if !ok {
		return typeError("%v is not a function", retVal)
	}
	res, err := ret(FunctionCall{This: iter})
	if err != nil {
		return err
	}
	if _, ok := res.(*Object); !ok {
		return typeError("Iterator result %v is not an object", res)
	}
	return nil
}
