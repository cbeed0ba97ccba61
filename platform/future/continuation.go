package future

// Pair is the value of a Combine: the results of two deferred values in order.
type Pair struct {
	First  any
	Second any
}

// Then waits for d and applies the synchronous continuation k to its value.
// An error from d skips k. A panic in k completes the result with ErrPanicked.
func Then(d Deferred, k func(v any) (any, error)) *Future {
	if d == nil {
		return Failed(ErrNilDeferred)
	}
	f, complete := New()
	d.OnComplete(func(v any, err error) {
		if err != nil {
			complete(nil, err)
			return
		}
		complete(protect(func() (any, error) { return k(v) }))
	})
	return f
}

// ThenAwait waits for d, applies k, and then waits for the deferred value k returned.
// A panic in k completes the result with ErrPanicked.
func ThenAwait(d Deferred, k func(v any) (Deferred, error)) *Future {
	if d == nil {
		return Failed(ErrNilDeferred)
	}
	f, complete := New()
	d.OnComplete(func(v any, err error) {
		if err != nil {
			complete(nil, err)
			return
		}
		next, err := protect(func() (Deferred, error) { return k(v) })
		if err != nil {
			complete(nil, err)
			return
		}
		if next == nil {
			complete(nil, ErrNilDeferred)
			return
		}
		next.OnComplete(complete)
	})
	return f
}

// Combine waits for first, then calls second to obtain the next deferred value and
// waits for it too. The result is a Pair of both values. second is not called before
// first completes, so the evaluation order of the two sides is fixed.
func Combine(first Deferred, second func() (Deferred, error)) *Future {
	return ThenAwait(first, func(a any) (Deferred, error) {
		d, err := second()
		if err != nil {
			return nil, err
		}
		return Then(d, func(b any) (any, error) {
			return Pair{First: a, Second: b}, nil
		}), nil
	})
}
