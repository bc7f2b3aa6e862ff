package ecsx

// Releaser is satisfied by every view type (Shared, Exclusive, UniqueShared,
// UniqueExclusive, AllStoragesShared, AllStoragesExclusive); BorrowN uses it
// to roll back whichever views it already acquired when a later acquisition
// in the same call fails. It also carries the view's static borrow
// descriptor, letting System compute a borrow set without borrowing
// anything: descriptor() only depends on the view's type parameter, so it
// is safe to call on a zero-valued, never-borrowed view.
type Releaser interface {
	Release()
	descriptor() BorrowDescriptor
}

// acquireFunc is what a caller passes to BorrowN for each view it wants:
// a thunk that performs one BorrowShared/BorrowExclusive/etc. call.
type acquireFunc[V Releaser] func() (V, error)

// Option wraps a view whose absence should not fail the whole composition:
// borrowing storage that does not exist yields a zero Option rather than an
// error. Used for systems that read a component only when present (e.g. an
// optional Debug marker) instead of requiring it.
type Option[V Releaser] struct {
	Value V
	Ok    bool
}

// Optional adapts an acquireFunc so a MissingStorageError or MissingUniqueError
// is absorbed into Option.Ok == false instead of aborting the borrow chain.
// Any other error (a real borrow conflict) still propagates.
func Optional[V Releaser](acquire acquireFunc[V]) acquireFunc[Option[V]] {
	return func() (Option[V], error) {
		v, err := acquire()
		switch err.(type) {
		case nil:
			return Option[V]{Value: v, Ok: true}, nil
		case MissingStorageError, MissingUniqueError:
			return Option[V]{}, nil
		default:
			return Option[V]{}, err
		}
	}
}

// Release releases the wrapped view if it was successfully acquired.
func (o Option[V]) Release() {
	if o.Ok {
		o.Value.Release()
	}
}

func (o Option[V]) descriptor() BorrowDescriptor {
	var zero V
	return zero.descriptor()
}

// Borrow1 acquires a single view. It exists for symmetry with Borrow2..6 so
// a System1 body can be written the same way regardless of its arity.
func Borrow1[A Releaser](a acquireFunc[A]) (A, error) {
	return a()
}

// Borrow2 acquires two views left to right, releasing any already-acquired
// view (LIFO) if a later one fails.
func Borrow2[A, B Releaser](a acquireFunc[A], b acquireFunc[B]) (A, B, error) {
	var zeroA A
	var zeroB B
	va, err := a()
	if err != nil {
		return zeroA, zeroB, err
	}
	vb, err := b()
	if err != nil {
		va.Release()
		return zeroA, zeroB, err
	}
	return va, vb, nil
}

// Borrow3 acquires three views left to right with LIFO rollback.
func Borrow3[A, B, C Releaser](a acquireFunc[A], b acquireFunc[B], c acquireFunc[C]) (A, B, C, error) {
	var zeroA A
	var zeroB B
	var zeroC C
	va, vb, err := Borrow2(a, b)
	if err != nil {
		return zeroA, zeroB, zeroC, err
	}
	vc, err := c()
	if err != nil {
		vb.Release()
		va.Release()
		return zeroA, zeroB, zeroC, err
	}
	return va, vb, vc, nil
}

// Borrow4 acquires four views left to right with LIFO rollback.
func Borrow4[A, B, C, D Releaser](a acquireFunc[A], b acquireFunc[B], c acquireFunc[C], d acquireFunc[D]) (A, B, C, D, error) {
	var zeroA A
	var zeroB B
	var zeroC C
	var zeroD D
	va, vb, vc, err := Borrow3(a, b, c)
	if err != nil {
		return zeroA, zeroB, zeroC, zeroD, err
	}
	vd, err := d()
	if err != nil {
		vc.Release()
		vb.Release()
		va.Release()
		return zeroA, zeroB, zeroC, zeroD, err
	}
	return va, vb, vc, vd, nil
}

// Borrow5 acquires five views left to right with LIFO rollback.
func Borrow5[A, B, C, D, E Releaser](a acquireFunc[A], b acquireFunc[B], c acquireFunc[C], d acquireFunc[D], e acquireFunc[E]) (A, B, C, D, E, error) {
	var zeroA A
	var zeroB B
	var zeroC C
	var zeroD D
	var zeroE E
	va, vb, vc, vd, err := Borrow4(a, b, c, d)
	if err != nil {
		return zeroA, zeroB, zeroC, zeroD, zeroE, err
	}
	ve, err := e()
	if err != nil {
		vd.Release()
		vc.Release()
		vb.Release()
		va.Release()
		return zeroA, zeroB, zeroC, zeroD, zeroE, err
	}
	return va, vb, vc, vd, ve, nil
}

// Borrow6 acquires six views left to right with LIFO rollback.
func Borrow6[A, B, C, D, E, F Releaser](a acquireFunc[A], b acquireFunc[B], c acquireFunc[C], d acquireFunc[D], e acquireFunc[E], f acquireFunc[F]) (A, B, C, D, E, F, error) {
	var zeroA A
	var zeroB B
	var zeroC C
	var zeroD D
	var zeroE E
	var zeroF F
	va, vb, vc, vd, ve, err := Borrow5(a, b, c, d, e)
	if err != nil {
		return zeroA, zeroB, zeroC, zeroD, zeroE, zeroF, err
	}
	vf, err := f()
	if err != nil {
		ve.Release()
		vd.Release()
		vc.Release()
		vb.Release()
		va.Release()
		return zeroA, zeroB, zeroC, zeroD, zeroE, zeroF, err
	}
	return va, vb, vc, vd, ve, vf, nil
}
