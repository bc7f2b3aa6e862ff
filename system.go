package ecsx

import (
	"sync"

	"github.com/TheBitDrifter/mask"
)

// BorrowDescriptor is the static borrow a single view contributes to its
// owning System's BorrowSet. TouchesAll marks AllStoragesShared/Exclusive,
// which the scheduler treats as conflicting with every other system
// regardless of which specific storages they touch.
type BorrowDescriptor struct {
	ID         StorageID
	Write      bool
	TouchesAll bool
}

// storageBits assigns each distinct StorageID a stable bit position so
// borrow sets can be compared with a fixed-width bitmask instead of a
// pairwise scan over descriptor slices. Process-wide and keyed by
// reflect.Type identity, like the registry's own StorageID: a component
// type's bit position is the same regardless of which World is asking.
var (
	storageBitsMu  sync.Mutex
	storageBits    = map[StorageID]uint32{}
	nextStorageBit uint32
)

func bitFor(id StorageID) uint32 {
	storageBitsMu.Lock()
	defer storageBitsMu.Unlock()
	if b, ok := storageBits[id]; ok {
		return b
	}
	b := nextStorageBit
	nextStorageBit++
	storageBits[id] = b
	return b
}

// BorrowSet is the full set of storages a System reads or writes, computed
// once at registration time from its view types. reads/writes are
// mask.Mask256 bitsets over storageBits, the same kind of bitmask the
// teacher uses for per-archetype component signatures, repurposed here for
// borrow-set disjointness instead of archetype membership.
type BorrowSet struct {
	reads      mask.Mask256
	writes     mask.Mask256
	touchesAll bool
	descriptors []BorrowDescriptor
}

func newBorrowSet(descriptors ...BorrowDescriptor) BorrowSet {
	bs := BorrowSet{descriptors: descriptors}
	for _, d := range descriptors {
		if d.TouchesAll {
			bs.touchesAll = true
			continue
		}
		bit := bitFor(d.ID)
		if d.Write {
			bs.writes.Mark(bit)
		} else {
			bs.reads.Mark(bit)
		}
	}
	return bs
}

// ConflictsWith reports whether two borrow sets cannot run concurrently:
// either one of them touches the whole registry, or one side writes a
// storage the other side also reads or writes.
func (bs BorrowSet) ConflictsWith(other BorrowSet) bool {
	if bs.touchesAll || other.touchesAll {
		return true
	}
	if bs.writes.ContainsAny(other.reads) || bs.writes.ContainsAny(other.writes) {
		return true
	}
	if other.writes.ContainsAny(bs.reads) {
		return true
	}
	return false
}

// System is a runnable unit of work plus the borrow set the scheduler needs
// to decide which other systems it may run alongside. Name labels the
// System for its caller; it is not used for lookup, and the scheduler and
// the errors a run returns do not include it. The bodies System1..System4
// accept have no error result, so a run only fails on a borrow error.
type System struct {
	Name      string
	borrowSet BorrowSet
	serial    bool
	run       func(r *StorageRegistry, token ThreadToken) error
}

func descriptorOf[V Releaser]() BorrowDescriptor {
	var zero V
	return zero.descriptor()
}

// System1 builds a System around a body that needs exactly one view.
func System1[A Releaser](name string, acquireA func(*StorageRegistry, ThreadToken) (A, error), body func(A)) System {
	return System{
		Name:      name,
		borrowSet: newBorrowSet(descriptorOf[A]()),
		run: func(r *StorageRegistry, token ThreadToken) error {
			a, err := Borrow1(func() (A, error) { return acquireA(r, token) })
			if err != nil {
				return err
			}
			defer a.Release()
			body(a)
			return nil
		},
	}
}

// System2 builds a System around a body that needs two views.
func System2[A, B Releaser](
	name string,
	acquireA func(*StorageRegistry, ThreadToken) (A, error),
	acquireB func(*StorageRegistry, ThreadToken) (B, error),
	body func(A, B),
) System {
	return System{
		Name:      name,
		borrowSet: newBorrowSet(descriptorOf[A](), descriptorOf[B]()),
		run: func(r *StorageRegistry, token ThreadToken) error {
			a, b, err := Borrow2(
				func() (A, error) { return acquireA(r, token) },
				func() (B, error) { return acquireB(r, token) },
			)
			if err != nil {
				return err
			}
			defer b.Release()
			defer a.Release()
			body(a, b)
			return nil
		},
	}
}

// System3 builds a System around a body that needs three views.
func System3[A, B, C Releaser](
	name string,
	acquireA func(*StorageRegistry, ThreadToken) (A, error),
	acquireB func(*StorageRegistry, ThreadToken) (B, error),
	acquireC func(*StorageRegistry, ThreadToken) (C, error),
	body func(A, B, C),
) System {
	return System{
		Name:      name,
		borrowSet: newBorrowSet(descriptorOf[A](), descriptorOf[B](), descriptorOf[C]()),
		run: func(r *StorageRegistry, token ThreadToken) error {
			a, b, c, err := Borrow3(
				func() (A, error) { return acquireA(r, token) },
				func() (B, error) { return acquireB(r, token) },
				func() (C, error) { return acquireC(r, token) },
			)
			if err != nil {
				return err
			}
			defer c.Release()
			defer b.Release()
			defer a.Release()
			body(a, b, c)
			return nil
		},
	}
}

// System4 builds a System around a body that needs four views.
func System4[A, B, C, D Releaser](
	name string,
	acquireA func(*StorageRegistry, ThreadToken) (A, error),
	acquireB func(*StorageRegistry, ThreadToken) (B, error),
	acquireC func(*StorageRegistry, ThreadToken) (C, error),
	acquireD func(*StorageRegistry, ThreadToken) (D, error),
	body func(A, B, C, D),
) System {
	return System{
		Name:      name,
		borrowSet: newBorrowSet(descriptorOf[A](), descriptorOf[B](), descriptorOf[C](), descriptorOf[D]()),
		run: func(r *StorageRegistry, token ThreadToken) error {
			a, b, c, d, err := Borrow4(
				func() (A, error) { return acquireA(r, token) },
				func() (B, error) { return acquireB(r, token) },
				func() (C, error) { return acquireC(r, token) },
				func() (D, error) { return acquireD(r, token) },
			)
			if err != nil {
				return err
			}
			defer d.Release()
			defer c.Release()
			defer b.Release()
			defer a.Release()
			body(a, b, c, d)
			return nil
		},
	}
}
