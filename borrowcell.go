package ecsx

import (
	"sync/atomic"

	"github.com/TheBitDrifter/bark"
)

// ThreadToken identifies a logical execution lane for the purpose of
// thread-affinity checks. Go has no portable notion of "the current OS
// thread" (goroutines migrate freely), so instead of trying to recover one,
// the scheduler hands out an explicit token per lane: the World's owning
// caller gets one fixed token, and each goroutine a parallel workload batch
// dispatches onto gets a fresh one for the duration of that batch. A
// BorrowCell created with an owner token only honors borrows presented with
// that same token.
type ThreadToken uint64

var threadTokenCounter atomic.Uint64

// NewThreadToken mints a fresh, process-unique ThreadToken.
func NewThreadToken() ThreadToken {
	return ThreadToken(threadTokenCounter.Add(1))
}

// ThreadAffinity classifies a storage's payload by its Send/Sync-equivalent
// properties, per spec §4.1's table.
type ThreadAffinity int

const (
	// AffinityUnconstrained: sendable and shareable. Shared borrows stack
	// from any lane; exclusive excludes all.
	AffinityUnconstrained ThreadAffinity = iota
	// AffinityAtMostOne: sendable but not shareable. At most one borrow
	// (shared or exclusive) may be active at a time, from any lane.
	AffinityAtMostOne
	// AffinityOwnerShared: not sendable but shareable. Exclusive borrows
	// are confined to the owning lane; shared borrows are allowed from any
	// lane and stack.
	AffinityOwnerShared
	// AffinityOwnerOnly: neither sendable nor shareable. Every borrow,
	// shared or exclusive, is confined to the owning lane.
	AffinityOwnerOnly
)

func (a ThreadAffinity) hasOwner() bool {
	return a == AffinityOwnerShared || a == AffinityOwnerOnly
}

func (a ThreadAffinity) isSync() bool {
	return a == AffinityUnconstrained || a == AffinityOwnerShared
}

// BorrowFailure enumerates why a borrow attempt was refused.
type BorrowFailure int

const (
	// FailureShared: an exclusive borrow is already active.
	FailureShared BorrowFailure = iota
	// FailureUnique: a request for exclusive access found any borrow
	// (shared or exclusive) already active.
	FailureUnique
	// FailureWrongThread: the cell has an owner lane and the request came
	// from a different one.
	FailureWrongThread
	// FailureMultipleThreads: an AffinityAtMostOne cell already has a
	// borrow active, from any lane.
	FailureMultipleThreads
)

func (f BorrowFailure) String() string {
	switch f {
	case FailureShared:
		return "shared borrow unavailable: exclusive borrow active"
	case FailureUnique:
		return "exclusive borrow unavailable: a borrow is active"
	case FailureWrongThread:
		return "borrow confined to its owning thread token"
	case FailureMultipleThreads:
		return "storage accessible from only one thread token at a time"
	default:
		return "unknown borrow failure"
	}
}

// highBit marks a BorrowCell's state word as exclusively held; any non-zero
// value below it is a count of live shared borrows.
const highBit uint64 = 1 << 63

// maxFailedBorrows bounds how far the shared counter may climb past highBit
// due to racing failed attempts before a failed shared attempt panics
// instead of undoing its increment, rather than risking counter corruption.
const maxFailedBorrows uint64 = highBit + highBit/2

// BorrowCell is a wait-free shared-xor-exclusive guard. It never blocks: a
// conflicting request returns a BorrowFailure immediately. See spec §4.1.
type BorrowCell struct {
	state    atomic.Uint64
	affinity ThreadAffinity
	owner    ThreadToken
}

// NewBorrowCell constructs a cell with the given affinity. owner is only
// consulted when affinity has an owner lane (AffinityOwnerShared or
// AffinityOwnerOnly).
func NewBorrowCell(affinity ThreadAffinity, owner ThreadToken) *BorrowCell {
	return &BorrowCell{affinity: affinity, owner: owner}
}

// TryShared attempts a shared borrow on behalf of token, returning a release
// function on success.
func (c *BorrowCell) TryShared(token ThreadToken) (release func(), failure BorrowFailure, ok bool) {
	if c.affinity.hasOwner() && !c.affinity.isSync() {
		if token != c.owner {
			return nil, FailureWrongThread, false
		}
		return c.fetchAddShared()
	}
	if c.affinity.hasOwner() && c.affinity.isSync() {
		return c.fetchAddShared()
	}
	if !c.affinity.isSync() {
		// AffinityAtMostOne: no owner, not shareable across lanes.
		if c.state.CompareAndSwap(0, 1) {
			return c.release(false), 0, true
		}
		return nil, FailureMultipleThreads, false
	}
	return c.fetchAddShared()
}

func (c *BorrowCell) fetchAddShared() (func(), BorrowFailure, bool) {
	newState := c.state.Add(1)
	if newState&highBit == 0 {
		return c.release(false), 0, true
	}
	return nil, c.recoverFromFailedShared(newState), false
}

// recoverFromFailedShared walks back a failed fetch_add, mirroring the
// original AtomicRefCell's try_recover: a shared increment that collided
// with an active exclusive borrow (or, pathologically, wrapped into the
// high bit on its own) must be undone before the caller can retry.
func (c *BorrowCell) recoverFromFailedShared(newState uint64) BorrowFailure {
	if newState == highBit {
		c.state.Add(^uint64(0)) // fetch_sub(1)
		panic(bark.AddTrace(errTooManySharedBorrows))
	}
	if newState >= maxFailedBorrows {
		panic(bark.AddTrace(errTooManyFailedBorrows))
	}
	c.state.CompareAndSwap(newState, newState-1)
	return FailureShared
}

// TryExclusive attempts an exclusive borrow on behalf of token.
func (c *BorrowCell) TryExclusive(token ThreadToken) (release func(), failure BorrowFailure, ok bool) {
	if c.affinity.hasOwner() && token != c.owner {
		return nil, FailureWrongThread, false
	}
	if c.state.CompareAndSwap(0, highBit) {
		return c.release(true), 0, true
	}
	return nil, FailureUnique, false
}

func (c *BorrowCell) release(exclusive bool) func() {
	var once bool
	return func() {
		if once {
			return
		}
		once = true
		if exclusive {
			c.state.Store(0)
		} else {
			c.state.Add(^uint64(0)) // fetch_sub(1)
		}
	}
}

// IsIdle reports whether the cell currently has zero live borrows. Intended
// for tests and MemoryUsage-style diagnostics, not for synchronization.
func (c *BorrowCell) IsIdle() bool {
	return c.state.Load() == 0
}
