package ecsx

import "testing"

func TestBorrowCellUnconstrainedSharedStacksExclusiveExcludes(t *testing.T) {
	c := NewBorrowCell(AffinityUnconstrained, NewThreadToken())
	tokenA := NewThreadToken()
	tokenB := NewThreadToken()

	relA, _, ok := c.TryShared(tokenA)
	if !ok {
		t.Fatalf("first shared borrow should succeed")
	}
	relB, _, ok := c.TryShared(tokenB)
	if !ok {
		t.Fatalf("second shared borrow from a different token should stack")
	}

	if _, _, ok := c.TryExclusive(tokenA); ok {
		t.Fatalf("exclusive borrow should fail while shared borrows are active")
	}

	relA()
	relB()

	relEx, _, ok := c.TryExclusive(tokenA)
	if !ok {
		t.Fatalf("exclusive borrow should succeed once all shared borrows release")
	}
	relEx()
	if !c.IsIdle() {
		t.Errorf("cell should be idle after releasing the exclusive borrow")
	}
}

func TestBorrowCellAtMostOneAllowsOnlyOneBorrowAtATime(t *testing.T) {
	c := NewBorrowCell(AffinityAtMostOne, 0)
	tokenA := NewThreadToken()
	tokenB := NewThreadToken()

	rel, _, ok := c.TryShared(tokenA)
	if !ok {
		t.Fatalf("first borrow on an AtMostOne cell should succeed")
	}
	if _, failure, ok := c.TryShared(tokenB); ok || failure != FailureMultipleThreads {
		t.Fatalf("a second concurrent borrow should fail with FailureMultipleThreads, got ok=%v failure=%v", ok, failure)
	}
	rel()

	rel2, _, ok := c.TryShared(tokenB)
	if !ok {
		t.Fatalf("borrow should succeed once the first is released")
	}
	rel2()
}

func TestBorrowCellOwnerOnlyRejectsOtherTokens(t *testing.T) {
	owner := NewThreadToken()
	other := NewThreadToken()
	c := NewBorrowCell(AffinityOwnerOnly, owner)

	if _, failure, ok := c.TryShared(other); ok || failure != FailureWrongThread {
		t.Fatalf("a non-owner token should be rejected with FailureWrongThread, got ok=%v failure=%v", ok, failure)
	}
	rel, _, ok := c.TryShared(owner)
	if !ok {
		t.Fatalf("the owner token should be allowed to borrow")
	}
	rel()

	if _, failure, ok := c.TryExclusive(other); ok || failure != FailureWrongThread {
		t.Fatalf("exclusive borrow from a non-owner token should also be rejected, got ok=%v failure=%v", ok, failure)
	}
}

func TestBorrowCellOwnerSharedAllowsSharedFromAnyThread(t *testing.T) {
	owner := NewThreadToken()
	other := NewThreadToken()
	c := NewBorrowCell(AffinityOwnerShared, owner)

	relOwner, _, ok := c.TryShared(owner)
	if !ok {
		t.Fatalf("owner shared borrow should succeed")
	}
	relOther, _, ok := c.TryShared(other)
	if !ok {
		t.Fatalf("AffinityOwnerShared should allow shared borrows from any token")
	}
	relOwner()
	relOther()

	if _, failure, ok := c.TryExclusive(other); ok || failure != FailureWrongThread {
		t.Fatalf("exclusive borrow from a non-owner token should be rejected even under AffinityOwnerShared, got ok=%v failure=%v", ok, failure)
	}
}
