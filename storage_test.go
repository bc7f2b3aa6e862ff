package ecsx

import "testing"

func TestSparseSetInsertGetRemove(t *testing.T) {
	var clock Clock
	s := NewSparseSet[Position]()

	e1 := NewEntityID(1, 0)
	e2 := NewEntityID(2, 0)

	s.Insert(e1, Position{X: 1, Y: 1}, &clock)
	s.Insert(e2, Position{X: 2, Y: 2}, &clock)

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if !s.Contains(e1) || !s.Contains(e2) {
		t.Fatalf("both entities should be present")
	}

	p1 := s.Get(e1)
	if p1 == nil || p1.X != 1 {
		t.Fatalf("Get(e1) = %v, want {1 1}", p1)
	}

	removed, ok := s.Remove(e1, &clock)
	if !ok || removed.X != 1 {
		t.Fatalf("Remove(e1) = %v, %v", removed, ok)
	}
	if s.Contains(e1) {
		t.Errorf("e1 should be gone after Remove")
	}
	if !s.Contains(e2) {
		t.Errorf("e2 should survive the swap-remove of e1")
	}
	if p2 := s.Get(e2); p2 == nil || p2.X != 2 {
		t.Errorf("e2's data should be intact after swap-remove, got %v", p2)
	}
}

func TestSparseSetStaleGenerationMisses(t *testing.T) {
	var clock Clock
	s := NewSparseSet[Position]()

	e := NewEntityID(3, 0)
	s.Insert(e, Position{X: 9}, &clock)

	stale := NewEntityID(3, 1)
	if s.Contains(stale) {
		t.Errorf("a stale-generation id should not be seen as present")
	}
	if s.Get(stale) != nil {
		t.Errorf("Get with a stale generation should return nil")
	}
}

func TestSparseSetTrackingInsertionAndModification(t *testing.T) {
	var clock Clock
	s := NewSparseSet[Position]()
	s.Track(TrackingFlags{Insertion: true, Modification: true})

	before := clock.Current()
	e := NewEntityID(1, 0)
	s.Insert(e, Position{X: 1}, &clock)

	inserted, err := s.Inserted(before)
	if err != nil {
		t.Fatalf("Inserted() error: %v", err)
	}
	if len(inserted) != 1 || inserted[0] != e {
		t.Fatalf("Inserted() = %v, want [%v]", inserted, e)
	}

	afterInsert := clock.Current()
	s.Insert(e, Position{X: 2}, &clock) // overwrite -> modification, not insertion

	modified, err := s.Modified(afterInsert)
	if err != nil {
		t.Fatalf("Modified() error: %v", err)
	}
	if len(modified) != 1 || modified[0] != e {
		t.Fatalf("Modified() = %v, want [%v]", modified, e)
	}
}

func TestSparseSetTrackingNotEnabledErrors(t *testing.T) {
	s := NewSparseSet[Position]()
	if _, err := s.Inserted(0); err == nil {
		t.Fatalf("Inserted() without tracking enabled should error")
	}
	if _, err := s.Removed(0); err == nil {
		t.Fatalf("Removed() without tracking enabled should error")
	}
}

func TestSparseSetDrainEmptiesSet(t *testing.T) {
	var clock Clock
	s := NewSparseSet[Position]()
	e1, e2 := NewEntityID(1, 0), NewEntityID(2, 0)
	s.Insert(e1, Position{X: 1}, &clock)
	s.Insert(e2, Position{X: 2}, &clock)

	entities, data := s.Drain()
	if len(entities) != 2 || len(data) != 2 {
		t.Fatalf("Drain returned %d entities, %d data", len(entities), len(data))
	}
	if s.Len() != 0 {
		t.Errorf("set should be empty after Drain, Len() = %d", s.Len())
	}
}

func TestStorageRegistryGetOrCreateIsIdempotent(t *testing.T) {
	r := NewStorageRegistry(NewThreadToken())
	e1 := entryFor[Position](r)
	e2 := entryFor[Position](r)
	if e1 != e2 {
		t.Fatalf("entryFor should return the same entry for the same type")
	}
}

func TestBorrowSharedMissingStorageErrors(t *testing.T) {
	r := NewStorageRegistry(NewThreadToken())
	token := NewThreadToken()
	_, err := BorrowShared[Position](r, token)
	if _, ok := err.(MissingStorageError); !ok {
		t.Fatalf("BorrowShared on an untouched type should return MissingStorageError, got %v", err)
	}
}

func TestBorrowExclusiveExcludesSharedAndExclusive(t *testing.T) {
	r := NewStorageRegistry(NewThreadToken())
	token := NewThreadToken()

	excl, err := BorrowExclusive[Position](r, token)
	if err != nil {
		t.Fatalf("first BorrowExclusive should succeed: %v", err)
	}

	if _, err := BorrowShared[Position](r, token); err == nil {
		t.Fatalf("BorrowShared should fail while an exclusive borrow is active")
	}
	if _, err := BorrowExclusive[Position](r, token); err == nil {
		t.Fatalf("second BorrowExclusive should fail while the first is active")
	}

	excl.Release()

	if _, err := BorrowShared[Position](r, token); err != nil {
		t.Fatalf("BorrowShared should succeed after the exclusive borrow is released: %v", err)
	}
}

func TestBorrowSharedStacksAcrossTokens(t *testing.T) {
	r := NewStorageRegistry(NewThreadToken())
	materialize, err := BorrowExclusive[Position](r, NewThreadToken())
	if err != nil {
		t.Fatalf("materializing BorrowExclusive failed: %v", err)
	}
	materialize.Release()

	tokenA := NewThreadToken()
	tokenB := NewThreadToken()

	a, err := BorrowShared[Position](r, tokenA)
	if err != nil {
		t.Fatalf("BorrowShared(tokenA) failed: %v", err)
	}
	defer a.Release()

	b, err := BorrowShared[Position](r, tokenB)
	if err != nil {
		t.Fatalf("BorrowShared(tokenB) should stack on top of an existing shared borrow: %v", err)
	}
	defer b.Release()
}
