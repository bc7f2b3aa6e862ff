package ecsx

import "testing"

type movableTag struct{ Value int }

type ownedTag struct{ Value int }

func TestRegisterMovableRejectsOwnerConfinedAffinity(t *testing.T) {
	RegisterComponentAffinity[ownedTag](AffinityOwnerOnly)

	err := RegisterMovable[ownedTag]()
	if err == nil {
		t.Fatalf("RegisterMovable should reject a type with owner-confined affinity")
	}
	if _, ok := err.(NonTransferableComponentError); !ok {
		t.Fatalf("expected NonTransferableComponentError, got %T: %v", err, err)
	}
}

func TestMoveEntityMovesRegisteredComponents(t *testing.T) {
	if err := RegisterMovable[movableTag](); err != nil {
		t.Fatalf("RegisterMovable: %v", err)
	}

	src := NewStorageRegistry(NewThreadToken())
	dst := NewStorageRegistry(NewThreadToken())

	from := NewEntityID(1, 0)
	to := NewEntityID(1, 0)

	srcToken := NewThreadToken()
	excl, err := BorrowExclusive[movableTag](src, srcToken)
	if err != nil {
		t.Fatalf("BorrowExclusive on src: %v", err)
	}
	excl.Insert(from, movableTag{Value: 42})
	excl.Release()

	if err := MoveEntity(src, dst, from, to); err != nil {
		t.Fatalf("MoveEntity: %v", err)
	}

	dstToken := NewThreadToken()
	dstView, err := BorrowExclusive[movableTag](dst, dstToken)
	if err != nil {
		t.Fatalf("BorrowExclusive on dst: %v", err)
	}
	defer dstView.Release()

	got := dstView.Get(to)
	if got == nil || got.Value != 42 {
		t.Fatalf("dst should hold the moved component, got %v", got)
	}

	srcView, err := BorrowExclusive[movableTag](src, srcToken)
	if err != nil {
		t.Fatalf("BorrowExclusive on src after move: %v", err)
	}
	defer srcView.Release()
	if srcView.Contains(from) {
		t.Errorf("src should no longer hold the component after it was moved")
	}
}

func TestMoveEntityRejectsIdenticalEntities(t *testing.T) {
	r := NewStorageRegistry(NewThreadToken())
	e := NewEntityID(1, 0)

	err := MoveEntity(r, r, e, e)
	if err == nil {
		t.Fatalf("MoveEntity with identical src/dst registry and entity should error")
	}
	if _, ok := err.(IdenticalEntitiesError); !ok {
		t.Fatalf("expected IdenticalEntitiesError, got %T: %v", err, err)
	}
}
