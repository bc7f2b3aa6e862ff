package ecsx

import "testing"

func TestStorageRegistryStripRemovesComponentsButNotEntity(t *testing.T) {
	token := NewThreadToken()
	r := NewStorageRegistry(token)
	e := NewEntityID(1, 0)
	AddComponentToRegistry(r, e, Position{X: 1})

	if err := r.Strip(e, token); err != nil {
		t.Fatalf("Strip: %v", err)
	}

	set := entryFor[Position](r).storage.(*SparseSet[Position])
	if set.Contains(e) {
		t.Errorf("Strip should remove the entity's components")
	}
}

func TestStorageRegistryClearEmptiesStoragesAndUniques(t *testing.T) {
	token := NewThreadToken()
	r := NewStorageRegistry(token)
	e := NewEntityID(1, 0)
	AddComponentToRegistry(r, e, Position{X: 1})

	uEntry, _ := uniqueEntryFor[Health](r, true)
	uEntry.storage.(*uniqueSlot[Health]).Set(Health{Current: 5, Max: 10})

	if err := r.Clear(token); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	set := entryFor[Position](r).storage.(*SparseSet[Position])
	if set.Len() != 0 {
		t.Errorf("Clear should empty component storages, Len() = %d", set.Len())
	}
	if uEntry.storage.(*uniqueSlot[Health]).IsSet() {
		t.Errorf("Clear should empty unique slots too")
	}
}

func TestStorageRegistryClearAllRemovedAndDeletedOlderThan(t *testing.T) {
	token := NewThreadToken()
	r := NewStorageRegistry(token)
	e := NewEntityID(1, 0)
	AddComponentToRegistry(r, e, Position{X: 1})

	set := entryFor[Position](r).storage.(*SparseSet[Position])
	set.Track(TrackingFlags{Removal: true})
	set.Remove(e, r.Clock())

	cutoff := r.Clock().Current() + 1000
	if err := r.ClearAllRemovedAndDeletedOlderThan(cutoff, token); err != nil {
		t.Fatalf("ClearAllRemovedAndDeletedOlderThan: %v", err)
	}

	if _, err := set.Removed(0); err != nil {
		t.Fatalf("Removed() should still work after clearing: %v", err)
	}
	removed, _ := set.Removed(0)
	if len(removed) != 0 {
		t.Errorf("ClearAllRemovedAndDeletedOlderThan with a future cutoff should drop all log entries, got %v", removed)
	}
}

func TestStorageRegistryMemoryUsageAndStorageIDs(t *testing.T) {
	r := NewStorageRegistry(NewThreadToken())
	if r.MemoryUsage() != 0 {
		t.Fatalf("an empty registry should report zero memory usage")
	}
	if len(r.StorageIDs()) != 0 {
		t.Fatalf("an empty registry should report no storage ids")
	}

	e := NewEntityID(1, 0)
	AddComponentToRegistry(r, e, Position{X: 1})

	if r.MemoryUsage() == 0 {
		t.Errorf("a registry holding data should report non-zero memory usage")
	}
	ids := r.StorageIDs()
	if len(ids) != 1 || ids[0] != storageIDFor[Position]() {
		t.Errorf("StorageIDs() = %v, want [%v]", ids, storageIDFor[Position]())
	}
}

// AddComponentToRegistry is a test helper that inserts a component directly
// through a registry's storage entry, bypassing the World/BorrowCell layer.
func AddComponentToRegistry[T any](r *StorageRegistry, e EntityID, value T) {
	set := entryFor[T](r).storage.(*SparseSet[T])
	set.Insert(e, value, r.Clock())
}
