package ecsx

import (
	"sync"
)

// registryEntry boxes a component's SparseSet behind the BorrowCell that
// arbitrates access to it.
type registryEntry struct {
	storage Storage
	cell    *BorrowCell
}

// uniqueEntry is a registry entry for a unique (singleton) component slot.
type uniqueEntry struct {
	storage uniqueStorage
	cell    *BorrowCell
}

// StorageRegistry ("AllStorages") owns every component SparseSet and unique
// slot in a World, keyed by StorageID. Structural changes to the registry
// itself (registering a brand-new component type) are guarded by mu; once a
// storage exists, concurrent access to its data is arbitrated by that
// storage's own BorrowCell, not by mu. Grounded on the original's
// AllStorages: a RwLock<HashMap<TypeId, ...>> with a get-or-insert that only
// takes the write lock when the type is actually missing.
type StorageRegistry struct {
	mu         sync.RWMutex
	storages   map[StorageID]*registryEntry
	uniques    map[StorageID]*uniqueEntry
	ownerToken ThreadToken
	clock      Clock

	allStoragesCell *BorrowCell
}

// NewStorageRegistry returns an empty registry whose thread-affine storages
// are confined to owner. The registry's own whole-registry cell (taken by
// DeleteEntity/Strip/Clear and the log-clearing methods) is
// AffinityUnconstrained, so any token may borrow it.
func NewStorageRegistry(owner ThreadToken) *StorageRegistry {
	return &StorageRegistry{
		storages:        make(map[StorageID]*registryEntry),
		uniques:         make(map[StorageID]*uniqueEntry),
		ownerToken:      owner,
		allStoragesCell: NewBorrowCell(AffinityUnconstrained, owner),
	}
}

// Clock returns the registry's tracking clock.
func (r *StorageRegistry) Clock() *Clock {
	return &r.clock
}

// entryFor returns the registry entry for T, creating an empty SparseSet[T]
// on first access, with the ThreadAffinity registered for T (or
// AffinityUnconstrained, the default for ordinary Go component types) and
// Config's default tracking flags.
func entryFor[T any](r *StorageRegistry) *registryEntry {
	id := storageIDFor[T]()

	r.mu.RLock()
	e, ok := r.storages[id]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.storages[id]; ok {
		return e
	}
	set := NewSparseSet[T]()
	set.Track(Config.defaultTracking)
	e = &registryEntry{
		storage: set,
		cell:    NewBorrowCell(affinityFor[T](), r.ownerToken),
	}
	r.storages[id] = e
	return e
}

// peekEntryFor returns the existing registry entry for T without creating
// one, used by read-only paths that must not silently materialize storage
// (e.g. Shared views, per spec's MissingStorageError behavior).
func peekEntryFor[T any](r *StorageRegistry) (*registryEntry, bool) {
	id := storageIDFor[T]()
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.storages[id]
	return e, ok
}

func uniqueEntryFor[T any](r *StorageRegistry, create bool) (*uniqueEntry, bool) {
	id := storageIDFor[T]()
	r.mu.RLock()
	e, ok := r.uniques[id]
	r.mu.RUnlock()
	if ok || !create {
		return e, ok
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.uniques[id]; ok {
		return e, true
	}
	e = &uniqueEntry{
		storage: newUniqueSlot[T](),
		cell:    NewBorrowCell(affinityFor[T](), r.ownerToken),
	}
	r.uniques[id] = e
	return e, true
}

// DeleteEntity removes entity's component from every registered storage.
// This is a structural mutation touching every storage at once, so it
// requires the same whole-registry exclusive access as
// BorrowAllStoragesExclusive, acquired here on token's behalf rather than
// left to the caller's discipline. That cell only conflicts with other
// whole-registry borrows (AllStoragesShared/AllStoragesExclusive and these
// structural methods); per-type views (Shared, Exclusive, UniqueShared,
// UniqueExclusive) do not take it, so a live per-type view does not block
// DeleteEntity.
func (r *StorageRegistry) DeleteEntity(entity EntityID, token ThreadToken) error {
	release, failure, ok := r.allStoragesCell.TryExclusive(token)
	if !ok {
		return BorrowError{Failure: failure}
	}
	defer release()
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.storages {
		e.storage.DeleteEntity(entity)
	}
	return nil
}

// Strip is an alias for DeleteEntity kept for parity with spec terminology:
// it removes every component an entity holds without deleting the entity
// itself from the allocator.
func (r *StorageRegistry) Strip(entity EntityID, token ThreadToken) error {
	return r.DeleteEntity(entity, token)
}

// Clear empties every registered storage, under the same whole-registry
// exclusive access as DeleteEntity.
func (r *StorageRegistry) Clear(token ThreadToken) error {
	release, failure, ok := r.allStoragesCell.TryExclusive(token)
	if !ok {
		return BorrowError{Failure: failure}
	}
	defer release()
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.storages {
		e.storage.Clear()
	}
	for _, e := range r.uniques {
		e.storage.Clear()
	}
	return nil
}

// ClearAllRemovedAndDeleted drops every storage's removal/deletion logs,
// under the same whole-registry exclusive access as DeleteEntity.
func (r *StorageRegistry) ClearAllRemovedAndDeleted(token ThreadToken) error {
	release, failure, ok := r.allStoragesCell.TryExclusive(token)
	if !ok {
		return BorrowError{Failure: failure}
	}
	defer release()
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.storages {
		e.storage.ClearAllRemovedAndDeleted()
	}
	return nil
}

// ClearAllRemovedAndDeletedOlderThan drops log entries older than cutoff
// across every storage, under the same whole-registry exclusive access as
// DeleteEntity.
func (r *StorageRegistry) ClearAllRemovedAndDeletedOlderThan(cutoff Timestamp, token ThreadToken) error {
	release, failure, ok := r.allStoragesCell.TryExclusive(token)
	if !ok {
		return BorrowError{Failure: failure}
	}
	defer release()
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.storages {
		e.storage.ClearAllRemovedAndDeletedOlderThan(cutoff)
	}
	return nil
}

// MemoryUsage sums MemoryUsage across every registered storage.
func (r *StorageRegistry) MemoryUsage() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total uint64
	for _, e := range r.storages {
		total += e.storage.MemoryUsage()
	}
	return total
}

// StorageIDs returns every currently-registered component StorageID, in no
// particular order.
func (r *StorageRegistry) StorageIDs() []StorageID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]StorageID, 0, len(r.storages))
	for id := range r.storages {
		ids = append(ids, id)
	}
	return ids
}
