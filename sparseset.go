package ecsx

import (
	"iter"
	"sort"
	"unsafe"

	"github.com/TheBitDrifter/bark"
)

// removalLogEntry records that entity's component was taken out of a
// SparseSet via Remove at tick. Kept separately from the dense array since,
// by definition, the component no longer has a dense slot by the time
// anyone asks about it. Remove returns the component directly to its
// caller, so the log only needs to record that it happened, not the value.
type removalLogEntry struct {
	entity EntityID
	tick   Timestamp
}

// deletionLogEntry records a Delete: unlike Remove, Delete discards the
// component rather than returning it to an immediate caller, so the value
// itself must be retained in the log for later inspection via Deleted.
type deletionLogEntry[T any] struct {
	entity EntityID
	tick   Timestamp
	value  T
}

// TrackingFlags selects which change-tracking logs a SparseSet maintains.
// Tracking is opt-in per spec §4.2: an untouched SparseSet pays no
// bookkeeping cost.
type TrackingFlags struct {
	Insertion   bool
	Modification bool
	Removal     bool
	Deletion    bool
}

// SparseSet is a dense/sparse component store for a single component type
// T. Insert/Remove/Contains/Get are O(1); iteration walks the dense slice
// directly. Grounded on the original AtomicRefCell-guarded sparse set's
// dense/sparse/data triple.
type SparseSet[T any] struct {
	id     StorageID
	dense  []EntityID
	data   []T
	sparse *SparseArray

	tracking TrackingFlags

	insertionTicks   []Timestamp // parallel to dense/data
	modificationTicks []Timestamp // parallel to dense/data

	removalLog []removalLogEntry
	deletionLog []deletionLogEntry[T]
}

// NewSparseSet returns an empty SparseSet[T] with tracking disabled.
func NewSparseSet[T any]() *SparseSet[T] {
	return &SparseSet[T]{id: storageIDFor[T](), sparse: NewSparseArray()}
}

// Track enables the given tracking flags. Flags already enabled are left
// untouched; this never clears existing log data.
func (s *SparseSet[T]) Track(flags TrackingFlags) {
	if flags.Insertion && !s.tracking.Insertion {
		s.insertionTicks = make([]Timestamp, len(s.dense))
	}
	if flags.Modification && !s.tracking.Modification {
		s.modificationTicks = make([]Timestamp, len(s.dense))
	}
	s.tracking.Insertion = s.tracking.Insertion || flags.Insertion
	s.tracking.Modification = s.tracking.Modification || flags.Modification
	s.tracking.Removal = s.tracking.Removal || flags.Removal
	s.tracking.Deletion = s.tracking.Deletion || flags.Deletion
}

// IsTracking reports the set's current tracking configuration.
func (s *SparseSet[T]) IsTracking() TrackingFlags {
	return s.tracking
}

// Len returns the number of live components.
func (s *SparseSet[T]) Len() int {
	return len(s.dense)
}

// Contains reports whether entity currently holds a component here.
func (s *SparseSet[T]) Contains(entity EntityID) bool {
	_, ok := s.indexOf(entity)
	return ok
}

func (s *SparseSet[T]) indexOf(entity EntityID) (int, bool) {
	slot, ok := s.sparse.Get(entity.Index())
	if !ok {
		return 0, false
	}
	if slot.Generation() != entity.Generation() {
		return 0, false
	}
	return int(slot.Index()), true
}

// Get returns a pointer to entity's component, or nil if absent. The
// pointer aliases the dense array's backing storage and is invalidated by
// any subsequent Insert/Remove/Delete/Drain/Clear/sort on this set.
func (s *SparseSet[T]) Get(entity EntityID) *T {
	i, ok := s.indexOf(entity)
	if !ok {
		return nil
	}
	return &s.data[i]
}

// GetMut returns a pointer to entity's component like Get, additionally
// stamping a modification tick if modification tracking is enabled.
func (s *SparseSet[T]) GetMut(entity EntityID, clock *Clock) *T {
	i, ok := s.indexOf(entity)
	if !ok {
		return nil
	}
	if s.tracking.Modification {
		s.modificationTicks[i] = clock.Tick()
	}
	return &s.data[i]
}

// Insert adds or overwrites entity's component with value, stamping an
// insertion tick if insertion tracking is enabled. Overwriting an existing
// component stamps a modification tick instead, matching the original's
// distinction between a true insert and an update-in-place.
func (s *SparseSet[T]) Insert(entity EntityID, value T, clock *Clock) {
	if i, ok := s.indexOf(entity); ok {
		s.data[i] = value
		if s.tracking.Modification {
			s.modificationTicks[i] = clock.Tick()
		}
		return
	}
	i := len(s.dense)
	s.dense = append(s.dense, entity)
	s.data = append(s.data, value)
	s.sparse.Set(entity.Index(), entity.WithIndex(uint32(i)))
	if s.tracking.Insertion {
		s.insertionTicks = append(s.insertionTicks, clock.Tick())
	}
	if s.tracking.Modification {
		s.modificationTicks = append(s.modificationTicks, 0)
	}
}

// Remove deletes entity's component and returns it, reporting whether it
// was present. Swap-removes the dense slot to keep the dense array
// contiguous, then fixes up the sparse entry of the element that was moved
// into the vacated slot.
func (s *SparseSet[T]) Remove(entity EntityID, clock *Clock) (T, bool) {
	var zero T
	i, ok := s.indexOf(entity)
	if !ok {
		return zero, false
	}
	value := s.data[i]
	s.swapRemove(i)
	s.sparse.Delete(entity.Index())
	if s.tracking.Removal {
		s.removalLog = append(s.removalLog, removalLogEntry{entity: entity, tick: clock.Tick()})
	}
	return value, true
}

// Delete is Remove's counterpart for components the caller is discarding
// rather than taking ownership of; the extracted value is retained in the
// deletion log (rather than returned) so trackers can distinguish "entity
// lost this component because something explicitly took it" from "entity
// (or the component) was deleted outright" while still being able to
// inspect what was lost.
func (s *SparseSet[T]) Delete(entity EntityID, clock *Clock) bool {
	i, ok := s.indexOf(entity)
	if !ok {
		return false
	}
	value := s.data[i]
	s.swapRemove(i)
	s.sparse.Delete(entity.Index())
	if s.tracking.Deletion {
		s.deletionLog = append(s.deletionLog, deletionLogEntry[T]{entity: entity, tick: clock.Tick(), value: value})
	}
	return true
}

// DeleteEntity implements Storage for the registry's type-erased view; it is
// Delete without a *Clock, so when deletion tracking is on the logged entry
// carries a zero tick.
func (s *SparseSet[T]) DeleteEntity(entity EntityID) bool {
	i, ok := s.indexOf(entity)
	if !ok {
		return false
	}
	value := s.data[i]
	s.swapRemove(i)
	s.sparse.Delete(entity.Index())
	if s.tracking.Deletion {
		s.deletionLog = append(s.deletionLog, deletionLogEntry[T]{entity: entity, value: value})
	}
	return true
}

func (s *SparseSet[T]) swapRemove(i int) {
	last := len(s.dense) - 1
	movedEntity := s.dense[last]

	s.dense[i] = s.dense[last]
	s.data[i] = s.data[last]
	var zeroT T
	s.data[last] = zeroT
	s.dense = s.dense[:last]
	s.data = s.data[:last]

	if s.tracking.Insertion && len(s.insertionTicks) > 0 {
		s.insertionTicks[i] = s.insertionTicks[last]
		s.insertionTicks = s.insertionTicks[:last]
	}
	if s.tracking.Modification && len(s.modificationTicks) > 0 {
		s.modificationTicks[i] = s.modificationTicks[last]
		s.modificationTicks = s.modificationTicks[:last]
	}

	if i != last {
		s.sparse.Set(movedEntity.Index(), movedEntity.WithIndex(uint32(i)))
	}
}

// Clear empties the set without touching any entity's liveness.
func (s *SparseSet[T]) Clear() {
	s.dense = nil
	s.data = nil
	s.sparse = NewSparseArray()
	s.insertionTicks = nil
	s.modificationTicks = nil
}

// ClearAllRemovedAndDeleted drops every removal and deletion log entry.
func (s *SparseSet[T]) ClearAllRemovedAndDeleted() {
	s.removalLog = nil
	s.deletionLog = nil
}

// ClearAllRemovedAndDeletedOlderThan drops removal/deletion log entries
// stamped strictly before cutoff, using wraparound-safe comparison.
func (s *SparseSet[T]) ClearAllRemovedAndDeletedOlderThan(cutoff Timestamp) {
	s.removalLog = filterRemovalYoungerThan(s.removalLog, cutoff)
	s.deletionLog = filterDeletionYoungerThan(s.deletionLog, cutoff)
}

func filterRemovalYoungerThan(log []removalLogEntry, cutoff Timestamp) []removalLogEntry {
	kept := log[:0]
	for _, e := range log {
		if isYoungerThan(cutoff, e.tick) {
			kept = append(kept, e)
		}
	}
	return kept
}

func filterDeletionYoungerThan[T any](log []deletionLogEntry[T], cutoff Timestamp) []deletionLogEntry[T] {
	kept := log[:0]
	for _, e := range log {
		if isYoungerThan(cutoff, e.tick) {
			kept = append(kept, e)
		}
	}
	return kept
}

// Inserted returns the entities whose component was stamped with an
// insertion tick at or after since. Requires insertion tracking.
func (s *SparseSet[T]) Inserted(since Timestamp) ([]EntityID, error) {
	if !s.tracking.Insertion {
		return nil, TrackingNotEnabledError{StorageID: s.id, Kind: "insertion"}
	}
	var out []EntityID
	for i, tick := range s.insertionTicks {
		if isYoungerThan(since, tick) {
			out = append(out, s.dense[i])
		}
	}
	return out, nil
}

// Modified returns the entities whose component was stamped with a
// modification tick at or after since. Requires modification tracking.
func (s *SparseSet[T]) Modified(since Timestamp) ([]EntityID, error) {
	if !s.tracking.Modification {
		return nil, TrackingNotEnabledError{StorageID: s.id, Kind: "modification"}
	}
	var out []EntityID
	for i, tick := range s.modificationTicks {
		if isYoungerThan(since, tick) {
			out = append(out, s.dense[i])
		}
	}
	return out, nil
}

// Removed returns the entities logged as having had a component taken via
// Remove at or after since. Requires removal tracking.
func (s *SparseSet[T]) Removed(since Timestamp) ([]EntityID, error) {
	if !s.tracking.Removal {
		return nil, TrackingNotEnabledError{StorageID: s.id, Kind: "removal"}
	}
	var out []EntityID
	for _, e := range s.removalLog {
		if isYoungerThan(since, e.tick) {
			out = append(out, e.entity)
		}
	}
	return out, nil
}

// Deleted returns the entities and component values logged as having been
// discarded via Delete at or after since, paired by index. Requires
// deletion tracking. Unlike Removed, the component value is recoverable
// here because Delete never hands it back to its caller.
func (s *SparseSet[T]) Deleted(since Timestamp) ([]EntityID, []T, error) {
	if !s.tracking.Deletion {
		return nil, nil, TrackingNotEnabledError{StorageID: s.id, Kind: "deletion"}
	}
	var entities []EntityID
	var values []T
	for _, e := range s.deletionLog {
		if isYoungerThan(since, e.tick) {
			entities = append(entities, e.entity)
			values = append(values, e.value)
		}
	}
	return entities, values, nil
}

// AsSlice returns the dense component slice directly, for callers that want
// bulk access without per-entity overhead (e.g. a physics system operating
// on every body uniformly). The slice aliases internal storage and is
// invalidated by the next structural mutation.
func (s *SparseSet[T]) AsSlice() []T {
	return s.data
}

// Entities returns the dense entity slice in the same order as AsSlice.
func (s *SparseSet[T]) Entities() []EntityID {
	return s.dense
}

// All returns an iterator over (entity, *component) pairs in dense order,
// using Go's range-over-func iterators.
func (s *SparseSet[T]) All() iter.Seq2[EntityID, *T] {
	return func(yield func(EntityID, *T) bool) {
		for i := range s.dense {
			if !yield(s.dense[i], &s.data[i]) {
				return
			}
		}
	}
}

// Apply calls f with entity a's component and entity b's component, without
// copying either out, mirroring the original's apply for cross-entity reads
// (e.g. computing a delta between two positions). Panics if a and b name the
// same entity, since f's two parameters would otherwise silently alias the
// same slot.
func (s *SparseSet[T]) Apply(a, b EntityID, f func(a, b *T)) bool {
	if a == b {
		panic(bark.AddTrace(IdenticalEntitiesError{Entity: a}))
	}
	ia, ok := s.indexOf(a)
	if !ok {
		return false
	}
	ib, ok := s.indexOf(b)
	if !ok {
		return false
	}
	f(&s.data[ia], &s.data[ib])
	return true
}

// ApplyMut is Apply for the case where f also needs to swap or combine the
// two components in place (the original's apply_mut).
func (s *SparseSet[T]) ApplyMut(a, b EntityID, f func(a, b *T)) bool {
	return s.Apply(a, b, f)
}

// Drain removes every component from the set and returns the (entity,
// component) pairs that were present, in dense order. The set is empty
// afterward.
func (s *SparseSet[T]) Drain() ([]EntityID, []T) {
	entities, data := s.dense, s.data
	s.dense = nil
	s.data = nil
	s.sparse = NewSparseArray()
	s.insertionTicks = nil
	s.modificationTicks = nil
	return entities, data
}

// SortUnstableBy reorders the dense array using less, then repairs every
// affected sparse entry. Tracking logs are reordered along with the dense
// array so they stay aligned by index. Callers are responsible for not
// holding any Get/GetMut pointers from before the call: see spec §4.2's
// precondition note in SPEC_FULL.md §9.4.
func (s *SparseSet[T]) SortUnstableBy(less func(a, b T) bool) {
	idx := make([]int, len(s.dense))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return less(s.data[idx[i]], s.data[idx[j]])
	})

	newDense := make([]EntityID, len(s.dense))
	newData := make([]T, len(s.data))
	var newIns, newMod []Timestamp
	if s.tracking.Insertion {
		newIns = make([]Timestamp, len(s.insertionTicks))
	}
	if s.tracking.Modification {
		newMod = make([]Timestamp, len(s.modificationTicks))
	}
	for newI, oldI := range idx {
		newDense[newI] = s.dense[oldI]
		newData[newI] = s.data[oldI]
		if s.tracking.Insertion {
			newIns[newI] = s.insertionTicks[oldI]
		}
		if s.tracking.Modification {
			newMod[newI] = s.modificationTicks[oldI]
		}
		s.sparse.Set(s.dense[oldI].Index(), s.dense[oldI].WithIndex(uint32(newI)))
	}
	s.dense = newDense
	s.data = newData
	s.insertionTicks = newIns
	s.modificationTicks = newMod
}

// MemoryUsage estimates the storage's heap footprint in bytes: the dense
// arrays plus the sparse page table's allocated pages.
func (s *SparseSet[T]) MemoryUsage() uint64 {
	var zero T
	elemSize := uint64(unsafe.Sizeof(zero))
	dense := uint64(len(s.dense)) * 8
	data := uint64(len(s.data)) * elemSize
	return dense + data + s.sparse.ReservedMemoryBytes()
}
