package ecsx

// bucketSize is the number of entries in one lazily-allocated page of a
// SparseArray. Chosen, like the original's BUCKET_SIZE, so a page is a
// cache-friendly allocation unit rather than a single index->value slot.
const bucketSize = 64

// SparseArray is a two-level page table mapping an entity index to an
// EntityID. It backs each SparseSet's sparse side: sparse[entity.Index()]
// holds an EntityID whose own Index() field has been repurposed to mean
// "position in the owning SparseSet's dense array", and whose Generation()
// field holds the original entity's generation, so a lookup can detect a
// stale reference without a second table.
//
// A missing bucket reads as absent; buckets are allocated on first write.
type SparseArray struct {
	buckets [][]EntityID
}

// NewSparseArray returns an empty SparseArray.
func NewSparseArray() *SparseArray {
	return &SparseArray{}
}

func bucketOf(index uint32) (bucket, offset uint32) {
	return index / bucketSize, index % bucketSize
}

// Get returns the stored EntityID at index and whether one is present:
// an index whose bucket was never allocated, or whose slot holds
// DeadEntityID (untouched or deleted), reads as (DeadEntityID, false). The
// caller still must check the returned generation.
func (s *SparseArray) Get(index uint32) (EntityID, bool) {
	b, off := bucketOf(index)
	if int(b) >= len(s.buckets) || s.buckets[b] == nil {
		return DeadEntityID, false
	}
	v := s.buckets[b][off]
	if v == DeadEntityID {
		return DeadEntityID, false
	}
	return v, true
}

// Set writes value at index, allocating a bucket if necessary.
func (s *SparseArray) Set(index uint32, value EntityID) {
	b, off := bucketOf(index)
	s.ensureBucket(b)
	s.buckets[b][off] = value
}

// Delete marks index as absent (writes the dead sentinel). A no-op if the
// bucket was never allocated.
func (s *SparseArray) Delete(index uint32) {
	b, off := bucketOf(index)
	if int(b) < len(s.buckets) && s.buckets[b] != nil {
		s.buckets[b][off] = DeadEntityID
	}
}

func (s *SparseArray) ensureBucket(b uint32) {
	for uint32(len(s.buckets)) <= b {
		s.buckets = append(s.buckets, nil)
	}
	if s.buckets[b] == nil {
		page := make([]EntityID, bucketSize)
		for i := range page {
			page[i] = DeadEntityID
		}
		s.buckets[b] = page
	}
}

// ReservedMemoryBytes estimates the total bytes allocated by the array's
// pages, used by SparseSet.MemoryUsage.
func (s *SparseArray) ReservedMemoryBytes() uint64 {
	allocated := 0
	for _, page := range s.buckets {
		if page != nil {
			allocated++
		}
	}
	return uint64(allocated) * bucketSize * 8
}
