package ecsx

// entityAllocator hands out and recycles generational EntityIDs. Freeing a
// slot bumps its generation, so any EntityID still referencing the old
// occupant reads as dead, and puts its index on a free list for reuse. Grounded on the original's EntitiesView::generate /
// delete, adapted to an explicit recycling free list rather than the
// original's bitset-scanning.
type entityAllocator struct {
	generations []uint32
	alive       []bool
	freeList    []uint32
}

func newEntityAllocator() *entityAllocator {
	return &entityAllocator{}
}

// Generate allocates a fresh EntityID, recycling a freed slot if one
// exists. Named after the original's EntitiesView::generate, kept distinct
// from Spawn, which forces a caller-chosen id alive instead of minting one.
func (a *entityAllocator) Generate() EntityID {
	if n := len(a.freeList); n > 0 {
		index := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.alive[index] = true
		return NewEntityID(index, a.generations[index])
	}
	index := uint32(len(a.generations))
	a.generations = append(a.generations, 0)
	a.alive = append(a.alive, true)
	return NewEntityID(index, 0)
}

// BulkGenerate allocates n fresh EntityIDs, preferring recycled slots before
// growing the backing arrays.
func (a *entityAllocator) BulkGenerate(n int) []EntityID {
	out := make([]EntityID, n)
	for i := range out {
		out[i] = a.Generate()
	}
	return out
}

// Spawn forces id alive, growing the backing arrays to accommodate an index
// never seen before. It succeeds (returning true) whenever the slot's
// current generation is less than or equal to id's generation, bumping the
// slot to id's generation and marking it alive (unreserving it from the
// free list if it was on one); otherwise id names a generation the
// allocator has already moved past, and Spawn is a no-op returning false.
func (a *entityAllocator) Spawn(id EntityID) bool {
	idx := id.Index()
	for int(idx) >= len(a.generations) {
		a.generations = append(a.generations, 0)
		a.alive = append(a.alive, false)
	}
	if a.generations[idx] > id.Generation() {
		return false
	}
	if a.generations[idx] != id.Generation() {
		a.generations[idx] = id.Generation()
	}
	if !a.alive[idx] {
		a.alive[idx] = true
		a.removeFromFreeList(idx)
	}
	return true
}

func (a *entityAllocator) removeFromFreeList(idx uint32) {
	for i, v := range a.freeList {
		if v == idx {
			a.freeList[i] = a.freeList[len(a.freeList)-1]
			a.freeList = a.freeList[:len(a.freeList)-1]
			return
		}
	}
}

// IsAlive reports whether entity's index is currently occupied by an entity
// of exactly entity's generation.
func (a *entityAllocator) IsAlive(entity EntityID) bool {
	idx := entity.Index()
	if int(idx) >= len(a.alive) {
		return false
	}
	return a.alive[idx] && a.generations[idx] == entity.Generation()
}

// Delete frees entity's slot, bumping its generation so stale copies of the
// id read as dead, and returns whether the entity was alive beforehand.
func (a *entityAllocator) Delete(entity EntityID) bool {
	if !a.IsAlive(entity) {
		return false
	}
	idx := entity.Index()
	a.alive[idx] = false
	a.generations[idx]++
	a.freeList = append(a.freeList, idx)
	return true
}

// Len returns the number of currently-alive entities.
func (a *entityAllocator) Len() int {
	n := 0
	for _, alive := range a.alive {
		if alive {
			n++
		}
	}
	return n
}
