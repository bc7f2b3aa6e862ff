package ecsx

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Batch is a group of Systems the scheduler has determined can run
// concurrently: their borrow sets are pairwise disjoint. A Batch with a
// single Serial-marked System instead runs on the calling goroutine, under
// the registry's owner ThreadToken, so thread-affine storages see the same
// lane every time.
type Batch struct {
	Systems []System
	serial  bool
}

// planBatches greedily packs systems, in declaration order, into consecutive
// batches whose members have pairwise-disjoint borrow sets: each system
// joins the current batch unless it conflicts with it, in which case a new
// batch starts. A serial system
// always starts (and ends) its own batch, matching spec's rule that
// thread-affine work never gets parallelized alongside anything else.
// Grounded on the scheduling sketch in SPEC_FULL.md §5.1; the greedy
// bin-packing strategy itself mirrors how the teacher's archetype masks are
// walked linearly rather than optimally partitioned.
func planBatches(systems []System) []Batch {
	var batches []Batch
	var pending []System
	var pendingSet BorrowSet

	flush := func() {
		if len(pending) > 0 {
			batches = append(batches, Batch{Systems: pending})
			pending = nil
			pendingSet = BorrowSet{}
		}
	}

	for _, s := range systems {
		if s.serial {
			flush()
			batches = append(batches, Batch{Systems: []System{s}, serial: true})
			continue
		}
		if len(pending) > 0 && pendingSet.ConflictsWith(s.borrowSet) {
			flush()
		}
		pending = append(pending, s)
		pendingSet = mergeBorrowSets(pendingSet, s.borrowSet)
	}
	flush()
	return batches
}

func mergeBorrowSets(a, b BorrowSet) BorrowSet {
	return newBorrowSet(append(append([]BorrowDescriptor{}, a.descriptors...), b.descriptors...)...)
}

// runBatches executes batches in order, parallelizing within a batch via
// errgroup and joining (a hard barrier) before moving to the next batch, so
// no system in batch N+1 ever observes a partially-applied batch N.
func runBatches(ctx context.Context, r *StorageRegistry, ownerToken ThreadToken, batches []Batch) error {
	for _, batch := range batches {
		if batch.serial {
			if err := batch.Systems[0].run(r, ownerToken); err != nil {
				return err
			}
			continue
		}
		if len(batch.Systems) == 1 {
			if err := batch.Systems[0].run(r, NewThreadToken()); err != nil {
				return err
			}
			continue
		}
		// errgroup.Wait() returns whichever goroutine's error its internal
		// sync.Once records first, i.e. completion order, not system
		// declaration order. Each goroutine instead records its own result
		// into a preallocated by-index slot, so the batch's reported error
		// is deterministically the earliest-declared system that failed.
		errs := make([]error, len(batch.Systems))
		group, gctx := errgroup.WithContext(ctx)
		_ = gctx
		for i, system := range batch.Systems {
			i, system := i, system
			token := NewThreadToken()
			group.Go(func() error {
				errs[i] = system.run(r, token)
				return nil
			})
		}
		_ = group.Wait()
		for _, err := range errs {
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// MarkSerial returns a copy of s flagged to always run alone, on the
// registry owner's thread token. Use it for systems whose component types
// are confined to the owning lane (AffinityOwnerOnly/AffinityOwnerShared)
// or that must run on the main goroutine for an external reason (e.g. a
// windowing/render call).
func (s System) MarkSerial() System {
	s.serial = true
	return s
}
