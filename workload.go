package ecsx

import "context"

// Workload is a named, pre-compiled group of Systems. Compilation runs
// planBatches once at RegisterWorkload time rather than on every Run, since
// a Workload's membership is fixed after registration.
type Workload struct {
	Name    string
	Systems []System
	batches []Batch
}

func compileWorkload(name string, systems []System) Workload {
	return Workload{Name: name, Systems: systems, batches: planBatches(systems)}
}

// workloadRegistry holds every Workload a World knows about, plus which one
// is the default (run by RunDefault). Built on Cache[Workload], the same
// fixed-capacity named-registry shape the rest of the ambient stack uses
// for workload-like collections.
type workloadRegistry struct {
	cache       Cache[Workload]
	defaultName string
}

const maxWorkloadsPerWorld = 256

func newWorkloadRegistry() *workloadRegistry {
	return &workloadRegistry{cache: FactoryNewCache[Workload](maxWorkloadsPerWorld)}
}

func (wr *workloadRegistry) register(name string, systems []System) {
	wr.cache.Register(name, compileWorkload(name, systems))
	if wr.defaultName == "" {
		wr.defaultName = name
	}
}

func (wr *workloadRegistry) setDefault(name string) error {
	if _, ok := wr.cache.GetIndex(name); !ok {
		return UnknownWorkloadError{Name: name}
	}
	wr.defaultName = name
	return nil
}

func (wr *workloadRegistry) rename(oldName, newName string) error {
	idx, ok := wr.cache.GetIndex(oldName)
	if !ok {
		return UnknownWorkloadError{Name: oldName}
	}
	w := *wr.cache.GetItem(idx)
	w.Name = newName
	wr.cache.Register(newName, w)
	if newName != oldName {
		delete(wr.cache.(*SimpleCache[Workload]).itemIndices, oldName)
	}
	if wr.defaultName == oldName {
		wr.defaultName = newName
	}
	return nil
}

func (wr *workloadRegistry) contains(name string) bool {
	_, ok := wr.cache.GetIndex(name)
	return ok
}

func (wr *workloadRegistry) get(name string) (Workload, error) {
	idx, ok := wr.cache.GetIndex(name)
	if !ok {
		return Workload{}, UnknownWorkloadError{Name: name}
	}
	return *wr.cache.GetItem(idx), nil
}

func (wr *workloadRegistry) run(ctx context.Context, r *StorageRegistry, ownerToken ThreadToken, name string) error {
	w, err := wr.get(name)
	if err != nil {
		return err
	}
	return runBatches(ctx, r, ownerToken, w.batches)
}

func (wr *workloadRegistry) runDefault(ctx context.Context, r *StorageRegistry, ownerToken ThreadToken) error {
	if wr.defaultName == "" {
		return UnknownWorkloadError{Name: "<default>"}
	}
	return wr.run(ctx, r, ownerToken, wr.defaultName)
}
