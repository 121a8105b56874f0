package runtimeexec

import (
	"context"
	"sync"
)

// DryRunExecutor records submissions without running anything.
type DryRunExecutor struct {
	mu    sync.Mutex
	specs []JobSpec
}

func NewDryRunExecutor() *DryRunExecutor {
	return &DryRunExecutor{}
}

func (e *DryRunExecutor) Kind() string {
	return "dryrun"
}

func (e *DryRunExecutor) Submit(ctx context.Context, spec JobSpec) (Observation, error) {
	if err := spec.Validate(); err != nil {
		return Observation{}, err
	}
	e.mu.Lock()
	e.specs = append(e.specs, spec)
	e.mu.Unlock()
	return Observation{Status: "queued", Message: "dry run"}, nil
}

// Specs returns the submitted specs in order.
func (e *DryRunExecutor) Specs() []JobSpec {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]JobSpec(nil), e.specs...)
}
