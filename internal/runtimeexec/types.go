// Package runtimeexec hands simulator command lines to an execution backend.
package runtimeexec

import (
	"context"
	"errors"
)

// Executor defines the execution surface used by the run service.
type Executor interface {
	Kind() string
	Submit(ctx context.Context, spec JobSpec) (Observation, error)
}

// JobSpec is one simulator invocation. Command[0] is the simulator binary and
// OutDir is relative to Cwd unless absolute.
type JobSpec struct {
	RunID      string
	Name       string
	Command    []string
	Cwd        string
	OutDir     string
	Env        map[string]string
	ImageRef   string
	DockerName string
	Resources  map[string]any
}

func (s JobSpec) Validate() error {
	if len(s.Command) == 0 {
		return errors.New("command is required")
	}
	return nil
}

// Observation reports the run status as seen by the executor right after
// submission: queued, running, succeeded or failed.
type Observation struct {
	Status  string
	Message string
	Details map[string]any
}

var ErrImageRefNotFound = errors.New("image_ref_not_found")
