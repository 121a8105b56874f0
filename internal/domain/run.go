package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RunStatus is the lifecycle state of a submitted simulation.
type RunStatus string

const (
	RunStatusCreated   RunStatus = "created"
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// NormalizeRunStatus maps free-form status strings onto RunStatus.
func NormalizeRunStatus(raw string) RunStatus {
	switch RunStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case RunStatusCreated:
		return RunStatusCreated
	case RunStatusQueued, "pending":
		return RunStatusQueued
	case RunStatusRunning:
		return RunStatusRunning
	case RunStatusSucceeded, "done", "success":
		return RunStatusSucceeded
	case RunStatusFailed, "error":
		return RunStatusFailed
	default:
		return ""
	}
}

// Terminal reports whether no further transitions are expected.
func (s RunStatus) Terminal() bool {
	return s == RunStatusSucceeded || s == RunStatusFailed
}

// CanTransitionTo reports whether a run in status s may move to next. Runs only
// move forward: created, queued, running, then succeeded or failed.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	for _, prev := range PredecessorsOf(next) {
		if prev == s {
			return true
		}
	}
	return false
}

// PredecessorsOf lists the statuses a run may be in before moving to next.
func PredecessorsOf(next RunStatus) []RunStatus {
	switch next {
	case RunStatusQueued:
		return []RunStatus{RunStatusCreated}
	case RunStatusRunning:
		return []RunStatus{RunStatusQueued}
	case RunStatusSucceeded:
		return []RunStatus{RunStatusQueued, RunStatusRunning}
	case RunStatusFailed:
		return []RunStatus{RunStatusCreated, RunStatusQueued, RunStatusRunning}
	default:
		return nil
	}
}

// Run binds one CPU variant to one benchmark binary.
type Run struct {
	ID              string
	Name            string
	Type            string
	CPU             string
	Benchmark       string
	OutDir          string
	Gem5Binary      string
	RunScript       string
	Params          []string
	Command         []string
	ArtifactIDs     []string
	Hash            string
	Status          RunStatus
	Executor        string
	Message         string
	Metadata        Metadata
	CreatedAt       time.Time
	SubmittedAt     *time.Time
	EndedAt         *time.Time
	IntegritySHA256 string
}

func (r Run) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("run id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("run name is required")
	}
	if strings.TrimSpace(r.Gem5Binary) == "" {
		return errors.New("gem5 binary is required")
	}
	if strings.TrimSpace(r.RunScript) == "" {
		return errors.New("run script is required")
	}
	if strings.TrimSpace(r.OutDir) == "" {
		return errors.New("outdir is required")
	}
	if len(r.Command) == 0 {
		return errors.New("command is required")
	}
	if NormalizeRunStatus(string(r.Status)) == "" {
		return fmt.Errorf("invalid run status %q", r.Status)
	}
	return nil
}
