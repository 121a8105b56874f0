package domain

import (
	"errors"
	"strings"
	"time"
)

// Artifact types used by the launcher.
const (
	ArtifactTypeGitRepo     = "git repo"
	ArtifactTypeGem5Binary  = "gem5 binary"
	ArtifactTypeBinary      = "binary"
	ArtifactTypeRunScript   = "run script"
	ArtifactTypeDiskImage   = "disk image"
	ArtifactTypeKernel      = "kernel"
	ArtifactTypeResultsDump = "results"
)

// Artifact is a provenance record for a run input or output. Inputs hold the
// IDs of the artifacts it was produced from.
type Artifact struct {
	ID              string
	Name            string
	Type            string
	Command         string
	Cwd             string
	Path            string
	Documentation   string
	Inputs          []string
	Hash            string
	GitURL          string
	GitHash         string
	ObjectKey       string
	Metadata        Metadata
	CreatedAt       time.Time
	IntegritySHA256 string
}

func (a Artifact) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.New("artifact id is required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("artifact name is required")
	}
	if strings.TrimSpace(a.Type) == "" {
		return errors.New("artifact type is required")
	}
	if strings.TrimSpace(a.Path) == "" {
		return errors.New("artifact path is required")
	}
	if strings.TrimSpace(a.Hash) == "" {
		return errors.New("artifact hash is required")
	}
	for _, in := range a.Inputs {
		if strings.TrimSpace(in) == "" {
			return errors.New("artifact input id is required")
		}
		if in == a.ID {
			return errors.New("artifact cannot be its own input")
		}
	}
	return nil
}
