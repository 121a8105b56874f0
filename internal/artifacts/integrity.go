package artifacts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

type artifactIntegrityInput struct {
	ArtifactID    string         `json:"artifact_id"`
	Name          string         `json:"name"`
	Type          string         `json:"type"`
	Command       string         `json:"command"`
	Cwd           string         `json:"cwd"`
	Path          string         `json:"path"`
	Documentation string         `json:"documentation"`
	Inputs        []string       `json:"inputs"`
	Hash          string         `json:"hash"`
	GitURL        string         `json:"git_url,omitempty"`
	GitHash       string         `json:"git_hash,omitempty"`
	ObjectKey     string         `json:"object_key,omitempty"`
	Metadata      map[string]any `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
}

func integritySHA256(v any) (string, error) {
	blob, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal integrity input: %w", err)
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:]), nil
}
