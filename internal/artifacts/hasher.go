package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/domain"
)

// Hasher derives the content identity of an artifact.
type Hasher interface {
	Hash(ctx context.Context, input RegisterInput) (HashResult, error)
}

// HashResult is the identity computed for a registration. ContentHashed is
// false when the path did not exist and the hash covers the declaration only.
type HashResult struct {
	Hash          string
	GitURL        string
	GitHash       string
	ContentHashed bool
}

// FSHasher hashes git repositories by HEAD and regular files by content.
type FSHasher struct {
	// Root resolves relative artifact paths. Empty means the working directory.
	Root   string
	GitBin string
}

func NewFSHasher(root string) *FSHasher {
	return &FSHasher{Root: strings.TrimSpace(root), GitBin: "git"}
}

func (h *FSHasher) Hash(ctx context.Context, input RegisterInput) (HashResult, error) {
	path := h.resolve(input.Path)
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return declarationHash(input)
		}
		return HashResult{}, fmt.Errorf("stat %s: %w", path, err)
	}

	if input.Type == domain.ArtifactTypeGitRepo {
		head, err := h.git(ctx, path, "rev-parse", "HEAD")
		if err != nil {
			return HashResult{}, err
		}
		// A repository without an origin remote is still hashable.
		url, _ := h.git(ctx, path, "remote", "get-url", "origin")
		return HashResult{Hash: head, GitURL: url, GitHash: head, ContentHashed: true}, nil
	}

	if !st.Mode().IsRegular() {
		return declarationHash(input)
	}
	sum, err := fileSHA256(path)
	if err != nil {
		return HashResult{}, err
	}
	return HashResult{Hash: sum, ContentHashed: true}, nil
}

func (h *FSHasher) resolve(path string) string {
	path = strings.TrimSpace(path)
	if filepath.IsAbs(path) || h.Root == "" {
		return path
	}
	return filepath.Join(h.Root, path)
}

func (h *FSHasher) git(ctx context.Context, dir string, args ...string) (string, error) {
	bin := strings.TrimSpace(h.GitBin)
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, append([]string{"-C", dir}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s in %s: %w", strings.Join(args, " "), dir, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type declaration struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Command string   `json:"command"`
	Path    string   `json:"path"`
	Inputs  []string `json:"inputs"`
}

func declarationHash(input RegisterInput) (HashResult, error) {
	inputs := make([]string, 0, len(input.Inputs))
	for _, in := range input.Inputs {
		inputs = append(inputs, in.Hash)
	}
	sum, err := integritySHA256(declaration{
		Name:    strings.TrimSpace(input.Name),
		Type:    strings.TrimSpace(input.Type),
		Command: input.Command,
		Path:    strings.TrimSpace(input.Path),
		Inputs:  inputs,
	})
	if err != nil {
		return HashResult{}, err
	}
	return HashResult{Hash: sum}, nil
}
