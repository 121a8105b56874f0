package runtimeexec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const containerWorkdir = "/work"

// DockerExecutor starts each run in a detached container with the working
// directory bind-mounted at /work.
type DockerExecutor struct {
	dockerBin string
	imageRef  string
}

func NewDockerExecutor(dockerBin, imageRef string) (*DockerExecutor, error) {
	dockerBin = strings.TrimSpace(dockerBin)
	if dockerBin == "" {
		dockerBin = "docker"
	}
	if _, err := exec.LookPath(dockerBin); err != nil {
		return nil, fmt.Errorf("docker binary not found: %w", err)
	}
	return &DockerExecutor{dockerBin: dockerBin, imageRef: strings.TrimSpace(imageRef)}, nil
}

func (e *DockerExecutor) Kind() string {
	return "docker"
}

func (e *DockerExecutor) ResolveImageID(ctx context.Context, imageRef string) (string, error) {
	imageRef = strings.TrimSpace(imageRef)
	if imageRef == "" {
		return "", errors.New("image ref is required")
	}

	cmd := exec.CommandContext(ctx, e.dockerBin, "image", "inspect", "--format", "{{.Id}}", imageRef)
	out, err := cmd.CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil {
		lower := strings.ToLower(text)
		if strings.Contains(lower, "no such image") || strings.Contains(lower, "not found") || strings.Contains(lower, "no such object") {
			return "", fmt.Errorf("%w: %s", ErrImageRefNotFound, text)
		}
		return "", fmt.Errorf("docker image inspect failed: %w: %s", err, text)
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: empty docker image id", ErrImageRefNotFound)
	}
	return fields[0], nil
}

func (e *DockerExecutor) Submit(ctx context.Context, spec JobSpec) (Observation, error) {
	if strings.TrimSpace(spec.ImageRef) == "" {
		spec.ImageRef = e.imageRef
	}
	imageID, err := e.ResolveImageID(ctx, spec.ImageRef)
	if err != nil {
		return Observation{}, err
	}
	args, err := dockerRunArgs(spec)
	if err != nil {
		return Observation{}, err
	}

	cmd := exec.CommandContext(ctx, e.dockerBin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return Observation{Status: "failed", Message: strings.TrimSpace(string(out))}, fmt.Errorf("docker run failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return Observation{
		Status:  "running",
		Message: "container started",
		Details: map[string]any{
			"docker_container": dockerName(spec),
			"container_id":     strings.TrimSpace(string(out)),
			"image_id":         imageID,
		},
	}, nil
}

func dockerName(spec JobSpec) string {
	if name := strings.TrimSpace(spec.DockerName); name != "" {
		return name
	}
	return "gem5art-" + strings.TrimSpace(spec.RunID)
}

func dockerRunArgs(spec JobSpec) ([]string, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(spec.RunID) == "" && strings.TrimSpace(spec.DockerName) == "" {
		return nil, errors.New("docker container name is required")
	}
	imageRef := strings.TrimSpace(spec.ImageRef)
	if imageRef == "" {
		return nil, errors.New("image ref is required")
	}
	cwd := strings.TrimSpace(spec.Cwd)
	if cwd == "" {
		cwd = "."
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, fmt.Errorf("resolve cwd: %w", err)
	}

	args := []string{
		"run",
		"--detach",
		"--name", dockerName(spec),
		"--network", "host",
		"-v", abs + ":" + containerWorkdir,
		"-w", containerWorkdir,
	}
	for _, kv := range jobEnv(spec) {
		args = append(args, "-e", kv)
	}

	if cpus := parseIntResource(spec.Resources, "cpus"); cpus > 0 {
		args = append(args, "--cpus", strconv.Itoa(cpus))
	}
	if mem, ok := spec.Resources["memory"].(string); ok && strings.TrimSpace(mem) != "" {
		args = append(args, "--memory", strings.TrimSpace(mem))
	}

	args = append(args, imageRef)
	args = append(args, spec.Command...)
	return args, nil
}
