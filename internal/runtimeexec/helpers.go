package runtimeexec

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

func parseIntResource(resources map[string]any, key string) int {
	if len(resources) == 0 {
		return 0
	}
	v, ok := resources[key]
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func isReservedJobEnvKey(key string) bool {
	switch strings.ToUpper(strings.TrimSpace(key)) {
	case "RUN_ID", "GEM5ART_RUN_NAME", "GEM5ART_OUTDIR":
		return true
	default:
		return false
	}
}

// jobEnv returns the reserved variables followed by JobSpec.Env sorted by key.
func jobEnv(spec JobSpec) []string {
	out := []string{
		"RUN_ID=" + spec.RunID,
		"GEM5ART_RUN_NAME=" + spec.Name,
		"GEM5ART_OUTDIR=" + spec.OutDir,
	}
	keys := make([]string, 0, len(spec.Env))
	for k := range spec.Env {
		key := strings.TrimSpace(k)
		if key == "" || isReservedJobEnvKey(key) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		out = append(out, key+"="+spec.Env[key])
	}
	return out
}

func resolveOutDir(spec JobSpec) string {
	outDir := strings.TrimSpace(spec.OutDir)
	if outDir == "" || filepath.IsAbs(outDir) {
		return outDir
	}
	return filepath.Join(strings.TrimSpace(spec.Cwd), outDir)
}
