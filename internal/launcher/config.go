package launcher

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/domain"
	"gopkg.in/yaml.v3"
)

// ArtifactSpec declares one base artifact.
type ArtifactSpec struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	Command       string `yaml:"command"`
	Cwd           string `yaml:"cwd"`
	Path          string `yaml:"path"`
	Documentation string `yaml:"documentation"`
}

// Config describes one micro-benchmark experiment.
type Config struct {
	ExperimentsRepo ArtifactSpec `yaml:"experimentsRepo"`
	Gem5Repo        ArtifactSpec `yaml:"gem5Repo"`
	Gem5Binary      ArtifactSpec `yaml:"gem5Binary"`
	RunScripts      ArtifactSpec `yaml:"runScripts"`

	// RunScript is the simulator configuration script inside RunScripts.
	RunScript     string   `yaml:"runScript"`
	BenchmarkDir  string   `yaml:"benchmarkDir"`
	BenchmarkISA  string   `yaml:"benchmarkISA"`
	Benchmarks    []string `yaml:"benchmarks"`
	OutDirRoot    string   `yaml:"outDirRoot"`
	RunNamePrefix string   `yaml:"runNamePrefix"`

	// CPUConfigDir optionally holds <variant>.yaml overrides for the core
	// configurations.
	CPUConfigDir string `yaml:"cpuConfigDir"`
}

// DefaultBenchmarks is the VRG micro-benchmark list. MDMC and
// ML2_BW_ldstML2_BW_st are single entries in the experiment history; they are
// kept verbatim until the intended split is confirmed.
var DefaultBenchmarks = []string{
	"CCa", "CCe", "CCh", "CCh_st", "CCl", "CCm", "CF1", "CRd", "CRf", "CRm",
	"CS1", "CS3", "DP1d", "DP1f", "DPcvt", "DPT", "DPTd", "ED1", "EF", "EI", "EM1", "EM5",
	"MDMC", "MCS", "M_Dyn", "MI", "MIM", "MIM2", "MIP", "ML2", "ML2_BW_ld", "ML2_BW_ldstML2_BW_st",
	"ML2_st", "MM", "MM_st", "STc", "STL2", "STL2b",
}

func DefaultConfig() Config {
	return Config{
		ExperimentsRepo: ArtifactSpec{
			Name:          "gem5_skylake_config",
			Type:          domain.ArtifactTypeGitRepo,
			Command:       "git clone https://github.com/darchr/gem5art-experiments.git",
			Cwd:           "../",
			Path:          "./",
			Documentation: "main experiments repo to test gem5 with micro-benchmarks",
		},
		Gem5Repo: ArtifactSpec{
			Name: "gem5",
			Type: domain.ArtifactTypeGitRepo,
			Command: strings.Join([]string{
				"git clone https://gem5.googlesource.com/public/gem5;",
				"cd gem5;",
				"git cherry-pick 27dbffdb006c7bd12ad2489a2d346274fe646720;",
				"git cherry-pick ad65be829e7c6ffeaa143d292a7c4a5ba27c5c7c;",
				"wget https://github.com/darchr/gem5/commit/f0a358ee08aba1563c7b5277866095b4cbb7c36d.patch;",
				"git am f0a358ee08aba1563c7b5277866095b4cbb7c36d.patch --reject;",
			}, "\n"),
			Cwd:           "./",
			Path:          "gem5/",
			Documentation: "git repo with gem5 master branch, gem5 version - 19, cherry picks with BTB, branch direction patches and vector mem support",
		},
		Gem5Binary: ArtifactSpec{
			Name:          "gem5",
			Type:          domain.ArtifactTypeGem5Binary,
			Command:       "scons build/X86/gem5.opt",
			Cwd:           "gem5/",
			Path:          "gem5/build/X86/gem5.opt",
			Documentation: "default gem5 binary for x86",
		},
		RunScripts: ArtifactSpec{
			Name:          "gem5-configs",
			Type:          domain.ArtifactTypeGitRepo,
			Cwd:           "./",
			Path:          "gem5-configs",
			Documentation: "gem5 run scripts configured for skylake micro-architecture and micro-benchmarks benchmarks",
		},
		RunScript:     "gem5-configs/run.py",
		BenchmarkDir:  "microbench",
		BenchmarkISA:  "X86",
		Benchmarks:    append([]string(nil), DefaultBenchmarks...),
		OutDirRoot:    "stats/microbenchmark-experiments",
		RunNamePrefix: "skylake_micro-benchmarks_run",
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. A benchmarks list in
// the file replaces the default list.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read experiment config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse experiment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	for _, a := range []ArtifactSpec{c.ExperimentsRepo, c.Gem5Repo, c.Gem5Binary, c.RunScripts} {
		if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Type) == "" || strings.TrimSpace(a.Path) == "" {
			return fmt.Errorf("artifact %q: name, type and path are required", a.Name)
		}
	}
	if strings.TrimSpace(c.RunScript) == "" {
		return errors.New("runScript is required")
	}
	if strings.TrimSpace(c.BenchmarkDir) == "" {
		return errors.New("benchmarkDir is required")
	}
	if strings.TrimSpace(c.BenchmarkISA) == "" {
		return errors.New("benchmarkISA is required")
	}
	if strings.TrimSpace(c.OutDirRoot) == "" {
		return errors.New("outDirRoot is required")
	}
	if strings.TrimSpace(c.RunNamePrefix) == "" {
		return errors.New("runNamePrefix is required")
	}
	if len(c.Benchmarks) == 0 {
		return errors.New("at least one benchmark is required")
	}
	seen := make(map[string]struct{}, len(c.Benchmarks))
	for _, bm := range c.Benchmarks {
		bm = strings.TrimSpace(bm)
		if bm == "" {
			return errors.New("benchmark name is required")
		}
		if _, ok := seen[bm]; ok {
			return fmt.Errorf("duplicate benchmark %q", bm)
		}
		seen[bm] = struct{}{}
	}
	return nil
}
