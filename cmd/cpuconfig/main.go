package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/cpuconfig"
	"github.com/spf13/cobra"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		logger.Error("cpuconfig failed", "error", err)
		if errors.Is(err, cpuconfig.ErrUnknownVariant) || errors.Is(err, cpuconfig.ErrVariantRenamed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type options struct {
	params   bool
	override string
	outDir   string
	fuCounts []string
}

func newRootCommand(out io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "cpuconfig [variant...]",
		Short: "Print the out-of-order core configurations",
		Long: `cpuconfig prints the named core variants (UnCalib, Calib, Max; all when
none are given) as YAML, or as flat simulator parameter assignments with
--params. --override applies a YAML file on top of each variant, --fu
Unit=count changes a functional unit count, and --out writes <variant>.yaml
files instead of printing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(out, args, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.params, "params", false, "print name=value parameter assignments")
	cmd.Flags().StringVar(&opts.override, "override", "", "YAML file applied on top of each variant")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "directory to write <variant>.yaml files into")
	cmd.Flags().StringArrayVar(&opts.fuCounts, "fu", nil, "functional unit count as Unit=count (repeatable)")
	return cmd
}

func run(out io.Writer, names []string, opts options) error {
	if len(names) == 0 {
		names = cpuconfig.Names()
	}
	for _, name := range names {
		v, err := cpuconfig.Lookup(name)
		if err != nil {
			return err
		}
		if opts.override != "" {
			if v, err = cpuconfig.LoadConfig(opts.override, v); err != nil {
				return err
			}
		}
		if err := applyFUCounts(&v, opts.fuCounts); err != nil {
			return err
		}

		switch {
		case opts.outDir != "":
			if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
				return err
			}
			if err := v.SaveConfig(filepath.Join(opts.outDir, name+".yaml")); err != nil {
				return err
			}
		case opts.params:
			fmt.Fprintf(out, "# %s\n", v.Name)
			for _, p := range v.Params() {
				fmt.Fprintln(out, p.String())
			}
		default:
			data, err := v.Marshal()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "---\n%s", data)
		}
	}
	return nil
}

// applyFUCounts applies Unit=count assignments and revalidates the variant.
func applyFUCounts(v *cpuconfig.Variant, assignments []string) error {
	if len(assignments) == 0 {
		return nil
	}
	for _, a := range assignments {
		unit, raw, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("--fu %q: want Unit=count", a)
		}
		count, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("--fu %q: %w", a, err)
		}
		if err := v.FUPool.SetCount(strings.TrimSpace(unit), count); err != nil {
			return fmt.Errorf("--fu %q: %w", a, err)
		}
	}
	return v.Validate()
}
