package launcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/cpuconfig"
)

// SelectAll selects every CPU variant.
const SelectAll = "all"

var ErrInvalidSelection = errors.New("invalid cpu selection")

// ParseSelection maps the --cpu value onto variant names.
func ParseSelection(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == SelectAll {
		return cpuconfig.Names(), nil
	}
	for _, name := range cpuconfig.Names() {
		if s == name {
			return []string{name}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q (choose from %s, %s)", ErrInvalidSelection, s, strings.Join(cpuconfig.Names(), ", "), SelectAll)
}
