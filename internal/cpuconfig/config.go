package cpuconfig

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrVariantRenamed is returned when an override file names a different variant
// than the one it is applied to.
var ErrVariantRenamed = errors.New("cpu config renames variant")

// LoadConfig reads a YAML override file on top of base.
// Fields absent from the file keep the base values; a fuPool in the file
// replaces the whole pool. A name in the file must match base.Name.
func LoadConfig(path string, base Variant) (Variant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Variant{}, fmt.Errorf("failed to read cpu config file: %w", err)
	}

	v := base.Clone()
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Variant{}, fmt.Errorf("failed to parse cpu config: %w", err)
	}
	if base.Name != "" && v.Name != base.Name {
		return Variant{}, fmt.Errorf("%w: %s sets name %q", ErrVariantRenamed, path, v.Name)
	}
	if err := v.Validate(); err != nil {
		return Variant{}, err
	}
	return v, nil
}

// Marshal renders the variant as YAML.
func (v Variant) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize cpu config: %w", err)
	}
	return data, nil
}

// SaveConfig writes the variant to a YAML file.
func (v Variant) SaveConfig(path string) error {
	data, err := v.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cpu config file: %w", err)
	}
	return nil
}
