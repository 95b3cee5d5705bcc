// Package persistence loads and saves axis configuration and calibration
// data as YAML, so a system's tuned gains and anticogging table survive a
// restart without re-running calibration.
package persistence

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mtilocca/servo-cascade-core/internal/axis"
)

// AxisFile is the on-disk shape of one axis's persisted state: its tuning
// config plus the anticogging table it calibrated (SPEC_FULL.md §3).
type AxisFile struct {
	Name        string        `yaml:"name"`
	Config      axis.Config   `yaml:"config"`
	CoggingMap  []float32     `yaml:"cogging_map,omitempty"`
}

// SystemFile aggregates both axes plus the control frequency they share.
type SystemFile struct {
	FCtrl float64    `yaml:"f_ctrl_hz"`
	Axes  []AxisFile `yaml:"axes"`
}

// Load reads and validates a SystemFile from path.
func Load(path string) (*SystemFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var sf SystemFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	if sf.FCtrl <= 0 {
		return nil, fmt.Errorf("f_ctrl_hz must be > 0")
	}
	if len(sf.Axes) == 0 {
		return nil, fmt.Errorf("at least one axis is required")
	}
	for i := range sf.Axes {
		if sf.Axes[i].Name == "" {
			return nil, fmt.Errorf("axes[%d].name is required", i)
		}
		if err := axis.ApplyConfig(&sf.Axes[i].Config, sf.FCtrl); err != nil {
			return nil, fmt.Errorf("axes[%d] (%s): %w", i, sf.Axes[i].Name, err)
		}
	}
	return &sf, nil
}

// Save writes sf to path as YAML, creating or truncating the file.
func Save(path string, sf *SystemFile) error {
	data, err := yaml.Marshal(sf)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// PersistCoggingMap copies m's bins into af.CoggingMap, for a Save call
// that snapshots calibration state alongside tuning.
func PersistCoggingMap(af *AxisFile, m *axis.AnticoggingMap) {
	af.CoggingMap = make([]float32, m.Len())
	for i := 0; i < m.Len(); i++ {
		af.CoggingMap[i] = m.At(i)
	}
}

// RestoreCoggingMap loads af.CoggingMap back into m, sized to match; if the
// stored map is a different size than m, it is not applied.
func RestoreCoggingMap(m *axis.AnticoggingMap, af AxisFile) bool {
	if len(af.CoggingMap) != m.Len() {
		return false
	}
	for i, v := range af.CoggingMap {
		m.Set(i, float64(v), 1e9)
	}
	return true
}
