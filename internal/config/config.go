package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/scmodel/internal/galaxy"
)

const (
	DefaultIterations = 5
	DefaultRMinSph    = 0.005
	DefaultRMaxSph    = 200.0
	DefaultSizeSph    = 25
	DefaultRMinCyl    = 0.1
	DefaultRMaxCyl    = 50.0
	DefaultSizeCyl    = 20
	DefaultZMinCyl    = 0.05
	DefaultZMaxCyl    = 20.0
	DefaultSizeZCyl   = 16
)

var ErrUnknownFormat = errors.New("config: unknown file format")

// Config describes a complete self-consistent model run.
type Config struct {
	Name             string            `yaml:"name" toml:"name"`
	Description      string            `yaml:"description,omitempty" toml:"description,omitempty"`
	Iterations       int               `yaml:"iterations" toml:"iterations"`
	Tolerance        float64           `yaml:"tolerance,omitempty" toml:"tolerance,omitempty"`
	Probe            []float64         `yaml:"probe,omitempty" toml:"probe,omitempty"`
	ProbeComponent   int               `yaml:"probe_component,omitempty" toml:"probe_component,omitempty"`
	ReverseOrder     bool              `yaml:"reverse_order,omitempty" toml:"reverse_order,omitempty"`
	Spherical        SphericalGrid     `yaml:"spherical" toml:"spherical"`
	Cylindrical      CylindricalGrid   `yaml:"cylindrical" toml:"cylindrical"`
	InitialPotential *Profile          `yaml:"initial_potential,omitempty" toml:"initial_potential,omitempty"`
	Components       []ComponentConfig `yaml:"components" toml:"components"`
	Backend          BackendConfig     `yaml:"backend" toml:"backend"`
}

type SphericalGrid struct {
	RMin       float64 `yaml:"rmin" toml:"rmin"`
	RMax       float64 `yaml:"rmax" toml:"rmax"`
	SizeRadial int     `yaml:"size_radial" toml:"size_radial"`
	LMax       int     `yaml:"lmax" toml:"lmax"`
}

func (g SphericalGrid) Galaxy() galaxy.SphericalGrid {
	return galaxy.SphericalGrid{RMin: g.RMin, RMax: g.RMax, SizeRadial: g.SizeRadial, LMax: g.LMax}
}

type CylindricalGrid struct {
	RMin         float64 `yaml:"rmin" toml:"rmin"`
	RMax         float64 `yaml:"rmax" toml:"rmax"`
	SizeRadial   int     `yaml:"size_radial" toml:"size_radial"`
	ZMin         float64 `yaml:"zmin" toml:"zmin"`
	ZMax         float64 `yaml:"zmax" toml:"zmax"`
	SizeVertical int     `yaml:"size_vertical" toml:"size_vertical"`
}

func (g CylindricalGrid) Galaxy() galaxy.CylindricalGrid {
	return galaxy.CylindricalGrid{
		RMin: g.RMin, RMax: g.RMax, SizeRadial: g.SizeRadial,
		ZMin: g.ZMin, ZMax: g.ZMax, SizeVertical: g.SizeVertical,
	}
}

// Profile names a registered density, potential or DF type and its
// parameters.
type Profile struct {
	Type   string             `yaml:"type" toml:"type"`
	Params map[string]float64 `yaml:"params,omitempty" toml:"params,omitempty"`
}

// ComponentConfig holds exactly one of DF, Density or Potential. Grids fall
// back to the model grids when omitted.
type ComponentConfig struct {
	Name        string           `yaml:"name,omitempty" toml:"name,omitempty"`
	DiskLike    bool             `yaml:"disklike,omitempty" toml:"disklike,omitempty"`
	DF          *Profile         `yaml:"df,omitempty" toml:"df,omitempty"`
	Density     *Profile         `yaml:"density,omitempty" toml:"density,omitempty"`
	Potential   *Profile         `yaml:"potential,omitempty" toml:"potential,omitempty"`
	Spherical   *SphericalGrid   `yaml:"spherical,omitempty" toml:"spherical,omitempty"`
	Cylindrical *CylindricalGrid `yaml:"cylindrical,omitempty" toml:"cylindrical,omitempty"`
}

// Kind reports which contribution the component declares.
func (c ComponentConfig) Kind() string {
	switch {
	case c.DF != nil:
		return "df"
	case c.Density != nil:
		return "density"
	case c.Potential != nil:
		return "potential"
	}
	return ""
}

// SphericalOr returns the component's spherical grid or def.
func (c ComponentConfig) SphericalOr(def SphericalGrid) SphericalGrid {
	if c.Spherical != nil {
		return *c.Spherical
	}
	return def
}

// CylindricalOr returns the component's cylindrical grid or def.
func (c ComponentConfig) CylindricalOr(def CylindricalGrid) CylindricalGrid {
	if c.Cylindrical != nil {
		return *c.Cylindrical
	}
	return def
}

// BackendConfig tunes the reference backend. Zero values take the backend
// defaults.
type BackendConfig struct {
	VelocityNodes int `yaml:"velocity_nodes,omitempty" toml:"velocity_nodes,omitempty"`
	AngleNodes    int `yaml:"angle_nodes,omitempty" toml:"angle_nodes,omitempty"`
	AzimuthNodes  int `yaml:"azimuth_nodes,omitempty" toml:"azimuth_nodes,omitempty"`
	OrbitNodes    int `yaml:"orbit_nodes,omitempty" toml:"orbit_nodes,omitempty"`
	Workers       int `yaml:"workers,omitempty" toml:"workers,omitempty"`
	CylSplineLMax int `yaml:"cylspline_lmax,omitempty" toml:"cylspline_lmax,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:       "model",
		Iterations: DefaultIterations,
		Probe:      []float64{1, 0.5, 0.3},
		Spherical: SphericalGrid{
			RMin:       DefaultRMinSph,
			RMax:       DefaultRMaxSph,
			SizeRadial: DefaultSizeSph,
		},
		Cylindrical: CylindricalGrid{
			RMin:         DefaultRMinCyl,
			RMax:         DefaultRMaxCyl,
			SizeRadial:   DefaultSizeCyl,
			ZMin:         DefaultZMinCyl,
			ZMax:         DefaultZMaxCyl,
			SizeVertical: DefaultSizeZCyl,
		},
	}
}

// Validate checks the structure of the configuration. Grid values are left
// to the backend.
func (c *Config) Validate() error {
	if c.Iterations < 0 {
		return galaxy.Configf("iterations", "must not be negative, got %d", c.Iterations)
	}
	if c.Tolerance < 0 {
		return galaxy.Configf("tolerance", "must not be negative, got %g", c.Tolerance)
	}
	if len(c.Probe) != 0 && len(c.Probe) != 3 {
		return galaxy.Configf("probe", "needs 3 coordinates, got %d", len(c.Probe))
	}
	if len(c.Components) == 0 {
		return galaxy.Configf("components", "at least one component is required")
	}
	for i, comp := range c.Components {
		n := 0
		for _, p := range []*Profile{comp.DF, comp.Density, comp.Potential} {
			if p != nil {
				n++
				if p.Type == "" {
					return galaxy.Configf(fmt.Sprintf("components[%d]", i), "profile type is empty")
				}
			}
		}
		if n != 1 {
			return galaxy.Configf(fmt.Sprintf("components[%d]", i), "needs exactly one of df, density or potential, got %d", n)
		}
	}
	if c.ProbeComponent < 0 || c.ProbeComponent >= len(c.Components) {
		return galaxy.Configf("probe_component", "index %d out of range", c.ProbeComponent)
	}
	if c.InitialPotential != nil && c.InitialPotential.Type == "" {
		return galaxy.Configf("initial_potential", "profile type is empty")
	}
	return nil
}

type format int

const (
	formatYAML format = iota
	formatTOML
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".toml":
		return formatTOML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// Load reads a YAML or TOML configuration, chosen by file extension, on top
// of DefaultConfig.
func Load(path string) (*Config, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	switch f {
	case formatTOML:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}
	var data []byte
	switch f {
	case formatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	default:
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
