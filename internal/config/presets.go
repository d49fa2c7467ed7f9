package config

import "sort"

// Presets are built fresh on every lookup so callers may modify them.
var Presets = map[string]func() *Config{
	"adiabatic_contraction": adiabaticContraction,
	"halo_baryons":          haloBaryons,
	"disk_halo":             diskHalo,
	"quick":                 quick,
}

// adiabaticContraction is a DF halo contracted by a concentrated DF baryonic
// component, started from a truncated NFW potential.
func adiabaticContraction() *Config {
	cfg := DefaultConfig()
	cfg.Name = "adiabatic_contraction"
	cfg.Description = "NFW-like halo contracted by a concentrated baryonic component"
	cfg.Spherical = SphericalGrid{RMin: 0.005, RMax: 200, SizeRadial: 25}
	cfg.InitialPotential = &Profile{Type: "spheroid", Params: map[string]float64{
		"gamma": 1, "beta": 3, "mass": 20, "scale_radius": 5, "outer_cutoff_radius": 40,
	}}
	cfg.Components = []ComponentConfig{
		{
			Name: "halo",
			DF: &Profile{Type: "doublepowerlaw", Params: map[string]float64{
				"norm": 20, "j0": 10, "slope_in": 1.6, "slope_out": 5, "j_cutoff": 400,
			}},
			Spherical: &SphericalGrid{RMin: 0.01, RMax: 100, SizeRadial: 21},
		},
		{
			Name: "baryons",
			DF: &Profile{Type: "doublepowerlaw", Params: map[string]float64{
				"norm": 12, "j0": 1, "slope_in": 1, "slope_out": 6,
				"coef_jr_in": 1, "coef_jz_in": 1, "coef_jr_out": 1, "coef_jz_out": 1,
			}},
			Spherical: &SphericalGrid{RMin: 0.01, RMax: 10, SizeRadial: 16},
		},
	}
	return cfg
}

// haloBaryons iterates a DF halo inside a fixed baryonic potential.
func haloBaryons() *Config {
	cfg := DefaultConfig()
	cfg.Name = "halo_baryons"
	cfg.Description = "DF halo in a static Plummer baryonic potential"
	cfg.Spherical = SphericalGrid{RMin: 0.01, RMax: 100, SizeRadial: 20}
	cfg.InitialPotential = &Profile{Type: "plummer", Params: map[string]float64{"mass": 1, "scale_radius": 1}}
	cfg.Components = []ComponentConfig{
		{
			Name: "halo",
			DF: &Profile{Type: "doublepowerlaw", Params: map[string]float64{
				"norm": 1, "j0": 1, "slope_in": 1.5, "slope_out": 5.5,
			}},
			Spherical: &SphericalGrid{RMin: 0.01, RMax: 100, SizeRadial: 16},
		},
		{
			Name:      "baryons",
			Potential: &Profile{Type: "plummer", Params: map[string]float64{"mass": 0.3, "scale_radius": 0.3}},
		},
	}
	return cfg
}

// diskHalo adds a disk-like DF component represented on a cylindrical grid.
func diskHalo() *Config {
	cfg := haloBaryons()
	cfg.Name = "disk_halo"
	cfg.Description = "DF halo and DF disk with a static bulge"
	cfg.Spherical.LMax = 4
	cfg.Components[1].Name = "bulge"
	cfg.Components = append(cfg.Components, ComponentConfig{
		Name:     "disk",
		DiskLike: true,
		DF:       &Profile{Type: "exponential", Params: map[string]float64{"norm": 0.2, "j0": 0.2}},
		Cylindrical: &CylindricalGrid{
			RMin: 0.05, RMax: 20, SizeRadial: 12,
			ZMin: 0.02, ZMax: 5, SizeVertical: 8,
		},
	})
	cfg.Cylindrical = CylindricalGrid{
		RMin: 0.05, RMax: 50, SizeRadial: 16,
		ZMin: 0.02, ZMax: 20, SizeVertical: 12,
	}
	return cfg
}

// quick is a small model for smoke runs.
func quick() *Config {
	cfg := DefaultConfig()
	cfg.Name = "quick"
	cfg.Description = "small grids and coarse quadrature"
	cfg.Iterations = 3
	cfg.Spherical = SphericalGrid{RMin: 0.01, RMax: 100, SizeRadial: 12}
	cfg.InitialPotential = &Profile{Type: "plummer", Params: map[string]float64{"mass": 1, "scale_radius": 1}}
	cfg.Components = []ComponentConfig{
		{
			Name:      "halo",
			DF:        &Profile{Type: "exponential", Params: map[string]float64{"norm": 0.5, "j0": 0.4}},
			Spherical: &SphericalGrid{RMin: 0.01, RMax: 100, SizeRadial: 10},
		},
		{
			Name:      "baryons",
			Potential: &Profile{Type: "plummer", Params: map[string]float64{"mass": 0.2, "scale_radius": 0.5}},
		},
	}
	cfg.Backend = BackendConfig{VelocityNodes: 6, AngleNodes: 4, AzimuthNodes: 4, OrbitNodes: 8}
	return cfg
}

// GetPreset returns a new copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
