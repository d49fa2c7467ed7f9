package scm_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/scmodel/internal/galaxy"
	"github.com/san-kum/scmodel/internal/logging"
	"github.com/san-kum/scmodel/internal/reference"
	"github.com/san-kum/scmodel/internal/scm"
)

var (
	testSpherical   = galaxy.SphericalGrid{RMin: 0.01, RMax: 100, SizeRadial: 16, LMax: 2}
	testCylindrical = galaxy.CylindricalGrid{RMin: 0.05, RMax: 50, SizeRadial: 10, ZMin: 0.05, ZMax: 20, SizeVertical: 8}
)

var _ = Describe("Model", func() {
	var (
		ctx     context.Context
		backend *fakeBackend
		model   *scm.Model
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = &fakeBackend{}
		model = scm.New(backend, scm.Config{Spherical: testSpherical, Cylindrical: testCylindrical})
	})

	Describe("Iterate", func() {
		It("fails with a configuration error when there are no components", func() {
			err := model.Iterate(ctx)

			var cfgErr *galaxy.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(err).To(MatchError(galaxy.ErrConfiguration))
			Expect(backend.actionFinderFor).To(BeEmpty())
			Expect(model.Iteration()).To(Equal(0))
		})

		It("fails when nothing can bootstrap a potential", func() {
			model.AddComponent(scm.NewDFComponent(backend, &fakeDF{value: 1}, scm.ComponentConfig{Spherical: testSpherical}))

			err := model.Iterate(ctx)
			Expect(err).To(MatchError(galaxy.ErrConfiguration))
			Expect(model.Potential()).To(BeNil())
		})

		It("bootstraps the potential from static components", func() {
			baryons := &fakePotential{name: "baryons", value: -1}
			halo := scm.NewDFComponent(backend, &fakeDF{value: 2}, scm.ComponentConfig{Spherical: testSpherical})
			model.AddComponent(halo)
			model.AddComponent(scm.NewStaticPotential(baryons))

			Expect(model.Iterate(ctx)).To(Succeed())

			Expect(backend.combinedPotentials[0]).To(HaveExactElements(BeIdenticalTo(baryons)))
			Expect(backend.modelCalls).To(HaveLen(1))
			Expect(backend.modelCalls[0].pot).To(BeIdenticalTo(backend.actionFinderFor[0]))
		})

		It("builds a missing action finder from a seeded potential", func() {
			seed := &fakePotential{name: "seed", value: -3}
			model.AddComponent(scm.NewDFComponent(backend, &fakeDF{value: 2}, scm.ComponentConfig{Spherical: testSpherical}))
			model.AddComponent(scm.NewStaticPotential(&fakePotential{name: "baryons", value: -1}))
			model.SetPotential(seed)
			Expect(model.ActionFinder()).To(BeNil())

			Expect(model.Iterate(ctx)).To(Succeed())

			Expect(backend.actionFinderFor[0]).To(BeIdenticalTo(seed))
			Expect(backend.modelCalls[0].pot).To(BeIdenticalTo(seed))
			Expect(backend.modelCalls[0].af.(*fakeActionFinder).pot).To(BeIdenticalTo(seed))
			Expect(backend.combinedPotentials).To(HaveLen(1))
			Expect(model.Potential().Value(galaxy.Vec3{})).To(Equal(-7.0))
		})

		It("updates every component against the previous potential", func() {
			seed := &fakePotential{name: "seed", value: -3}
			for i := 0; i < 3; i++ {
				model.AddComponent(scm.NewDFComponent(backend, &fakeDF{value: 1}, scm.ComponentConfig{Spherical: testSpherical}))
			}
			model.SetPotential(seed)

			Expect(model.Iterate(ctx)).To(Succeed())

			Expect(backend.modelCalls).To(HaveLen(3))
			for _, call := range backend.modelCalls {
				Expect(call.pot).To(BeIdenticalTo(seed))
				Expect(call.af).To(BeIdenticalTo(backend.modelCalls[0].af))
			}
		})

		It("leaves the action finder matching the new potential", func() {
			model.AddComponent(scm.NewDFComponent(backend, &fakeDF{value: 2}, scm.ComponentConfig{Spherical: testSpherical}))
			model.AddComponent(scm.NewStaticPotential(&fakePotential{name: "baryons", value: -1}))
			model.SetPotential(&fakePotential{name: "seed", value: -3})

			for i := 0; i < 3; i++ {
				Expect(model.Iterate(ctx)).To(Succeed())
				af := model.ActionFinder().(*fakeActionFinder)
				Expect(af.pot).To(BeIdenticalTo(model.Potential()))
			}
			Expect(model.Iteration()).To(Equal(3))
		})

		It("never gives a static component a density", func() {
			static := scm.NewStaticPotential(&fakePotential{name: "baryons", value: -1})
			model.AddComponent(static)

			for i := 0; i < 4; i++ {
				Expect(model.Iterate(ctx)).To(Succeed())
				Expect(static.Density()).To(BeNil())
			}
			Expect(backend.modelCalls).To(BeEmpty())
		})

		It("fits disk-like components with an azimuthal harmonic expansion", func() {
			disk := scm.NewDFComponent(backend, &fakeDF{value: 1}, scm.ComponentConfig{
				DiskLike:    true,
				Cylindrical: testCylindrical,
			})
			model.AddComponent(disk)
			model.SetPotential(&fakePotential{name: "seed", value: -2})

			Expect(model.Iterate(ctx)).To(Succeed())

			Expect(backend.sphHarmExpansions).To(BeEmpty())
			Expect(backend.aziHarmExpansions).To(HaveExactElements(galaxy.CylindricalExpansion{
				Grid:     testCylindrical,
				MMax:     0,
				Symmetry: galaxy.Axisymmetric,
			}))
			Expect(backend.cylSplineInputs).To(HaveLen(1))
			Expect(backend.multipoleInputs).To(BeEmpty())
			Expect(disk.Density().Density(galaxy.Vec3{})).To(Equal(2.0))
		})

		It("returns backend errors unchanged", func() {
			backend.multipoleErr = errBackend
			seed := &fakePotential{name: "seed", value: -3}
			model.AddComponent(scm.NewDFComponent(backend, &fakeDF{value: 1}, scm.ComponentConfig{Spherical: testSpherical}))
			model.SetPotential(seed)

			err := model.Iterate(ctx)
			Expect(err).To(BeIdenticalTo(errBackend))
			Expect(model.Potential()).To(BeIdenticalTo(seed))
			Expect(model.ActionFinder().(*fakeActionFinder).pot).To(BeIdenticalTo(seed))
			Expect(model.Iteration()).To(Equal(0))
		})

		It("returns density functor errors unchanged and keeps the old density", func() {
			backend.momentsErr = errBackend
			halo := scm.NewDFComponent(backend, &fakeDF{value: 1}, scm.ComponentConfig{Spherical: testSpherical})
			model.AddComponent(halo)
			model.SetPotential(&fakePotential{name: "seed", value: -3})

			Expect(model.Iterate(ctx)).To(BeIdenticalTo(errBackend))
			Expect(halo.Density()).To(BeNil())
		})

		It("commits no density when a later component fails", func() {
			seed := &fakePotential{name: "seed", value: -3}
			first := scm.NewDFComponent(backend, &fakeDF{value: 1}, scm.ComponentConfig{Spherical: testSpherical})
			second := scm.NewDFComponent(backend, &fakeDF{value: 1, err: errBackend}, scm.ComponentConfig{Spherical: testSpherical})
			model.AddComponent(first)
			model.AddComponent(second)
			model.SetPotential(seed)

			Expect(model.Iterate(ctx)).To(BeIdenticalTo(errBackend))
			Expect(first.Density()).To(BeNil())
			Expect(second.Density()).To(BeNil())
			Expect(model.Potential()).To(BeIdenticalTo(seed))
			Expect(backend.multipoleInputs).To(BeEmpty())
			Expect(model.Iteration()).To(Equal(0))
		})

		It("keeps the previous densities when the new potential cannot be built", func() {
			halo := scm.NewDFComponent(backend, &fakeDF{value: 1}, scm.ComponentConfig{Spherical: testSpherical})
			model.AddComponent(halo)
			model.SetPotential(&fakePotential{name: "seed", value: -3})
			Expect(model.Iterate(ctx)).To(Succeed())
			dens, pot, af := halo.Density(), model.Potential(), model.ActionFinder()

			backend.afErr = errBackend
			Expect(model.Iterate(ctx)).To(BeIdenticalTo(errBackend))
			Expect(halo.Density()).To(BeIdenticalTo(dens))
			Expect(model.Potential()).To(BeIdenticalTo(pot))
			Expect(model.ActionFinder()).To(BeIdenticalTo(af))
			Expect(model.Iteration()).To(Equal(1))
		})

		It("logs every component it updates", func() {
			var buf bytes.Buffer
			model = scm.New(backend, scm.Config{Spherical: testSpherical}, scm.WithLogger(logging.New(&buf, log.InfoLevel)))
			model.AddComponent(scm.NewDFComponent(backend, &fakeDF{value: 1}, scm.ComponentConfig{Spherical: testSpherical}))
			model.AddComponent(scm.NewStaticDensity(&fakeDensity{name: "bulge", value: 1}, false))
			model.AddComponent(scm.NewStaticPotential(&fakePotential{name: "bh", value: -1}))

			Expect(model.Iterate(ctx)).To(Succeed())
			Expect(strings.Count(buf.String(), "computing density")).To(Equal(3))
		})

		It("does nothing on a cancelled context", func() {
			model.AddComponent(scm.NewStaticPotential(&fakePotential{name: "baryons", value: -1}))
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Expect(model.Iterate(cctx)).To(MatchError(context.Canceled))
			Expect(backend.combinedPotentials).To(BeEmpty())
		})
	})

	Describe("UpdatePotential", func() {
		It("partitions components into spherical, disk and static groups", func() {
			sph := &fakeDensity{name: "bulge", value: 1}
			disk := &fakeDensity{name: "disk", value: 2}
			static := &fakePotential{name: "bh", value: -5}
			model.AddComponent(scm.NewStaticDensity(disk, true))
			model.AddComponent(scm.NewStaticPotential(static))
			model.AddComponent(scm.NewStaticDensity(sph, false))

			Expect(model.UpdatePotential(ctx)).To(Succeed())

			Expect(backend.combinedDensities).To(HaveExactElements(
				HaveExactElements(BeIdenticalTo(sph)),
				HaveExactElements(BeIdenticalTo(disk)),
			))
			Expect(backend.multipoleExpansions).To(HaveExactElements(galaxy.SphericalExpansion{
				Grid:     testSpherical,
				MMax:     0,
				Symmetry: galaxy.Axisymmetric,
			}))
			Expect(backend.cylExpansions).To(HaveExactElements(galaxy.CylindricalExpansion{
				Grid:     testCylindrical,
				MMax:     0,
				Symmetry: galaxy.Axisymmetric,
			}))

			parts := backend.combinedPotentials[0]
			Expect(parts).To(HaveLen(3))
			Expect(parts[0].(*fakePotential).name).To(Equal("multipole"))
			Expect(parts[1].(*fakePotential).name).To(Equal("cylspline"))
			Expect(parts[2]).To(BeIdenticalTo(static))
			Expect(model.Potential().Value(galaxy.Vec3{})).To(Equal(-8.0))
		})

		It("combines every spherical density into a single multipole", func() {
			for i := 0; i < 3; i++ {
				model.AddComponent(scm.NewStaticDensity(&fakeDensity{value: float64(i + 1)}, false))
			}

			Expect(model.UpdatePotential(ctx)).To(Succeed())

			Expect(backend.combinedDensities).To(HaveLen(1))
			Expect(backend.combinedDensities[0]).To(HaveLen(3))
			Expect(backend.multipoleInputs).To(HaveLen(1))
			Expect(backend.cylSplineInputs).To(BeEmpty())
		})

		It("is idempotent for unchanged densities", func() {
			model.AddComponent(scm.NewStaticDensity(&fakeDensity{value: 4}, false))
			model.AddComponent(scm.NewStaticPotential(&fakePotential{value: -1}))

			Expect(model.UpdatePotential(ctx)).To(Succeed())
			first := model.Potential()
			Expect(model.UpdatePotential(ctx)).To(Succeed())

			Expect(model.Potential()).NotTo(BeIdenticalTo(first))
			Expect(model.Potential().Value(galaxy.Vec3{})).To(Equal(first.Value(galaxy.Vec3{})))
		})

		It("commits nothing when the action finder cannot be built", func() {
			seed := &fakePotential{name: "seed", value: -3}
			model.AddComponent(scm.NewStaticPotential(&fakePotential{value: -1}))
			model.SetPotential(seed)
			backend.afErr = errBackend

			Expect(model.UpdatePotential(ctx)).To(BeIdenticalTo(errBackend))
			Expect(model.Potential()).To(BeIdenticalTo(seed))
			Expect(model.ActionFinder()).To(BeNil())
		})
	})

	Describe("Run and observers", func() {
		It("notifies observers after each iteration", func() {
			rec := &recorder{}
			model.AddObserver(rec)
			model.AddComponent(scm.NewDFComponent(backend, &fakeDF{value: 1}, scm.ComponentConfig{Spherical: testSpherical}))
			model.AddComponent(scm.NewStaticPotential(&fakePotential{value: -1}))

			Expect(model.Run(ctx, 2)).To(Succeed())

			Expect(rec.snapshots).To(Equal([]int{1, 2}))
			Expect(rec.progress).To(Equal([][3]int{{1, 0, 2}, {1, 1, 2}, {2, 0, 2}, {2, 1, 2}}))
		})

		It("stops between iterations when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()
			model.AddComponent(scm.NewStaticPotential(&fakePotential{value: -1}))
			model.AddObserver(scm.ObserverFunc(func(s scm.Snapshot) {
				if s.Iteration == 2 {
					cancel()
				}
			}))

			err := model.Run(cctx, 5)
			Expect(err).To(MatchError(context.Canceled))
			Expect(model.Iteration()).To(Equal(2))
		})

		It("exposes a consistent snapshot", func() {
			var snap scm.Snapshot
			model.AddObserver(scm.ObserverFunc(func(s scm.Snapshot) { snap = s }))
			model.AddComponent(scm.NewStaticPotential(&fakePotential{value: -1}))

			Expect(model.Iterate(ctx)).To(Succeed())

			Expect(snap.Potential).To(BeIdenticalTo(model.Potential()))
			Expect(snap.ActionFinder).To(BeIdenticalTo(model.ActionFinder()))
			Expect(snap.Components).To(HaveLen(1))
		})
	})
})

var _ = Describe("Model with the reference backend", func() {
	var (
		ctx      context.Context
		backend  *reference.Backend
		haloGrid galaxy.SphericalGrid
		cfg      scm.Config
		probe    galaxy.Vec3
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = reference.New(reference.Options{
			VelocityNodes: 6,
			AngleNodes:    4,
			AzimuthNodes:  4,
			OrbitNodes:    8,
			Workers:       4,
		})
		haloGrid = galaxy.SphericalGrid{RMin: 0.01, RMax: 100, SizeRadial: 12}
		cfg = scm.Config{Spherical: galaxy.SphericalGrid{RMin: 0.01, RMax: 100, SizeRadial: 16}}
		probe = galaxy.Vec3{1, 0.5, 0.3}
	})

	mustPlummer := func(mass, b float64) *reference.Plummer {
		p, err := reference.NewPlummer(mass, b)
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	mustHaloDF := func() galaxy.DistributionFunction {
		df, err := reference.NewExponential(0.5, 0.4)
		Expect(err).NotTo(HaveOccurred())
		return df
	}

	It("matches a direct loop over the backend bit for bit", func() {
		df := mustHaloDF()
		baryons := mustPlummer(0.2, 0.5)
		initial := mustPlummer(1, 1)

		model := scm.New(backend, cfg)
		model.AddComponent(scm.NewDFComponent(backend, df, scm.ComponentConfig{Spherical: haloGrid}))
		model.AddComponent(scm.NewStaticPotential(baryons))
		model.SetPotential(initial)
		Expect(model.Run(ctx, 5)).To(Succeed())

		var pot galaxy.Potential = initial
		var af galaxy.ActionFinder
		for it := 0; it < 5; it++ {
			var err error
			if af == nil {
				af, err = backend.NewActionFinder(pot)
				Expect(err).NotTo(HaveOccurred())
			}
			gm, err := backend.NewGalaxyModel(pot, df, af)
			Expect(err).NotTo(HaveOccurred())
			fn := galaxy.DensityFunc(func(x galaxy.Vec3) float64 {
				m, err := gm.Moments(x, galaxy.MomentOptions{})
				Expect(err).NotTo(HaveOccurred())
				return m.Density
			})
			dens, err := backend.NewSphericalHarmonicDensity(fn, galaxy.SphericalExpansion{Grid: haloGrid, Symmetry: galaxy.Axisymmetric})
			Expect(err).NotTo(HaveOccurred())
			sum, err := backend.CombineDensities(dens)
			Expect(err).NotTo(HaveOccurred())
			mp, err := backend.NewMultipole(sum, galaxy.SphericalExpansion{Grid: cfg.Spherical, Symmetry: galaxy.Axisymmetric})
			Expect(err).NotTo(HaveOccurred())
			pot, err = backend.CombinePotentials(mp, baryons)
			Expect(err).NotTo(HaveOccurred())
			af, err = backend.NewActionFinder(pot)
			Expect(err).NotTo(HaveOccurred())
		}

		for _, x := range []galaxy.Vec3{probe, {0.05, 0, 0}, {3, 4, 0}, {0, 0, 40}} {
			Expect(model.Potential().Value(x)).To(Equal(pot.Value(x)))
		}

		got, err := backend.NewGalaxyModel(model.Potential(), df, model.ActionFinder())
		Expect(err).NotTo(HaveOccurred())
		want, err := backend.NewGalaxyModel(pot, df, af)
		Expect(err).NotTo(HaveOccurred())
		gm, err := got.Moments(probe, galaxy.MomentOptions{})
		Expect(err).NotTo(HaveOccurred())
		wm, err := want.Moments(probe, galaxy.MomentOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(gm.Density).To(BeNumerically(">", 0))
		Expect(gm.Density).To(Equal(wm.Density))
	})

	It("does not depend on component order", func() {
		build := func(reverse bool) *scm.Model {
			comps := []scm.Component{
				scm.NewDFComponent(backend, mustHaloDF(), scm.ComponentConfig{Spherical: haloGrid}),
				scm.NewStaticDensity(mustPlummer(0.1, 0.3), false),
				scm.NewStaticPotential(mustPlummer(0.2, 0.5)),
			}
			m := scm.New(backend, cfg)
			for i := range comps {
				if reverse {
					m.AddComponent(comps[len(comps)-1-i])
				} else {
					m.AddComponent(comps[i])
				}
			}
			m.SetPotential(mustPlummer(1, 1))
			return m
		}

		fwd, rev := build(false), build(true)
		Expect(fwd.Run(ctx, 2)).To(Succeed())
		Expect(rev.Run(ctx, 2)).To(Succeed())

		for _, r := range []float64{0.02, 0.3, 1, 5, 50} {
			x := galaxy.Vec3{r * 0.6, 0, r * 0.8}
			a, b := fwd.Potential().Value(x), rev.Potential().Value(x)
			Expect(math.Abs(a-b)).To(BeNumerically("<=", 1e-10*math.Abs(a)), "r=%g", r)
		}
	})

	It("rebuilds an equivalent potential from unchanged densities", func() {
		model := scm.New(backend, cfg)
		model.AddComponent(scm.NewStaticDensity(mustPlummer(1, 1), false))
		model.AddComponent(scm.NewStaticPotential(mustPlummer(0.2, 0.5)))

		Expect(model.UpdatePotential(ctx)).To(Succeed())
		first := model.Potential()
		Expect(model.UpdatePotential(ctx)).To(Succeed())

		for _, x := range []galaxy.Vec3{probe, {0.05, 0, 0}, {10, 0, 0}} {
			Expect(model.Potential().Value(x)).To(Equal(first.Value(x)))
		}
	})

	It("reports progress of the DF density in the evolving potential", func() {
		model := scm.New(backend, cfg)
		halo := scm.NewDFComponent(backend, mustHaloDF(), scm.ComponentConfig{Spherical: haloGrid})
		model.AddComponent(halo)
		model.AddComponent(scm.NewStaticPotential(mustPlummer(0.2, 0.5)))
		model.SetPotential(mustPlummer(1, 1))

		Expect(model.Iterate(ctx)).To(Succeed())
		first := halo.Density().Density(probe)
		Expect(first).To(BeNumerically(">", 0))

		Expect(model.Iterate(ctx)).To(Succeed())
		Expect(halo.Density().Density(probe)).NotTo(Equal(first))
	})
})
