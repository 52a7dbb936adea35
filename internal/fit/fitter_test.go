package fit_test

import (
	"context"
	"errors"
	"io"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/microkin/internal/chem"
	"github.com/san-kum/microkin/internal/chem/chemtest"
	"github.com/san-kum/microkin/internal/fit"
	"github.com/san-kum/microkin/internal/kinetics"
	"github.com/san-kum/microkin/internal/optim"
	"github.com/san-kum/microkin/internal/steady"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// synthetic returns |j| of the hydrogen network at 0.05..0.5 V with a
// ±0.2% alternating perturbation.
func synthetic() ([]float64, []float64) {
	potentials := optim.Linspace(0.05, 0.5, 10)
	kin, err := kinetics.New(chemtest.Hydrogen(), quietLogger())
	Expect(err).NotTo(HaveOccurred())
	res, err := steady.Run(context.Background(), kin, steady.DefaultConfig(), quietLogger(), potentials)
	Expect(err).NotTo(HaveOccurred())

	j := make([]float64, len(res.J))
	for i, v := range res.J {
		noise := 1.002
		if i%2 == 1 {
			noise = 0.998
		}
		j[i] = math.Abs(v) * noise
	}
	return potentials, j
}

func perturbed() *chem.Dataset {
	ds := chemtest.Hydrogen()
	ds.Reactions.Ga = []float64{0.21, 0.29}
	ds.Species.GFormationAdsorbed = []float64{-0.105}
	return ds
}

var _ = Describe("Fitter", func() {
	var (
		potentials []float64
		jExp       []float64
	)

	BeforeEach(func() {
		potentials, jExp = synthetic()
	})

	Describe("construction", func() {
		It("bounds every energy to ±20% and orders negative bounds", func() {
			f, err := fit.New(chemtest.Hydrogen(), potentials, jExp, fit.DefaultOptions(), quietLogger())
			Expect(err).NotTo(HaveOccurred())

			b := f.Bounds()
			Expect(b).To(HaveLen(3))
			Expect(b[0].Lo).To(BeNumerically("~", 0.16, 1e-12))
			Expect(b[0].Hi).To(BeNumerically("~", 0.24, 1e-12))
			Expect(b[1].Lo).To(BeNumerically("~", 0.24, 1e-12))
			Expect(b[1].Hi).To(BeNumerically("~", 0.36, 1e-12))
			Expect(b[2].Lo).To(BeNumerically("~", -0.12, 1e-12))
			Expect(b[2].Hi).To(BeNumerically("~", -0.08, 1e-12))
			Expect(f.Initial()).To(Equal([]float64{0.2, 0.3, -0.1}))
			Expect(f.Names()).To(Equal([]string{"Ga(V)", "Ga(H)", "G(H*)"}))
		})

		It("does not modify the caller's dataset", func() {
			ds := chemtest.Hydrogen()
			_, err := fit.New(ds, potentials, jExp, fit.DefaultOptions(), quietLogger())
			Expect(err).NotTo(HaveOccurred())
			Expect(ds.Parameters.Potential).To(HaveLen(51))
		})

		It("rejects mismatched data", func() {
			_, err := fit.New(chemtest.Hydrogen(), potentials, jExp[:3], fit.DefaultOptions(), quietLogger())
			Expect(errors.Is(err, chem.ErrDimensionMismatch)).To(BeTrue())
		})

		It("rejects empty data", func() {
			_, err := fit.New(chemtest.Hydrogen(), nil, nil, fit.DefaultOptions(), quietLogger())
			Expect(errors.Is(err, steady.ErrEmptySweep)).To(BeTrue())
		})

		It("requires thermochemistry", func() {
			_, err := fit.New(chemtest.Bare(chemtest.Hydrogen()), potentials, jExp, fit.DefaultOptions(), quietLogger())
			Expect(errors.Is(err, kinetics.ErrNoThermochemistry)).To(BeTrue())
		})
	})

	Describe("objective", func() {
		It("is small at the generating energies and large away from them", func() {
			f, err := fit.New(perturbed(), potentials, jExp, fit.DefaultOptions(), quietLogger())
			Expect(err).NotTo(HaveOccurred())

			atTruth := f.Objective(context.Background(), []float64{0.2, 0.3, -0.1})
			atStart := f.Objective(context.Background(), f.Initial())
			Expect(atTruth).To(BeNumerically(">=", 0))
			Expect(atTruth).To(BeNumerically("<", 1e-3*atStart))
			Expect(f.History()).To(HaveLen(2))
		})

		It("follows the formation energies when DG_reaction is tabulated", func() {
			ds := chemtest.Hydrogen()
			ds.Parameters.DGReactionInput = true
			ds.Reactions.DGReaction = []float64{0.5, 0.5}
			f, err := fit.New(ds, potentials, jExp, fit.DefaultOptions(), quietLogger())
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Bounds()).To(HaveLen(3))

			atTruth := f.Objective(context.Background(), []float64{0.2, 0.3, -0.1})
			shifted := f.Objective(context.Background(), []float64{0.2, 0.3, -0.12})
			Expect(math.IsInf(atTruth, 0)).To(BeFalse())
			Expect(atTruth).To(BeNumerically("<", shifted))
		})

		It("returns +Inf for a zero measured current", func() {
			zero := append([]float64(nil), jExp...)
			zero[4] = 0
			f, err := fit.New(chemtest.Hydrogen(), potentials, zero, fit.DefaultOptions(), quietLogger())
			Expect(err).NotTo(HaveOccurred())
			Expect(math.IsInf(f.Objective(context.Background(), f.Initial()), 1)).To(BeTrue())
		})

		It("returns +Inf when the sweep fails", func() {
			opts := fit.DefaultOptions()
			opts.Steady.Root.MaxEvaluations = 1
			f, err := fit.New(chemtest.Hydrogen(), potentials, jExp, opts, quietLogger())
			Expect(err).NotTo(HaveOccurred())
			Expect(math.IsInf(f.Objective(context.Background(), f.Initial()), 1)).To(BeTrue())
			Expect(f.History()).To(BeEmpty())
		})
	})

	Describe("Run", func() {
		It("recovers the generating energies with differential evolution", func() {
			opts := fit.DefaultOptions()
			opts.Optimizer.Seed = 1
			opts.Optimizer.MaxGenerations = 150
			progress := make(chan fit.Progress, 1024)
			opts.Progress = progress

			f, err := fit.New(perturbed(), potentials, jExp, opts, quietLogger())
			Expect(err).NotTo(HaveOccurred())
			start := f.Objective(context.Background(), f.Initial())

			result, err := f.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Ga[0]).To(BeNumerically("~", 0.2, 0.01))
			Expect(result.Ga[1]).To(BeNumerically("~", 0.3, 0.01))
			Expect(result.GFormation[0]).To(BeNumerically("~", -0.1, 0.01))
			Expect(result.Objective).To(BeNumerically("<", 1e-2*start))
			Expect(result.History).NotTo(BeEmpty())

			var updates []fit.Progress
			for p := range progress {
				updates = append(updates, p)
			}
			Expect(updates).NotTo(BeEmpty())
			Expect(updates[0].Generation).To(Equal(1))
		})

		It("delivers every generation to a slow reader", func() {
			opts := fit.DefaultOptions()
			opts.Optimizer.Seed = 2
			opts.Optimizer.MaxGenerations = 5
			opts.Optimizer.Polish = false
			progress := make(chan fit.Progress)
			opts.Progress = progress

			f, err := fit.New(perturbed(), potentials, jExp, opts, quietLogger())
			Expect(err).NotTo(HaveOccurred())

			received := make(chan []fit.Progress, 1)
			go func() {
				var updates []fit.Progress
				for p := range progress {
					time.Sleep(5 * time.Millisecond)
					updates = append(updates, p)
				}
				received <- updates
			}()

			result, err := f.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			updates := <-received
			Expect(updates).To(HaveLen(result.Generations))
			for i, p := range updates {
				Expect(p.Generation).To(Equal(i + 1))
			}
		})

		It("scans a coarse grid", func() {
			opts := fit.DefaultOptions()
			opts.Method = fit.Grid
			opts.GridPoints = 3

			f, err := fit.New(perturbed(), potentials, jExp, opts, quietLogger())
			Expect(err).NotTo(HaveOccurred())
			result, err := f.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Evaluations).To(Equal(27))
			Expect(result.Generations).To(Equal(1))
			Expect(math.IsInf(result.Objective, 0)).To(BeFalse())
		})

		It("stops on cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			f, err := fit.New(perturbed(), potentials, jExp, fit.DefaultOptions(), quietLogger())
			Expect(err).NotTo(HaveOccurred())
			_, err = f.Run(ctx)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Describe("Apply", func() {
		It("returns a dataset with the fitted energies", func() {
			ds := chemtest.Hydrogen()
			result := &fit.Fit{Ga: []float64{0.25, 0.35}, GFormation: []float64{-0.09}}
			out, err := result.Apply(ds)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Reactions.Ga).To(Equal([]float64{0.25, 0.35}))
			Expect(out.Species.GFormationAdsorbed).To(Equal([]float64{-0.09}))
			Expect(ds.Reactions.Ga).To(Equal([]float64{0.2, 0.3}))
		})

		It("replaces a tabulated DG_reaction with the fitted one", func() {
			ds := chemtest.Hydrogen()
			ds.Parameters.DGReactionInput = true
			ds.Reactions.DGReaction = []float64{0.5, 0.5}
			result := &fit.Fit{Ga: []float64{0.2, 0.3}, GFormation: []float64{-0.09}}
			out, err := result.Apply(ds)
			Expect(err).NotTo(HaveOccurred())

			want := kinetics.ReactionFreeEnergy(out.Nua(), []float64{-0.09})
			Expect(out.Reactions.DGReaction).To(HaveLen(2))
			for i := range want {
				Expect(out.Reactions.DGReaction[i]).To(BeNumerically("~", want[i], 1e-12))
			}
			Expect(ds.Reactions.DGReaction).To(Equal([]float64{0.5, 0.5}))
		})

		It("rejects a fit of the wrong shape", func() {
			_, err := (&fit.Fit{Ga: []float64{1}}).Apply(chemtest.Hydrogen())
			Expect(errors.Is(err, chem.ErrDimensionMismatch)).To(BeTrue())
		})
	})
})

var _ = Describe("ParseMethod", func() {
	DescribeTable("names",
		func(in string, want fit.Method, ok bool) {
			m, err := fit.ParseMethod(in)
			if !ok {
				Expect(err).To(HaveOccurred())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(Equal(want))
		},
		Entry("default", "", fit.DifferentialEvolution, true),
		Entry("de", "de", fit.DifferentialEvolution, true),
		Entry("grid", "grid", fit.Grid, true),
		Entry("unknown", "anneal", fit.DifferentialEvolution, false),
	)
})
