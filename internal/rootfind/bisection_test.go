package rootfind_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/linkage/internal/rootfind"
)

// counted wraps f and records how often it is evaluated.
func counted(f rootfind.Func) (rootfind.Func, *int) {
	n := 0
	return func(x float64) float64 {
		n++
		return f(x)
	}, &n
}

var _ = Describe("Bisection", func() {
	var solver *rootfind.Bisection

	BeforeEach(func() {
		solver = rootfind.NewBisection()
	})

	Describe("converging on a root", func() {
		It("finds the root of a line", func() {
			root, err := rootfind.Bisect(func(x float64) float64 { return x - 0.2 }, 0, 0.5, 1e-8, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(root).To(BeNumerically("~", 0.2, 1e-8))
		})

		It("finds sqrt(2) as the root of x^2 - 2", func() {
			root, err := rootfind.Bisect(func(x float64) float64 { return x*x - 2 }, 0, 2, 1e-10, 200)
			Expect(err).NotTo(HaveOccurred())
			Expect(root).To(BeNumerically("~", math.Sqrt2, 1e-10))
		})

		It("meets one of the two stopping criteria", func() {
			f := func(x float64) float64 { return math.Cos(x) - x }
			res, err := solver.Solve(f, rootfind.Bracket{A: 0, B: 1}, rootfind.Params{Tol: 1e-9, MaxIter: 100})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())
			Expect(math.Abs(f(res.Root)) < 1e-9 || res.HalfWidth < 1e-9).To(BeTrue())
			Expect(res.FRoot).To(Equal(f(res.Root)))
		})

		It("works on a decreasing function", func() {
			res, err := solver.Solve(func(x float64) float64 { return 3 - x }, rootfind.Bracket{A: 0, B: 10}, rootfind.Params{Tol: 1e-10, MaxIter: 200})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Root).To(BeNumerically("~", 3, 1e-10))
		})

		It("keeps the correct half for magnitudes whose products underflow", func() {
			f := func(x float64) float64 { return 1e-200 * (x - 0.3) }
			res, err := solver.Solve(f, rootfind.Bracket{A: 0, B: 1}, rootfind.Params{Tol: 1e-250, MaxIter: 100})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Root).To(BeNumerically("~", 0.3, 1e-12))
		})

		It("evaluates f once per iteration after the bracket check", func() {
			f, n := counted(func(x float64) float64 { return x - 1.0/3 })
			res, err := solver.Solve(f, rootfind.Bracket{A: 0, B: 1}, rootfind.Params{Tol: 1e-9, MaxIter: 100})
			Expect(err).NotTo(HaveOccurred())
			Expect(*n).To(Equal(2 + res.Iterations))
		})
	})

	Describe("bracket halving", func() {
		It("halves the half-width exactly on every iteration", func() {
			var widths []float64
			traced := rootfind.NewBisection(rootfind.WithTrace(func(it rootfind.Iteration) {
				widths = append(widths, it.HalfWidth)
			}))

			res, err := traced.Solve(func(x float64) float64 { return x - 1.0/3 }, rootfind.Bracket{A: 0, B: 1}, rootfind.Params{Tol: 1e-9, MaxIter: 100})
			Expect(err).NotTo(HaveOccurred())
			Expect(widths).To(HaveLen(res.Iterations))
			Expect(widths[0]).To(Equal(0.5))
			for k := 1; k < len(widths); k++ {
				Expect(widths[k]).To(Equal(widths[k-1] / 2))
			}
		})

		It("keeps every midpoint inside the previous bracket", func() {
			var steps []rootfind.Iteration
			traced := rootfind.NewBisection(rootfind.WithTrace(func(it rootfind.Iteration) {
				steps = append(steps, it)
			}))
			_, err := traced.Solve(func(x float64) float64 { return x*x - 2 }, rootfind.Bracket{A: 0, B: 2}, rootfind.Params{Tol: 1e-6, MaxIter: 50})
			Expect(err).NotTo(HaveOccurred())
			for _, it := range steps {
				Expect(it.C).To(BeNumerically(">", it.A))
				Expect(it.C).To(BeNumerically("<", it.B))
			}
		})
	})

	Describe("determinism", func() {
		It("returns identical results for identical inputs", func() {
			f := func(x float64) float64 { return math.Sin(x) }
			br := rootfind.Bracket{A: -1, B: 7}
			p := rootfind.Params{Tol: 1e-12, MaxIter: 100}

			first, err := solver.Solve(f, br, p)
			Expect(err).NotTo(HaveOccurred())
			second, err := solver.Solve(f, br, p)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
			Expect(math.Abs(math.Sin(first.Root))).To(BeNumerically("<", 1e-10))
		})
	})

	Describe("endpoint roots", func() {
		It("accepts a zero at the left end and returns it", func() {
			res, err := solver.Solve(func(x float64) float64 { return x }, rootfind.Bracket{A: 0, B: 1}, rootfind.Params{Tol: 1e-8, MaxIter: 100})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Root).To(BeNumerically("~", 0, 1e-8))
			Expect(res.Converged).To(BeTrue())
			Expect(res.Iterations).To(BeZero())
		})

		It("accepts a zero at the right end and returns it", func() {
			res, err := solver.Solve(func(x float64) float64 { return x - 1 }, rootfind.Bracket{A: 0, B: 1}, rootfind.Params{Tol: 1e-8, MaxIter: 100})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Root).To(BeNumerically("~", 1, 1e-8))
		})
	})

	Describe("invalid brackets", func() {
		It("rejects a bracket without a sign change after two evaluations", func() {
			f, n := counted(func(x float64) float64 { return x*x + 1 })
			_, err := solver.Solve(f, rootfind.Bracket{A: -1, B: 1}, rootfind.DefaultParams())
			Expect(err).To(MatchError(rootfind.ErrInvalidBracket))
			Expect(*n).To(Equal(2))

			var be *rootfind.BracketError
			Expect(errors.As(err, &be)).To(BeTrue())
			Expect(be.FA).To(Equal(2.0))
			Expect(be.FB).To(Equal(2.0))
		})

		It("rejects two negative endpoints", func() {
			_, err := rootfind.Bisect(func(x float64) float64 { return -1 - x*x }, 0, 3, 1e-8, 100)
			Expect(errors.Is(err, rootfind.ErrInvalidBracket)).To(BeTrue())
		})

		It("rejects non-finite endpoint values", func() {
			_, err := solver.Solve(func(x float64) float64 { return math.NaN() }, rootfind.Bracket{A: 0, B: 1}, rootfind.DefaultParams())
			Expect(err).To(MatchError(rootfind.ErrInvalidBracket))
		})
	})

	Describe("non-finite values inside the bracket", func() {
		// Finite at both ends, NaN on (0.95, 1.05); the root is 0.9.
		holed := func(x float64) float64 {
			if x > 0.95 && x < 1.05 {
				return math.NaN()
			}
			return x - 0.9
		}

		It("fails at the first non-finite midpoint instead of guessing a half", func() {
			_, err := solver.Solve(holed, rootfind.Bracket{A: 0, B: 2}, rootfind.DefaultParams())
			Expect(err).To(MatchError(rootfind.ErrNonFinite))
			Expect(errors.Is(err, rootfind.ErrInvalidBracket)).To(BeFalse())

			var ee *rootfind.EvaluationError
			Expect(errors.As(err, &ee)).To(BeTrue())
			Expect(ee.X).To(Equal(1.0))
			Expect(ee.Iteration).To(Equal(1))
			Expect(math.IsNaN(ee.FX)).To(BeTrue())
		})

		It("fails on an infinite midpoint", func() {
			f := func(x float64) float64 {
				if x == 0.5 {
					return math.Inf(1)
				}
				return x - 0.3
			}
			_, err := rootfind.Bisect(f, 0, 1, 1e-8, 100)
			Expect(err).To(MatchError(rootfind.ErrNonFinite))
		})

		It("converges when the midpoints avoid the hole", func() {
			res, err := solver.Solve(holed, rootfind.Bracket{A: 0, B: 0.94}, rootfind.DefaultParams())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Root).To(BeNumerically("~", 0.9, 1e-8))
		})
	})

	DescribeTable("invalid arguments are rejected before evaluating f",
		func(br rootfind.Bracket, p rootfind.Params) {
			f, n := counted(func(x float64) float64 { return x })
			_, err := solver.Solve(f, br, p)
			Expect(err).To(MatchError(rootfind.ErrInvalidArgument))
			Expect(*n).To(BeZero())
		},
		Entry("zero tolerance", rootfind.Bracket{A: -1, B: 1}, rootfind.Params{Tol: 0, MaxIter: 10}),
		Entry("negative tolerance", rootfind.Bracket{A: -1, B: 1}, rootfind.Params{Tol: -1e-6, MaxIter: 10}),
		Entry("NaN tolerance", rootfind.Bracket{A: -1, B: 1}, rootfind.Params{Tol: math.NaN(), MaxIter: 10}),
		Entry("zero budget", rootfind.Bracket{A: -1, B: 1}, rootfind.Params{Tol: 1e-6, MaxIter: 0}),
		Entry("negative budget", rootfind.Bracket{A: -1, B: 1}, rootfind.Params{Tol: 1e-6, MaxIter: -5}),
		Entry("reversed bounds", rootfind.Bracket{A: 1, B: -1}, rootfind.Params{Tol: 1e-6, MaxIter: 10}),
		Entry("empty interval", rootfind.Bracket{A: 1, B: 1}, rootfind.Params{Tol: 1e-6, MaxIter: 10}),
		Entry("infinite bound", rootfind.Bracket{A: math.Inf(-1), B: 1}, rootfind.Params{Tol: 1e-6, MaxIter: 10}),
	)

	Describe("budget exhaustion", func() {
		var (
			logs   *observer.ObservedLogs
			logged *rootfind.Bisection
		)

		BeforeEach(func() {
			var core zapcore.Core
			core, logs = observer.New(zapcore.WarnLevel)
			logged = rootfind.NewBisection(rootfind.WithLogger(zap.New(core)))
		})

		It("returns the best-effort midpoint and logs a diagnostic", func() {
			res, err := logged.Solve(func(x float64) float64 { return x - 0.2 }, rootfind.Bracket{A: 0, B: 0.5}, rootfind.Params{Tol: 1e-300, MaxIter: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeFalse())
			Expect(res.Iterations).To(Equal(3))
			Expect(res.Root).To(Equal(0.21875))
			Expect(res.HalfWidth).To(Equal(0.03125))

			entries := logs.All()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Message).To(Equal("best approximation after 3 iterations: t = 0.21875000"))
			Expect(entries[0].ContextMap()).To(HaveKeyWithValue("iterations", int64(3)))
		})

		It("reports exhaustion of the plain form on the global logger", func() {
			core, global := observer.New(zapcore.WarnLevel)
			DeferCleanup(zap.ReplaceGlobals(zap.New(core)))

			root, err := rootfind.Bisect(func(x float64) float64 { return x - 0.2 }, 0, 0.5, 1e-300, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(root).To(Equal(0.21875))
			Expect(global.FilterMessage("best approximation after 3 iterations: t = 0.21875000").Len()).To(Equal(1))
		})

		It("logs nothing when the solve converges", func() {
			_, err := logged.Solve(func(x float64) float64 { return x - 0.2 }, rootfind.Bracket{A: 0, B: 0.5}, rootfind.DefaultParams())
			Expect(err).NotTo(HaveOccurred())
			Expect(logs.Len()).To(BeZero())
		})
	})
})
