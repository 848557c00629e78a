package regress_test

import (
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/eykalynet/k12-schooling-fertility/regress"
	"github.com/eykalynet/k12-schooling-fertility/sample"
)

// mktable builds a small table for engine tests.
func mktable(names []string, cols ...[]float64) *sample.Table {
	t, err := sample.New(names, cols)
	if err != nil {
		panic(err)
	}
	return t
}

// wlsSlope computes the weighted simple-regression slope of y on x
// after subtracting the weighted means implied by the group labels
// (all rows in one group when g is nil).
func wlsSlope(y, x, w []float64, g []float64) float64 {

	if g == nil {
		g = make([]float64, len(y))
	}
	sw := make(map[float64]float64)
	sx := make(map[float64]float64)
	sy := make(map[float64]float64)
	for i := range y {
		sw[g[i]] += w[i]
		sx[g[i]] += w[i] * x[i]
		sy[g[i]] += w[i] * y[i]
	}
	num, den := 0.0, 0.0
	for i := range y {
		dx := x[i] - sx[g[i]]/sw[g[i]]
		dy := y[i] - sy[g[i]]/sw[g[i]]
		num += w[i] * dx * dy
		den += w[i] * dx * dx
	}
	return num / den
}

func TestFEWLS(t *testing.T) {

	x := []float64{1, 2, 3, 4, 5, 6}
	y := []float64{3.1, 4.9, 7.2, 8.8, 11.1, 12.9} // 2x+1 plus noise
	w := []float64{1, 1, 1, 1, 1, 1}
	cl := []float64{1, 1, 1, 2, 2, 2}
	g := []float64{1, 1, 2, 2, 3, 3}

	eng := regress.NewFEWLS()

	convey.Convey("Given a plain weighted regression with an intercept", t, func() {
		tbl := mktable([]string{"Y", "X", "W", "C"}, y, x, w, cl)
		res, err := eng.Fit(tbl, regress.Spec{
			Outcome: "Y", Focal: "X", Cluster: "C", Weight: "W",
		})
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("The slope matches the closed form", func() {
			convey.So(res.Coef, convey.ShouldAlmostEqual, wlsSlope(y, x, w, nil), 1e-10)
		})

		convey.Convey("Bookkeeping fields are consistent", func() {
			convey.So(res.N, convey.ShouldEqual, 6)
			convey.So(res.DFResid, convey.ShouldEqual, 4) // n - slope - intercept
			convey.So(res.SE, convey.ShouldBeGreaterThan, 0)
			convey.So(res.P, convey.ShouldBeBetween, 0, 1)
			convey.So(res.R2, convey.ShouldBeBetween, 0.9, 1)
		})
	})

	convey.Convey("Given one-way fixed-effect absorption", t, func() {
		tbl := mktable([]string{"Y", "X", "W", "C", "G"}, y, x, w, cl, g)
		res, err := eng.Fit(tbl, regress.Spec{
			Outcome: "Y", Focal: "X", Absorb: []string{"G"},
			Cluster: "C", Weight: "W",
		})
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("The slope matches the within-group closed form", func() {
			convey.So(res.Coef, convey.ShouldAlmostEqual, wlsSlope(y, x, w, g), 1e-8)
		})

		convey.Convey("Absorbed levels reduce the residual degrees of freedom", func() {
			convey.So(res.DFResid, convey.ShouldEqual, 2) // n - 1 - 3 levels
		})
	})

	convey.Convey("Given unequal weights", t, func() {
		wu := []float64{1, 2, 1, 3, 1, 2}
		tbl := mktable([]string{"Y", "X", "W", "C", "G"}, y, x, wu, cl, g)
		res, err := eng.Fit(tbl, regress.Spec{
			Outcome: "Y", Focal: "X", Absorb: []string{"G"},
			Cluster: "C", Weight: "W",
		})
		convey.So(err, convey.ShouldBeNil)
		convey.So(res.Coef, convey.ShouldAlmostEqual, wlsSlope(y, x, wu, g), 1e-8)
	})

	convey.Convey("Given a collinear design", t, func() {
		tbl := mktable([]string{"Y", "X", "X2", "W", "C"}, y, x, x, w, cl)
		_, err := eng.Fit(tbl, regress.Spec{
			Outcome: "Y", Focal: "X", Controls: []string{"X2"},
			Cluster: "C", Weight: "W",
		})
		var fe *regress.FitError
		convey.So(errors.As(err, &fe), convey.ShouldBeTrue)
	})

	convey.Convey("Given a single cluster", t, func() {
		one := []float64{1, 1, 1, 1, 1, 1}
		tbl := mktable([]string{"Y", "X", "W", "C"}, y, x, w, one)
		_, err := eng.Fit(tbl, regress.Spec{
			Outcome: "Y", Focal: "X", Cluster: "C", Weight: "W",
		})
		var fe *regress.FitError
		convey.So(errors.As(err, &fe), convey.ShouldBeTrue)
	})

	convey.Convey("Given a missing variable", t, func() {
		tbl := mktable([]string{"Y", "X", "W", "C"}, y, x, w, cl)
		_, err := eng.Fit(tbl, regress.Spec{
			Outcome: "Z", Focal: "X", Cluster: "C", Weight: "W",
		})
		var fe *regress.FitError
		convey.So(errors.As(err, &fe), convey.ShouldBeTrue)
	})

	convey.Convey("Given too few observations for the absorbed effects", t, func() {
		tbl := mktable([]string{"Y", "X", "W", "C", "G"},
			y[:3], x[:3], w[:3], cl[:3], []float64{1, 2, 3})
		_, err := eng.Fit(tbl, regress.Spec{
			Outcome: "Y", Focal: "X", Absorb: []string{"G"},
			Cluster: "C", Weight: "W",
		})
		var fe *regress.FitError
		convey.So(errors.As(err, &fe), convey.ShouldBeTrue)
	})
}
