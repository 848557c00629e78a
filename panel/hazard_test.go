package panel_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/eykalynet/k12-schooling-fertility/panel"
)

func TestHazard(t *testing.T) {

	convey.Convey("Given four equally weighted person-years at one age with one event", t, func() {
		pp := []panel.Prec{
			{ID: 1, Age: 15, Event: 1, Weight: 2},
			{ID: 2, Age: 15, Event: 0, Weight: 2},
			{ID: 3, Age: 15, Event: 0, Weight: 2},
			{ID: 4, Age: 15, Event: 0, Weight: 2},
		}
		hz, err := panel.Hazard(pp, 12, 19)
		convey.So(err, convey.ShouldBeNil)
		convey.So(len(hz), convey.ShouldEqual, 1)
		h := hz[0]

		convey.Convey("The hazard is the weighted event share", func() {
			convey.So(h.Rate, convey.ShouldAlmostEqual, 0.25, 1e-12)
		})

		convey.Convey("The standard error uses the effective sample size", func() {
			// W = 8, W2 = 16, Neff = 4; sqrt(0.25*0.75/4)
			convey.So(h.W, convey.ShouldAlmostEqual, 8, 1e-12)
			convey.So(h.W2, convey.ShouldAlmostEqual, 16, 1e-12)
			convey.So(h.SE, convey.ShouldAlmostEqual, 0.2165, 1e-4)
		})

		convey.Convey("The confidence bounds stay inside the unit interval", func() {
			convey.So(h.Lo, convey.ShouldBeGreaterThanOrEqualTo, 0)
			convey.So(h.Hi, convey.ShouldBeLessThanOrEqualTo, 1)
		})
	})

	convey.Convey("Given a degenerate age where every person-year has an event", t, func() {
		pp := []panel.Prec{
			{ID: 1, Age: 13, Event: 1, Weight: 1},
			{ID: 2, Age: 13, Event: 1, Weight: 1},
		}
		hz, err := panel.Hazard(pp, 12, 19)
		convey.So(err, convey.ShouldBeNil)
		convey.So(len(hz), convey.ShouldEqual, 1)

		convey.Convey("The clipped interval collapses at the boundary", func() {
			convey.So(hz[0].Rate, convey.ShouldAlmostEqual, 1, 1e-12)
			convey.So(hz[0].SE, convey.ShouldAlmostEqual, 0, 1e-12)
			convey.So(hz[0].Hi, convey.ShouldEqual, 1)
		})
	})

	convey.Convey("Ages are reported in increasing order", t, func() {
		pp := []panel.Prec{
			{ID: 1, Age: 18, Event: 0, Weight: 1},
			{ID: 1, Age: 14, Event: 0, Weight: 1},
			{ID: 1, Age: 16, Event: 0, Weight: 1},
		}
		hz, err := panel.Hazard(pp, 12, 19)
		convey.So(err, convey.ShouldBeNil)
		convey.So(len(hz), convey.ShouldEqual, 3)
		convey.So(hz[0].Age, convey.ShouldEqual, 14)
		convey.So(hz[1].Age, convey.ShouldEqual, 16)
		convey.So(hz[2].Age, convey.ShouldEqual, 18)
	})
}
