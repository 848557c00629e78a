package regress_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/eykalynet/k12-schooling-fertility/regress"
)

func TestStars(t *testing.T) {

	convey.Convey("Star markers honor the conventional thresholds", t, func() {
		cases := []struct {
			p    float64
			want string
		}{
			{0.0099, "***"},
			{0.01, "**"},
			{0.049999, "**"},
			{0.05, "*"},
			{0.0999, "*"},
			{0.10, ""},
			{0.5, ""},
		}
		for _, c := range cases {
			convey.So(regress.Stars(c.p), convey.ShouldEqual, c.want)
		}
	})
}

func TestPValue(t *testing.T) {

	convey.Convey("With many degrees of freedom the t distribution is close to normal", t, func() {
		p := regress.PValue(1000000, 1.959964)
		convey.So(p, convey.ShouldAlmostEqual, 0.05, 1e-3)
	})

	convey.Convey("The p-value falls as the statistic grows", t, func() {
		convey.So(regress.PValue(30, 3), convey.ShouldBeLessThan, regress.PValue(30, 2))
		convey.So(regress.PValue(30, 2), convey.ShouldBeLessThan, regress.PValue(30, 1))
	})

	convey.Convey("The sign of the statistic does not matter", t, func() {
		convey.So(regress.PValue(30, -2.5), convey.ShouldAlmostEqual, regress.PValue(30, 2.5), 1e-12)
	})
}
