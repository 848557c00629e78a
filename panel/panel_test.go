package panel_test

import (
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/eykalynet/k12-schooling-fertility/panel"
	"github.com/eykalynet/k12-schooling-fertility/utils"
)

func woman(id uint32, age uint8, birthAge uint8) utils.Wrec {
	w := utils.Wrec{
		ID:       id,
		Age:      age,
		Province: 7022,
		Cohort:   1999,
		Exposure: 2.5,
		Treated:  true,
		Weight:   1.25,
		Educ:     3,
		Urban:    true,
	}
	if birthAge > 0 {
		w.Birth = true
		w.BirthAge = birthAge
	}
	return w
}

func TestBuild(t *testing.T) {

	convey.Convey("Given a woman interviewed at 17 with no birth", t, func() {
		pp, err := panel.Build([]utils.Wrec{woman(1, 17, 0)}, 12, 19)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("She contributes one person-year per age from 12 to 17", func() {
			convey.So(len(pp), convey.ShouldEqual, 6)
			for i, p := range pp {
				convey.So(p.Age, convey.ShouldEqual, 12+i)
				convey.So(p.Event, convey.ShouldEqual, 0)
			}
		})

		convey.Convey("Covariates are copied onto every person-year", func() {
			for _, p := range pp {
				convey.So(p.Province, convey.ShouldEqual, 7022)
				convey.So(p.Weight, convey.ShouldEqual, 1.25)
				convey.So(p.Treated, convey.ShouldEqual, 1)
			}
		})
	})

	convey.Convey("Given a woman with a first birth at 15, interviewed at 19", t, func() {
		pp, err := panel.Build([]utils.Wrec{woman(2, 19, 15)}, 12, 19)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("She leaves the risk set at the event", func() {
			convey.So(len(pp), convey.ShouldEqual, 4)
			convey.So(pp[len(pp)-1].Age, convey.ShouldEqual, 15)
			convey.So(pp[len(pp)-1].Event, convey.ShouldEqual, 1)
			for _, p := range pp[:len(pp)-1] {
				convey.So(p.Event, convey.ShouldEqual, 0)
			}
		})
	})

	convey.Convey("Given a woman interviewed above the window maximum", t, func() {
		pp, err := panel.Build([]utils.Wrec{woman(3, 25, 0)}, 12, 19)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Her person-years are capped at the maximum age", func() {
			convey.So(len(pp), convey.ShouldEqual, 8)
			convey.So(pp[len(pp)-1].Age, convey.ShouldEqual, 19)
		})
	})

	convey.Convey("Given a woman interviewed below the window minimum", t, func() {
		pp, err := panel.Build([]utils.Wrec{woman(4, 11, 0)}, 12, 19)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("She contributes no person-years", func() {
			convey.So(len(pp), convey.ShouldEqual, 0)
		})
	})

	convey.Convey("Given an inverted risk window", t, func() {
		_, err := panel.Build([]utils.Wrec{woman(5, 17, 0)}, 19, 12)
		convey.So(errors.Is(err, panel.ErrBadWindow), convey.ShouldBeTrue)
	})

	convey.Convey("Given a record with a missing weight", t, func() {
		w := woman(6, 17, 0)
		w.Weight = 0
		_, err := panel.Build([]utils.Wrec{w}, 12, 19)
		convey.So(errors.Is(err, panel.ErrMissingField), convey.ShouldBeTrue)
	})
}

func TestToTable(t *testing.T) {

	convey.Convey("Given an expanded panel", t, func() {
		pp, err := panel.Build([]utils.Wrec{woman(1, 14, 0), woman(2, 16, 13)}, 12, 19)
		convey.So(err, convey.ShouldBeNil)

		tbl, err := panel.ToTable(pp)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("The table has one row per person-year", func() {
			convey.So(tbl.N(), convey.ShouldEqual, len(pp))
		})

		convey.Convey("The interaction column is the exposure-treatment product", func() {
			ex, err := tbl.Col("Exposure")
			convey.So(err, convey.ShouldBeNil)
			tr, err := tbl.Col("Treated")
			convey.So(err, convey.ShouldBeNil)
			et, err := tbl.Col("ExposureTreated")
			convey.So(err, convey.ShouldBeNil)
			for i := range et {
				convey.So(et[i], convey.ShouldEqual, ex[i]*tr[i])
			}
		})
	})
}
