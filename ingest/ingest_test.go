package ingest_test

import (
	"errors"
	"os"
	"path"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/eykalynet/k12-schooling-fertility/ingest"
	"github.com/eykalynet/k12-schooling-fertility/utils"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := path.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestReadWomen(t *testing.T) {

	convey.Convey("Given a survey extract", t, func() {
		dir := t.TempDir()
		p := writeFile(t, dir, "women.csv",
			"id,age,age_first_birth,province,weight,educ,urban\n"+
				"1,22,16,7022,1.5,2,1\n"+
				"2,24,,1028,2.0,3,0\n")

		women, err := ingest.ReadWomen(p, 2022)
		convey.So(err, convey.ShouldBeNil)
		convey.So(len(women), convey.ShouldEqual, 2)

		convey.Convey("Fields and the derived cohort are populated", func() {
			convey.So(women[0].Birth, convey.ShouldBeTrue)
			convey.So(women[0].BirthAge, convey.ShouldEqual, 16)
			convey.So(women[0].Cohort, convey.ShouldEqual, 2000)
			convey.So(women[0].Urban, convey.ShouldBeTrue)
			convey.So(women[1].Birth, convey.ShouldBeFalse)
			convey.So(women[1].Cohort, convey.ShouldEqual, 1998)
		})
	})

	convey.Convey("Given a non-positive weight", t, func() {
		dir := t.TempDir()
		p := writeFile(t, dir, "women.csv",
			"id,age,age_first_birth,province,weight,educ,urban\n"+
				"1,22,16,7022,0,2,1\n")
		_, err := ingest.ReadWomen(p, 2022)
		convey.So(errors.Is(err, ingest.ErrBadRecord), convey.ShouldBeTrue)
	})
}

func TestExposure(t *testing.T) {

	convey.Convey("Given school and population files", t, func() {
		dir := t.TempDir()
		sp := writeFile(t, dir, "schools.csv",
			"province,year_opened,seats\n"+
				"7022,2014,800\n"+
				"7022,2012,500\n"+ // pre-reform, not counted
				"1028,2015,200\n")
		pp := writeFile(t, dir, "pop.csv",
			"province,schoolage_pop\n"+
				"7022,40000\n"+
				"1028,20000\n")

		seats, err := ingest.ReadSchools(sp)
		convey.So(err, convey.ShouldBeNil)
		pop, err := ingest.ReadPopulation(pp)
		convey.So(err, convey.ShouldBeNil)

		exp := ingest.Exposure(seats, pop)

		convey.Convey("Exposure is new seats per 1000 school-age population", func() {
			convey.So(exp[7022], convey.ShouldAlmostEqual, 20, 1e-12)
			convey.So(exp[1028], convey.ShouldAlmostEqual, 10, 1e-12)
		})
	})
}

func TestMerge(t *testing.T) {

	convey.Convey("Given women and an exposure table", t, func() {
		women := []utils.Wrec{
			{ID: 1, Age: 22, Cohort: 2000, Province: 7022, Weight: 1},
			{ID: 2, Age: 30, Cohort: 1992, Province: 7022, Weight: 1},
			{ID: 3, Age: 22, Cohort: 2000, Province: 9999, Weight: 1},
			{ID: 4, Age: 22, Cohort: 2000, Province: 7022, Weight: 1, Birth: true, BirthAge: 10},
		}
		exp := map[uint16]float64{7022: 20}

		merged, st := ingest.Merge(women, exp, 1998, 12)

		convey.Convey("Pre-filters drop early births and unmatched provinces", func() {
			convey.So(st.Kept, convey.ShouldEqual, 2)
			convey.So(st.DroppedEarly, convey.ShouldEqual, 1)
			convey.So(st.DroppedNoProv, convey.ShouldEqual, 1)
		})

		convey.Convey("Exposure and treatment era are attached", func() {
			convey.So(merged[0].Exposure, convey.ShouldAlmostEqual, 20, 1e-12)
			convey.So(merged[0].Treated, convey.ShouldBeTrue)
			convey.So(merged[1].Treated, convey.ShouldBeFalse)
		})
	})
}

func TestGobRoundTrip(t *testing.T) {

	convey.Convey("The merged sample survives a write and read", t, func() {
		dir := t.TempDir()
		p := path.Join(dir, "women.gob.gz")
		women := []utils.Wrec{
			{ID: 1, Age: 22, Cohort: 2000, Province: 7022, Weight: 1.5,
				Exposure: 20, Treated: true, Birth: true, BirthAge: 16},
			{ID: 2, Age: 30, Cohort: 1992, Province: 1028, Weight: 2, Exposure: 10},
		}

		convey.So(ingest.WriteGob(p, women, 2022, 1998), convey.ShouldBeNil)

		back, err := ingest.ReadGob(p)
		convey.So(err, convey.ShouldBeNil)
		convey.So(back, convey.ShouldResemble, women)
	})
}
