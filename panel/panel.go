// Package panel expands the woman-level sample into a person-year
// panel for discrete-time hazard analysis of first births.
package panel

import (
	"errors"
	"fmt"

	"github.com/eykalynet/k12-schooling-fertility/sample"
	"github.com/eykalynet/k12-schooling-fertility/utils"
)

var (
	// ErrBadWindow indicates an empty or inverted risk window.
	ErrBadWindow = errors.New("risk window requires min age below max age")

	// ErrMissingField indicates a record with a missing required
	// field that was not filtered out upstream.
	ErrMissingField = errors.New("record is missing a required field")
)

// Prec is one person-year of exposure to the risk of a first birth.
type Prec struct {

	// Woman identifier
	ID uint32

	// Age in years during this person-year
	Age int

	// 1 if the first birth occurs at this age, else 0
	Event float64

	// Covariates copied from the woman record
	Province float64
	Cohort   float64
	Exposure float64
	Treated  float64
	Weight   float64
	Educ     float64
	Urban    float64
}

// Build expands woman records into person-years covering integer ages
// minAge through min(age at interview, maxAge).  A woman contributes
// one row per age until her first birth, after which she leaves the
// risk set; women interviewed before reaching minAge contribute no
// rows.
//
// Women whose first birth predates minAge must be removed by the
// caller before expansion (ingest does this); Build does not re-check
// that condition.
func Build(women []utils.Wrec, minAge, maxAge int) ([]Prec, error) {

	if minAge >= maxAge {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrBadWindow, minAge, maxAge)
	}

	var pp []Prec
	for _, w := range women {
		if w.Age == 0 || w.Province == 0 || w.Cohort == 0 || w.Weight <= 0 {
			return nil, fmt.Errorf("%w: record %d", ErrMissingField, w.ID)
		}

		upper := int(w.Age)
		if upper > maxAge {
			upper = maxAge
		}
		if upper < minAge {
			continue
		}

		treated := 0.0
		if w.Treated {
			treated = 1
		}
		urban := 0.0
		if w.Urban {
			urban = 1
		}

		for a := minAge; a <= upper; a++ {
			ev := 0.0
			if w.Birth && int(w.BirthAge) == a {
				ev = 1
			}
			pp = append(pp, Prec{
				ID:       w.ID,
				Age:      a,
				Event:    ev,
				Province: float64(w.Province),
				Cohort:   float64(w.Cohort),
				Exposure: w.Exposure,
				Treated:  treated,
				Weight:   w.Weight,
				Educ:     float64(w.Educ),
				Urban:    urban,
			})
			if ev == 1 {
				break
			}
		}
	}

	return pp, nil
}

// panelVars lists the variables of the person-year table, in column
// order.
var panelVars = []string{
	"Age", "Event", "Exposure", "Treated", "ExposureTreated",
	"Province", "Cohort", "Weight", "Educ", "Urban",
}

// Vars returns the variable names of the person-year table.
func Vars() []string {
	return append([]string(nil), panelVars...)
}

// ToTable converts person-years to a column table for regression,
// adding the ExposureTreated interaction.
func ToTable(pp []Prec) (*sample.Table, error) {
	n := len(pp)
	cols := make([][]float64, len(panelVars))
	for j := range cols {
		cols[j] = make([]float64, n)
	}
	for i, p := range pp {
		cols[0][i] = float64(p.Age)
		cols[1][i] = p.Event
		cols[2][i] = p.Exposure
		cols[3][i] = p.Treated
		cols[4][i] = p.Exposure * p.Treated
		cols[5][i] = p.Province
		cols[6][i] = p.Cohort
		cols[7][i] = p.Weight
		cols[8][i] = p.Educ
		cols[9][i] = p.Urban
	}
	return sample.New(Vars(), cols)
}
