// Package sample holds the in-memory column table that the regression
// and resampling code operate on.
package sample

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kshedden/dstream/dstream"

	"github.com/eykalynet/k12-schooling-fertility/utils"
)

var (
	// ErrNoColumn indicates a request for a variable the table does
	// not contain.
	ErrNoColumn = errors.New("no such column")

	// ErrBadShape indicates columns of unequal length or a duplicate
	// variable name.
	ErrBadShape = errors.New("malformed table")
)

// Table is a column-oriented data set with float64 variables.  A Table
// is treated as read-only once built; Filter and Exclude return fresh
// copies and never alias the receiver's storage.
type Table struct {
	names []string
	cols  [][]float64
	index map[string]int
}

// New builds a Table from variable names and columns of equal length.
func New(names []string, cols [][]float64) (*Table, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("%w: %d names for %d columns", ErrBadShape, len(names), len(cols))
	}
	index := make(map[string]int, len(names))
	n := -1
	for i, na := range names {
		if _, ok := index[na]; ok {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrBadShape, na)
		}
		index[na] = i
		if n == -1 {
			n = len(cols[i])
		} else if len(cols[i]) != n {
			return nil, fmt.Errorf("%w: column %q has %d values, want %d", ErrBadShape, na, len(cols[i]), n)
		}
	}
	return &Table{names: names, cols: cols, index: index}, nil
}

// N returns the number of rows.
func (t *Table) N() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0])
}

// Names returns the variable names in column order.
func (t *Table) Names() []string {
	return t.names
}

// Col returns the backing slice for a variable.  Callers must not
// modify the returned values.
func (t *Table) Col(name string) ([]float64, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	return t.cols[j], nil
}

// Filter returns a new Table containing the rows for which keep is
// true.  The result owns its storage.
func (t *Table) Filter(keep func(i int) bool) *Table {
	var rows []int
	for i := 0; i < t.N(); i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	cols := make([][]float64, len(t.cols))
	for j, c := range t.cols {
		nc := make([]float64, len(rows))
		for k, i := range rows {
			nc[k] = c[i]
		}
		cols[j] = nc
	}
	names := make([]string, len(t.names))
	copy(names, t.names)
	index := make(map[string]int, len(names))
	for j, na := range names {
		index[na] = j
	}
	return &Table{names: names, cols: cols, index: index}
}

// Exclude returns a new Table without the rows where the named variable
// equals value.
func (t *Table) Exclude(name string, value float64) (*Table, error) {
	c, err := t.Col(name)
	if err != nil {
		return nil, err
	}
	return t.Filter(func(i int) bool { return c[i] != value }), nil
}

// Levels returns the sorted distinct values of a variable.
func (t *Table) Levels(name string) ([]float64, error) {
	c, err := t.Col(name)
	if err != nil {
		return nil, err
	}
	seen := make(map[float64]bool)
	var lv []float64
	for _, v := range c {
		if !seen[v] {
			seen[v] = true
			lv = append(lv, v)
		}
	}
	sort.Float64s(lv)
	return lv, nil
}

// FromDstream materializes the named variables of a Dstream into a
// Table.
func FromDstream(ds dstream.Dstream, names []string) (*Table, error) {
	cols := make([][]float64, len(names))
	for j, na := range names {
		ds.Reset()
		c, ok := dstream.GetCol(ds, na).([]float64)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not float64", ErrNoColumn, na)
		}
		cols[j] = c
	}
	na := make([]string, len(names))
	copy(na, names)
	return New(na, cols)
}

// womenVars lists the variables of a woman-level analysis table, in
// column order.
var womenVars = []string{
	"TeenBirth", "BirthBy20", "Exposure", "Treated", "ExposureTreated",
	"Province", "Cohort", "Weight", "Educ", "Urban",
}

// FromWomen builds the woman-level analysis table used by the
// difference-in-differences and leave-one-out runs.  TeenBirth is an
// indicator of a first birth before age 18, BirthBy20 before age 20.
func FromWomen(women []utils.Wrec) (*Table, error) {
	n := len(women)
	cols := make([][]float64, len(womenVars))
	for j := range cols {
		cols[j] = make([]float64, n)
	}
	for i, w := range women {
		if w.Birth && w.BirthAge < 18 {
			cols[0][i] = 1
		}
		if w.Birth && w.BirthAge < 20 {
			cols[1][i] = 1
		}
		cols[2][i] = w.Exposure
		if w.Treated {
			cols[3][i] = 1
		}
		cols[4][i] = cols[2][i] * cols[3][i]
		cols[5][i] = float64(w.Province)
		cols[6][i] = float64(w.Cohort)
		cols[7][i] = w.Weight
		cols[8][i] = float64(w.Educ)
		if w.Urban {
			cols[9][i] = 1
		}
	}
	return New(append([]string(nil), womenVars...), cols)
}
