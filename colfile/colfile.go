// Package colfile writes float64 variables as compressed binary
// column files with a dtypes.json manifest, the layout read back by
// dstream.NewBCols.
package colfile

import (
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/eykalynet/k12-schooling-fertility/panel"
	"github.com/eykalynet/k12-schooling-fertility/utils"
)

// Writer manages output for one variable.
type Writer struct {
	fw io.WriteCloser
	zw *gzip.Writer
}

// NewWriter creates dir/<name>.bin.gz for writing.
func NewWriter(dir, name string) (*Writer, error) {
	fw, err := os.Create(path.Join(dir, fmt.Sprintf("%s.bin.gz", name)))
	if err != nil {
		return nil, err
	}
	return &Writer{fw: fw, zw: gzip.NewWriter(fw)}, nil
}

// Append writes one value to the column.
func (w *Writer) Append(x float64) error {
	return binary.Write(w.zw, binary.LittleEndian, x)
}

// Close flushes and closes the writers.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil { // order is important here
		w.fw.Close()
		return err
	}
	return w.fw.Close()
}

// WriteDtypes writes the dtypes.json manifest declaring each variable
// float64.
func WriteDtypes(dir string, names []string) error {
	dt := make(map[string]string, len(names))
	for _, na := range names {
		dt[na] = "float64"
	}
	out, err := os.Create(path.Join(dir, "dtypes.json"))
	if err != nil {
		return err
	}
	defer out.Close()
	return json.NewEncoder(out).Encode(&dt)
}

// writeCols streams n rows through per-variable extractors.
func writeCols(dir string, names []string, n int, get func(i, j int) float64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	ws := make([]*Writer, len(names))
	for j, na := range names {
		w, err := NewWriter(dir, na)
		if err != nil {
			return err
		}
		ws[j] = w
	}
	for i := 0; i < n; i++ {
		for j := range names {
			if err := ws[j].Append(get(i, j)); err != nil {
				return err
			}
		}
	}
	for _, w := range ws {
		if err := w.Close(); err != nil {
			return err
		}
	}
	return WriteDtypes(dir, names)
}

// WritePanel stores a person-year panel as binary columns.
func WritePanel(dir string, pp []panel.Prec) error {
	names := panel.Vars()
	return writeCols(dir, names, len(pp), func(i, j int) float64 {
		p := pp[i]
		switch names[j] {
		case "Age":
			return float64(p.Age)
		case "Event":
			return p.Event
		case "Exposure":
			return p.Exposure
		case "Treated":
			return p.Treated
		case "ExposureTreated":
			return p.Exposure * p.Treated
		case "Province":
			return p.Province
		case "Cohort":
			return p.Cohort
		case "Weight":
			return p.Weight
		case "Educ":
			return p.Educ
		default:
			return p.Urban
		}
	})
}

// womenVars lists the woman-level variables stored for the survival
// diagnostics: Time is the age at first birth, or the age at interview
// when censored, and Status marks an observed birth.
var womenVars = []string{
	"Time", "Status", "Exposure", "Treated", "ExposureTreated",
	"Weight", "Educ", "Urban",
}

// WriteWomen stores the woman-level survival variables as binary
// columns.
func WriteWomen(dir string, women []utils.Wrec) error {
	return writeCols(dir, womenVars, len(women), func(i, j int) float64 {
		w := women[i]
		treated := 0.0
		if w.Treated {
			treated = 1
		}
		switch womenVars[j] {
		case "Time":
			if w.Birth {
				return float64(w.BirthAge)
			}
			return float64(w.Age)
		case "Status":
			if w.Birth {
				return 1
			}
			return 0
		case "Exposure":
			return w.Exposure
		case "Treated":
			return treated
		case "ExposureTreated":
			return w.Exposure * treated
		case "Weight":
			return w.Weight
		case "Educ":
			return float64(w.Educ)
		default:
			if w.Urban {
				return 1
			}
			return 0
		}
	})
}
