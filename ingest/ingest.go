// Package ingest reads the survey and administrative source files,
// builds the province exposure measure, and produces the merged
// woman-level sample consumed by the rest of the pipeline.
package ingest

import (
	"compress/gzip"
	"encoding/csv"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/eykalynet/k12-schooling-fertility/utils"
)

var (
	// ErrBadRecord indicates a malformed row in a source file.
	ErrBadRecord = errors.New("malformed source record")
)

// ReadWomen parses the women's survey extract.  Expected columns:
// id, age, age_first_birth (blank when no birth), province, weight,
// educ, urban.  The birth cohort is derived from the survey year.
func ReadWomen(path string, surveyYear int) ([]utils.Wrec, error) {

	fid, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fid.Close()

	rdr := csv.NewReader(fid)
	rdr.FieldsPerRecord = 7

	// Header row
	if _, err := rdr.Read(); err != nil {
		return nil, err
	}

	var women []utils.Wrec
	line := 1
	for {
		rec, err := rdr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		line++

		id, err := strconv.ParseUint(rec[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: id %q", ErrBadRecord, line, rec[0])
		}
		age, err := strconv.ParseUint(rec[1], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: age %q", ErrBadRecord, line, rec[1])
		}

		var birth bool
		var birthAge uint64
		if s := strings.TrimSpace(rec[2]); s != "" {
			birthAge, err = strconv.ParseUint(s, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: age_first_birth %q", ErrBadRecord, line, s)
			}
			birth = true
		}

		prov, err := strconv.ParseUint(rec[3], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: province %q", ErrBadRecord, line, rec[3])
		}
		wgt, err := strconv.ParseFloat(rec[4], 64)
		if err != nil || wgt <= 0 {
			return nil, fmt.Errorf("%w: line %d: weight %q", ErrBadRecord, line, rec[4])
		}
		educ, err := strconv.ParseUint(rec[5], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: educ %q", ErrBadRecord, line, rec[5])
		}
		urban := rec[6] == "1"

		women = append(women, utils.Wrec{
			ID:       uint32(id),
			Age:      uint8(age),
			Birth:    birth,
			BirthAge: uint8(birthAge),
			Province: uint16(prov),
			Cohort:   uint16(surveyYear - int(age)),
			Weight:   wgt,
			Educ:     uint8(educ),
			Urban:    urban,
		})
	}

	return women, nil
}

// ReadSchools parses the school-construction file (columns: province,
// year_opened, seats) and totals the senior-high seats opened from the
// reform year onward, by province.
func ReadSchools(path string) (map[uint16]float64, error) {

	fid, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fid.Close()

	rdr := csv.NewReader(fid)
	rdr.FieldsPerRecord = 3
	if _, err := rdr.Read(); err != nil {
		return nil, err
	}

	seats := make(map[uint16]float64)
	line := 1
	for {
		rec, err := rdr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		line++

		prov, err := strconv.ParseUint(rec[0], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: province %q", ErrBadRecord, line, rec[0])
		}
		year, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: year_opened %q", ErrBadRecord, line, rec[1])
		}
		ns, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: seats %q", ErrBadRecord, line, rec[2])
		}

		if year >= utils.ReformYear {
			seats[uint16(prov)] += ns
		}
	}

	return seats, nil
}

// ReadPopulation parses the school-age population file (columns:
// province, schoolage_pop).
func ReadPopulation(path string) (map[uint16]float64, error) {

	fid, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fid.Close()

	rdr := csv.NewReader(fid)
	rdr.FieldsPerRecord = 2
	if _, err := rdr.Read(); err != nil {
		return nil, err
	}

	pop := make(map[uint16]float64)
	line := 1
	for {
		rec, err := rdr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		line++

		prov, err := strconv.ParseUint(rec[0], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: province %q", ErrBadRecord, line, rec[0])
		}
		np, err := strconv.ParseFloat(rec[1], 64)
		if err != nil || np <= 0 {
			return nil, fmt.Errorf("%w: line %d: schoolage_pop %q", ErrBadRecord, line, rec[1])
		}
		pop[uint16(prov)] = np
	}

	return pop, nil
}

// Exposure computes new senior-high seats per 1000 school-age
// population, by province.  Provinces with population data but no
// recorded construction get zero exposure.
func Exposure(seats, pop map[uint16]float64) map[uint16]float64 {
	exp := make(map[uint16]float64, len(pop))
	for prov, np := range pop {
		exp[prov] = 1000 * seats[prov] / np
	}
	return exp
}

// MergeStats reports what Merge kept and dropped.
type MergeStats struct {
	Kept          int
	DroppedEarly  int // first birth before the risk window
	DroppedNoProv int // province absent from the exposure table
}

// Merge attaches exposure and treatment-era flags to the woman
// records and applies the pre-filters the panel expansion relies on:
// women whose first birth predates minAge are dropped, as are women
// in provinces without exposure data.
func Merge(women []utils.Wrec, exposure map[uint16]float64, reformCohort, minAge int) ([]utils.Wrec, MergeStats) {

	var kept []utils.Wrec
	var st MergeStats
	for _, w := range women {
		if w.Birth && int(w.BirthAge) < minAge {
			st.DroppedEarly++
			continue
		}
		e, ok := exposure[w.Province]
		if !ok {
			st.DroppedNoProv++
			continue
		}
		w.Exposure = e
		w.Treated = utils.EligibleCohort(int(w.Cohort), reformCohort)
		kept = append(kept, w)
	}
	st.Kept = len(kept)
	return kept, st
}

// gobHeader precedes the woman records in the merged sample file.
type gobHeader struct {
	SurveyYear   int
	ReformCohort int
}

// WriteGob stores the merged sample as a gzipped gob stream: a header
// followed by one record per woman.
func WriteGob(path string, women []utils.Wrec, surveyYear, reformCohort int) error {

	fid, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fid.Close()
	gid := gzip.NewWriter(fid)
	defer gid.Close()

	enc := gob.NewEncoder(gid)
	if err := enc.Encode(gobHeader{SurveyYear: surveyYear, ReformCohort: reformCohort}); err != nil {
		return err
	}
	for i := range women {
		if err := enc.Encode(&women[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReadGob reads back a merged sample file.
func ReadGob(path string) ([]utils.Wrec, error) {

	fid, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fid.Close()
	gid, err := gzip.NewReader(fid)
	if err != nil {
		return nil, err
	}
	defer gid.Close()

	dec := gob.NewDecoder(gid)
	var hdr gobHeader
	if err := dec.Decode(&hdr); err != nil {
		return nil, err
	}

	var women []utils.Wrec
	for {
		var w utils.Wrec
		err := dec.Decode(&w)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		women = append(women, w)
	}
	return women, nil
}
