package panel

import (
	"fmt"
	"math"
	"sort"
)

// AgeHazard is the weighted empirical first-birth hazard at one age.
type AgeHazard struct {

	// Age in years
	Age int

	// Number of person-years at risk
	N int

	// Sum of weights, weighted events, and squared weights
	W, WE, W2 float64

	// Hazard rate WE/W
	Rate float64

	// Standard error based on the effective sample size
	SE float64

	// 95% confidence bounds, clipped to [0, 1]
	Lo, Hi float64
}

// Hazard computes the weighted empirical hazard of a first birth at
// each age present in the person-year panel.  The standard error uses
// the effective sample size W^2/sum(w^2), not the raw count; with
// unequal survey weights the raw count overstates precision.
func Hazard(pp []Prec, minAge, maxAge int) ([]AgeHazard, error) {

	if minAge >= maxAge {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrBadWindow, minAge, maxAge)
	}

	acc := make(map[int]*AgeHazard)
	for _, p := range pp {
		if p.Age < minAge || p.Age > maxAge {
			continue
		}
		h := acc[p.Age]
		if h == nil {
			h = &AgeHazard{Age: p.Age}
			acc[p.Age] = h
		}
		h.N++
		h.W += p.Weight
		h.WE += p.Weight * p.Event
		h.W2 += p.Weight * p.Weight
	}

	var hz []AgeHazard
	for _, h := range acc {
		if h.W <= 0 || h.W2 <= 0 {
			continue
		}
		h.Rate = h.WE / h.W
		neff := h.W * h.W / h.W2
		h.SE = math.Sqrt(h.Rate * (1 - h.Rate) / neff)
		h.Lo = clip01(h.Rate - 1.96*h.SE)
		h.Hi = clip01(h.Rate + 1.96*h.SE)
		hz = append(hz, *h)
	}
	sort.Slice(hz, func(i, j int) bool { return hz[i].Age < hz[j].Age })

	return hz, nil
}

func clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
