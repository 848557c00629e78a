package utils

// Wrec describes one woman in the merged analysis sample.
type Wrec struct {

	// Unique record identifier from the survey
	ID uint32

	// Age in completed years at the interview
	Age uint8

	// Indicator that the woman had a first birth before the interview
	Birth bool

	// Age at first birth, meaningful only when Birth is true
	BirthAge uint8

	// PSGC province code of residence
	Province uint16

	// Birth year (survey year minus age)
	Cohort uint16

	// New senior-high seats per 1000 school-age population in the
	// province
	Exposure float64

	// Indicator that the birth cohort is bound by the K-12 reform
	Treated bool

	// Survey sampling weight
	Weight float64

	// Completed education category of the household head
	Educ uint8

	// Urban residence indicator
	Urban bool
}

// ReformYear is the year the enhanced basic education act took effect.
const ReformYear = 2013

// DefaultReformCohort is the first birth year fully bound by the added
// senior-high years.
const DefaultReformCohort = 1998

// EligibleCohort reports whether a birth year belongs to the treatment
// era relative to the given cutoff cohort.
func EligibleCohort(cohort, cutoff int) bool {
	return cohort >= cutoff
}
