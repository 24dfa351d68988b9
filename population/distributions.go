package population

import (
	"math"
	"math/rand"
)

// NYC-calibrated defaults for the synthetic population. Capacity and
// expected-applications figures come from published school-level data;
// GPA and list-length figures from applicant-level aggregates.
const (
	meanSchoolCapacity = 145
	stdSchoolCapacity  = 128.5

	// Expected number of applications per seat.
	meanExpectedApps = 2.453505
	stdExpectedApps  = 4.072874

	meanGPA = 68.0
	stdGPA  = 8.89

	meanListLength = 7.0
	stdListLength  = 2.0

	// MaxChoices is the hard cap on preference-list length, matching the
	// NYC application form.
	MaxChoices = 12
)

// Distributions bundles the sampling functions and cutoff tables that
// shape a synthetic population. Seat and screen distributions are policy
// inputs, not hardcoded constants, so a different school system's dataset
// can be swapped in.
type Distributions struct {
	// Capacity draws a school's seat count, >= 1.
	Capacity func(*rand.Rand) int

	// ExpectedApps draws the expected applications per seat, >= 0. A
	// school's prior weight is its capacity times this draw.
	ExpectedApps func(*rand.Rand) float64

	// GPA draws a student's grade average on a 0-100 scale.
	GPA func(*rand.Rand) float64

	// ListLength draws how many schools a student ranks, in
	// [1, MaxChoices].
	ListLength func(*rand.Rand) int

	// Likeability draws a school's desirability index.
	Likeability func(*rand.Rand) int

	// SeatCutoffs and ScreenCutoffs map a GPA to a priority tier: the
	// first cutoff the GPA meets or exceeds gives the tier (1 is
	// strongest); a GPA below every cutoff lands in the weakest tier.
	SeatCutoffs   []float64
	ScreenCutoffs []float64
}

// DefaultDistributions returns the NYC-calibrated distribution set.
func DefaultDistributions() Distributions {
	return Distributions{
		Capacity: func(rng *rand.Rand) int {
			n := int(math.Round(rng.NormFloat64()*stdSchoolCapacity + meanSchoolCapacity))
			if n < 1 {
				n = 1
			}
			return n
		},
		ExpectedApps: func(rng *rand.Rand) float64 {
			e := rng.NormFloat64()*stdExpectedApps + meanExpectedApps
			if e < 0 {
				e = 0
			}
			return e
		},
		GPA: func(rng *rand.Rand) float64 {
			g := math.Round((rng.NormFloat64()*stdGPA+meanGPA)*100) / 100
			if g < 0 {
				g = 0
			}
			if g > 100 {
				g = 100
			}
			return g
		},
		ListLength: func(rng *rand.Rand) int {
			n := int(math.Round(rng.NormFloat64()*stdListLength + meanListLength))
			if n < 1 {
				n = 1
			}
			if n > MaxChoices {
				n = MaxChoices
			}
			return n
		},
		Likeability: func(rng *rand.Rand) int {
			return rng.Intn(MaxChoices) + 1
		},

		// Published screened and ed-opt GPA cutoffs.
		SeatCutoffs:   []float64{88.25, 77.5},
		ScreenCutoffs: []float64{94, 89.66, 82.75, 76.33},
	}
}

// Tier buckets a score against a cutoff table. Tier 1 is strongest.
func Tier(score float64, cutoffs []float64) int {
	for i, c := range cutoffs {
		if score >= c {
			return i + 1
		}
	}

	return len(cutoffs) + 1
}

func (d Distributions) validate() error {
	switch {
	case d.Capacity == nil:
		return missingDistribution("Capacity")
	case d.ExpectedApps == nil:
		return missingDistribution("ExpectedApps")
	case d.GPA == nil:
		return missingDistribution("GPA")
	case d.ListLength == nil:
		return missingDistribution("ListLength")
	case d.Likeability == nil:
		return missingDistribution("Likeability")
	}

	return nil
}
