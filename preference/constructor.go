// Package preference builds each student's ordered school list and
// resolves each school's applicant comparator.
//
// Popularity is two-pass by design: the prior weight set at generation
// time drives popularity-weighted selection, and only after every list
// exists is each school's observed popularity recounted as the number of
// students listing it. The prior is a weighting input; the posterior is
// the outcome metric reported downstream. They must never be conflated.
package preference

import (
	"math/rand"
	"sort"

	"github.com/datalife-sim/matchsim/market"
)

// Construct populates every student's preference list in place, then
// recounts each school's observed popularity. Students with a custom
// (caller-supplied) list are left untouched by selection and ranking but
// still count toward popularity.
//
// A requested list length larger than the school pool is clamped to the
// pool size rather than failing: the shortfall is a legitimate outcome.
func Construct(students []*market.Student, schools []*market.School, rng *rand.Rand) error {
	if len(schools) == 0 {
		return market.Configf("cannot construct preferences with zero schools")
	}

	for _, s := range students {
		if s.Custom {
			continue
		}

		if err := constructFor(s, schools, rng); err != nil {
			return err
		}
	}

	Recount(students, schools)

	return nil
}

func constructFor(s *market.Student, schools []*market.School, rng *rand.Rand) error {
	k := s.NumChoices
	if k > len(schools) {
		k = len(schools)
	}
	if k < 1 {
		return market.Invariantf("student %s requests %d choices", s.ID, s.NumChoices)
	}

	var picked []*market.School
	switch s.Selection {
	case market.SelectionUniform:
		picked = sampleUniform(rng, schools, k)
	case market.SelectionPopularity:
		picked = sampleWeighted(rng, schools, k)
	default:
		return market.Configf("student %s has unknown selection policy %d",
			s.ID, int(s.Selection))
	}

	switch s.Ranking {
	case market.RankingUnordered:
		rng.Shuffle(len(picked), func(i, j int) {
			picked[i], picked[j] = picked[j], picked[i]
		})
	case market.RankingLikeability:
		// Likeability descending. Ties break on school ID so reordering
		// is deterministic for a given selection, never seed-dependent.
		sort.Slice(picked, func(i, j int) bool {
			if picked[i].Likeability != picked[j].Likeability {
				return picked[i].Likeability > picked[j].Likeability
			}
			return picked[i].ID < picked[j].ID
		})
	default:
		return market.Configf("student %s has unknown ranking policy %d",
			s.ID, int(s.Ranking))
	}

	s.Preferences = picked

	return nil
}

// Recount recomputes each school's observed popularity as the number of
// students listing it anywhere on their preference list.
func Recount(students []*market.Student, schools []*market.School) {
	counts := make(map[string]int, len(schools))
	for _, s := range students {
		for _, sch := range s.Preferences {
			counts[sch.ID]++
		}
	}

	for _, sch := range schools {
		sch.ObservedPopularity = counts[sch.ID]
	}
}
