// Package market defines the entities exchanged between the simulation
// stages: students, schools, the behavioral policies that shape their
// preferences, and the error taxonomy shared across the pipeline.
package market

// A Student is one applicant in the admissions market. Input-level
// attributes are populated by the population generator; Preferences is
// populated once by the preference constructor and is read-only afterwards.
type Student struct {
	ID   string
	Name string

	// LotteryKey is the normalized 32-character hex identifier that backs
	// every tie-break. LotteryRank is the derived uniform value reported to
	// the visualization boundary; ordering always uses the full key.
	LotteryKey  string
	LotteryRank float64

	// GPA is reported but never used for matching priority. SeatTier and
	// ScreenTier are the bucketed forms consumed by school comparators
	// (tier 1 is strongest).
	GPA        float64
	SeatTier   int
	ScreenTier int

	Selection SelectionPolicy
	Ranking   RankingPolicy

	// NumChoices is the requested list length. The realized list may be
	// shorter when fewer schools exist.
	NumChoices int

	// Custom marks the single injected real student, whose policies and
	// preference list come from the caller rather than the generator.
	Custom bool

	Preferences []*School
}

// ListedSchool reports whether the school appears anywhere on the
// student's preference list.
func (s *Student) ListedSchool(schoolID string) bool {
	for _, sch := range s.Preferences {
		if sch.ID == schoolID {
			return true
		}
	}

	return false
}
