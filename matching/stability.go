package matching

import "github.com/datalife-sim/matchsim/market"

// A BlockingPair is a student and a school that would both prefer each
// other over their realized outcome. A stable assignment has none.
type BlockingPair struct {
	StudentID string
	SchoolID  string
}

// CheckStability audits a finished run, returning every blocking pair: a
// student who ranked school S above their own outcome while S either has
// a spare seat or holds a student its comparator ranks below them.
func (e *Engine) CheckStability() []BlockingPair {
	var pairs []BlockingPair

	for _, s := range e.students {
		preferred := s.Preferences
		if e.state[s.ID] == StateFinalized {
			preferred = s.Preferences[:e.heldAt[s.ID]]
		}

		for _, sch := range preferred {
			if e.wouldAccept(s, sch.ID) {
				pairs = append(pairs, BlockingPair{StudentID: s.ID, SchoolID: sch.ID})
			}
		}
	}

	return pairs
}

func (e *Engine) wouldAccept(s *market.Student, schoolID string) bool {
	pool := e.pools[schoolID]

	if pool.school.Capacity <= 0 {
		return false
	}

	if len(pool.held) < pool.school.Capacity {
		return true
	}

	return pool.school.Compare(s, pool.held[0]) < 0
}
