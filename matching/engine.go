// Package matching runs the student-proposing deferred-acceptance
// (Gale-Shapley) algorithm over a constructed admissions market.
//
// Every held seat is provisional until the algorithm terminates; a
// student displaced late in the run re-enters the proposal queue.
// Termination is bounded by the sum of all preference-list lengths, since
// each (student, school) pair is proposed at most once.
package matching

import (
	"fmt"

	"github.com/datalife-sim/matchsim/market"
)

// State is a student's position in the matching lifecycle.
type State int

const (
	// StateUnproposed: the student has a proposal left to send.
	StateUnproposed State = iota

	// StateHeld: a school provisionally holds the student.
	StateHeld

	// StateRejectedAll: the student exhausted their list. Terminal.
	StateRejectedAll

	// StateFinalized: the run terminated with the student holding a seat.
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateUnproposed:
		return "unproposed"
	case StateHeld:
		return "held"
	case StateRejectedAll:
		return "rejected-all"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("state-%d", int(s))
	}
}

// Placement is a finalized student's outcome: the holding school and the
// 1-indexed position of that school on the student's preference list.
type Placement struct {
	School *market.School
	Rank   int
}

// Engine executes one deferred-acceptance run. It reads students and
// schools but never mutates them; all working state lives in the engine.
type Engine struct {
	students []*market.Student
	schools  []*market.School

	pools  map[string]*seatPool
	byID   map[string]*market.Student
	state  map[string]State
	next   map[string]int // next preference index to propose to
	heldAt map[string]int // 0-based rank of the holding school

	proposals int
	done      bool
}

// NewEngine prepares a run over the given market. Preference lists and
// comparators must already be constructed.
func NewEngine(students []*market.Student, schools []*market.School) *Engine {
	e := &Engine{
		students: students,
		schools:  schools,
		pools:    make(map[string]*seatPool, len(schools)),
		byID:     make(map[string]*market.Student, len(students)),
		state:    make(map[string]State, len(students)),
		next:     make(map[string]int, len(students)),
		heldAt:   make(map[string]int, len(students)),
	}

	for _, s := range students {
		e.byID[s.ID] = s
	}

	for _, sch := range schools {
		e.pools[sch.ID] = newSeatPool(sch)
	}

	return e
}

// Run executes the algorithm to termination. On success every student is
// Finalized or RejectedAll and the assignment is stable for the given
// preference orders and comparators. Any error is fatal to the run.
func (e *Engine) Run() error {
	if e.done {
		return market.Invariantf("matching engine run twice")
	}

	if err := e.validate(); err != nil {
		return err
	}

	bound := 0
	queue := make([]*market.Student, 0, len(e.students))
	for _, s := range e.students {
		bound += len(s.Preferences)

		if len(s.Preferences) == 0 {
			e.state[s.ID] = StateRejectedAll
			continue
		}

		e.state[s.ID] = StateUnproposed
		queue = append(queue, s)
	}

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		displaced, accepted, err := e.propose(s, bound)
		if err != nil {
			return err
		}

		if !accepted {
			e.state[s.ID] = StateRejectedAll
			continue
		}

		if displaced != nil {
			e.state[displaced.ID] = StateUnproposed
			queue = append(queue, displaced)
		}
	}

	if err := e.finalize(); err != nil {
		return err
	}

	e.done = true

	return nil
}

// propose sends s down their preference list until a school holds them or
// the list runs out.
func (e *Engine) propose(s *market.Student, bound int) (displaced *market.Student, accepted bool, err error) {
	for e.next[s.ID] < len(s.Preferences) {
		idx := e.next[s.ID]
		e.next[s.ID]++

		e.proposals++
		if e.proposals > bound {
			return nil, false, market.Invariantf(
				"proposal count %d exceeds bound %d", e.proposals, bound)
		}

		sch := s.Preferences[idx]
		pool, ok := e.pools[sch.ID]
		if !ok {
			return nil, false, market.Invariantf(
				"student %s lists unknown school %s", s.ID, sch.ID)
		}

		displaced, accepted = pool.offer(s)
		if pool.tied {
			return nil, false, market.Invariantf(
				"school %s comparator cannot order students %s and %s",
				sch.ID, pool.tiedIDs[0], pool.tiedIDs[1])
		}

		if accepted {
			e.state[s.ID] = StateHeld
			e.heldAt[s.ID] = idx
			return displaced, true, nil
		}
	}

	return nil, false, nil
}

func (e *Engine) validate() error {
	if len(e.byID) != len(e.students) {
		return market.Invariantf("duplicate student identifiers in population")
	}

	for _, s := range e.students {
		seen := make(map[string]bool, len(s.Preferences))
		for _, sch := range s.Preferences {
			if seen[sch.ID] {
				return market.Invariantf(
					"student %s lists school %s more than once", s.ID, sch.ID)
			}
			seen[sch.ID] = true
		}
	}

	for _, sch := range e.schools {
		if sch.Compare == nil {
			return market.Configf("school %s has no comparator resolved", sch.ID)
		}
	}

	return nil
}

func (e *Engine) finalize() error {
	for _, pool := range e.pools {
		if len(pool.held) > pool.school.Capacity {
			return market.Invariantf("school %s holds %d students over capacity %d",
				pool.school.ID, len(pool.held), pool.school.Capacity)
		}
	}

	for _, s := range e.students {
		if e.state[s.ID] == StateHeld {
			e.state[s.ID] = StateFinalized
		}
	}

	return nil
}

// State returns a student's lifecycle state.
func (e *Engine) State(studentID string) State {
	return e.state[studentID]
}

// Placement returns a finalized student's outcome. The second return is
// false for unmatched students.
func (e *Engine) Placement(studentID string) (Placement, bool) {
	if e.state[studentID] != StateFinalized {
		return Placement{}, false
	}

	idx := e.heldAt[studentID]

	return Placement{School: e.byID[studentID].Preferences[idx], Rank: idx + 1}, true
}

// HeldStudents returns the students a school holds after the run.
func (e *Engine) HeldStudents(schoolID string) []*market.Student {
	pool, ok := e.pools[schoolID]
	if !ok {
		return nil
	}

	out := make([]*market.Student, len(pool.held))
	copy(out, pool.held)

	return out
}

// Proposals returns the number of proposals sent during the run.
func (e *Engine) Proposals() int { return e.proposals }

// Students returns the engine's student set.
func (e *Engine) Students() []*market.Student { return e.students }

// Schools returns the engine's school set.
func (e *Engine) Schools() []*market.School { return e.schools }
