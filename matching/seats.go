package matching

import (
	"container/heap"

	"github.com/datalife-sim/matchsim/market"
)

// seatPool is a school's working state during a run: the provisionally
// held students, kept in a heap ordered by the school's comparator with
// the weakest held student at the root. Displacement is a single root
// replacement.
type seatPool struct {
	school *market.School
	held   []*market.Student

	// tied is set when the comparator returns 0 for two distinct
	// students, breaking the total-order requirement. The engine checks
	// it after every heap operation.
	tied    bool
	tiedIDs [2]string
}

func newSeatPool(school *market.School) *seatPool {
	return &seatPool{school: school}
}

func (p *seatPool) Len() int { return len(p.held) }

func (p *seatPool) Less(i, j int) bool {
	c := p.compare(p.held[i], p.held[j])

	// Weakest applicant at the root.
	return c > 0
}

func (p *seatPool) Swap(i, j int) { p.held[i], p.held[j] = p.held[j], p.held[i] }

func (p *seatPool) Push(x any) { p.held = append(p.held, x.(*market.Student)) }

func (p *seatPool) Pop() any {
	s := p.held[len(p.held)-1]
	p.held = p.held[:len(p.held)-1]
	return s
}

func (p *seatPool) compare(a, b *market.Student) int {
	c := p.school.Compare(a, b)
	if c == 0 && a.ID != b.ID {
		p.tied = true
		p.tiedIDs = [2]string{a.ID, b.ID}
	}

	return c
}

// offer handles one proposal. It returns the displaced student, if any,
// and whether the proposal was accepted. A school with spare seats accepts
// unconditionally; a full school accepts only a student its comparator
// prefers over the weakest currently held, who is then displaced.
func (p *seatPool) offer(s *market.Student) (displaced *market.Student, accepted bool) {
	if p.school.Capacity <= 0 {
		return nil, false
	}

	if len(p.held) < p.school.Capacity {
		heap.Push(p, s)
		return nil, true
	}

	worst := p.held[0]
	if p.compare(s, worst) >= 0 {
		return nil, false
	}

	p.held[0] = s
	heap.Fix(p, 0)

	return worst, true
}
