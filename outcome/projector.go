// Package outcome projects a finished matching run into the four
// structures consumed by the visualization boundary, plus the rank-bin
// histogram behind the lottery chart. Projection is a pure read of the
// engine's finalized state: no randomness, no mutation, safe to repeat.
package outcome

import (
	"sort"

	"github.com/datalife-sim/matchsim/matching"
	"github.com/datalife-sim/matchsim/population"
)

// UnmatchedBin is the histogram slot for students matched nowhere.
const UnmatchedBin = population.MaxChoices

// StudentRecord describes one student's input-level attributes.
type StudentRecord struct {
	Lottery    string  `json:"lottery"`
	GPA        float64 `json:"gpa"`
	Selection  string  `json:"selection"`
	Ranking    string  `json:"ranking"`
	ListLength int     `json:"list_length"`
}

// SchoolRecord describes one school's input-level attributes.
type SchoolRecord struct {
	Policy      string `json:"policy"`
	Popularity  int    `json:"popularity"`
	Likeability int    `json:"likeability"`
}

// Match is one student's result. Both fields are nil for an unmatched
// student.
type Match struct {
	SchoolID *string `json:"dbn"`
	Rank     *int    `json:"rank"`
}

// SchoolOutcome is one school's result. TrueApplicants counts only
// students who listed the school, distinguishing "applied but lost" from
// "had capacity but never applied".
type SchoolOutcome struct {
	MatchedStudentIDs []string `json:"matches"`
	MatchCount        int      `json:"match_count"`
	TotalSeats        int      `json:"total_seats"`
	TrueApplicants    int      `json:"true_applicants"`
}

// Result is the full output contract. The visualization layer performs no
// further matching logic over it, only aggregation and rendering.
type Result struct {
	Students       map[string]StudentRecord `json:"students"`
	Schools        map[string]SchoolRecord  `json:"schools"`
	Matches        map[string]Match         `json:"matches"`
	SchoolOutcomes map[string]SchoolOutcome `json:"school_outcome"`

	// Bins groups lottery keys by matched rank: Bins[0] holds the keys
	// of students matched to their first choice, Bins[UnmatchedBin] the
	// unmatched. Each bin is sorted.
	Bins [UnmatchedBin + 1][]string `json:"bins"`
}

// Project reads a finished engine and emits the output contract.
func Project(e *matching.Engine) Result {
	res := Result{
		Students:       make(map[string]StudentRecord, len(e.Students())),
		Schools:        make(map[string]SchoolRecord, len(e.Schools())),
		Matches:        make(map[string]Match, len(e.Students())),
		SchoolOutcomes: make(map[string]SchoolOutcome, len(e.Schools())),
	}

	for _, s := range e.Students() {
		selection := s.Selection.String()
		ranking := s.Ranking.String()
		if s.Custom {
			selection = "custom"
			ranking = "custom"
		}

		res.Students[s.ID] = StudentRecord{
			Lottery:    s.LotteryKey,
			GPA:        s.GPA,
			Selection:  selection,
			Ranking:    ranking,
			ListLength: len(s.Preferences),
		}

		if p, ok := e.Placement(s.ID); ok {
			schoolID := p.School.ID
			rank := p.Rank
			res.Matches[s.ID] = Match{SchoolID: &schoolID, Rank: &rank}
			res.Bins[rank-1] = append(res.Bins[rank-1], s.LotteryKey)
		} else {
			res.Matches[s.ID] = Match{}
			res.Bins[UnmatchedBin] = append(res.Bins[UnmatchedBin], s.LotteryKey)
		}
	}

	for i := range res.Bins {
		sort.Strings(res.Bins[i])
	}

	for _, sch := range e.Schools() {
		res.Schools[sch.ID] = SchoolRecord{
			Policy:      sch.Admission.String(),
			Popularity:  sch.ObservedPopularity,
			Likeability: sch.Likeability,
		}

		held := e.HeldStudents(sch.ID)
		ids := make([]string, 0, len(held))
		for _, s := range held {
			ids = append(ids, s.ID)
		}
		sort.Strings(ids)

		res.SchoolOutcomes[sch.ID] = SchoolOutcome{
			MatchedStudentIDs: ids,
			MatchCount:        len(ids),
			TotalSeats:        sch.Capacity,
			TrueApplicants:    sch.ObservedPopularity,
		}
	}

	return res
}

// MatchCount returns the number of matched students in the result.
func (r Result) MatchCount() int {
	n := 0
	for _, m := range r.Matches {
		if m.SchoolID != nil {
			n++
		}
	}

	return n
}
