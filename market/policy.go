package market

import (
	"fmt"

	"github.com/datalife-sim/matchsim/lottery"
)

// SelectionPolicy governs which schools enter a student's preference list.
type SelectionPolicy int

const (
	// SelectionUniform samples schools uniformly without replacement.
	SelectionUniform SelectionPolicy = iota

	// SelectionPopularity samples schools without replacement with
	// probability proportional to each remaining school's prior weight.
	SelectionPopularity
)

func (p SelectionPolicy) String() string {
	switch p {
	case SelectionUniform:
		return "uniform-random"
	case SelectionPopularity:
		return "popularity-weighted"
	default:
		return fmt.Sprintf("selection-policy-%d", int(p))
	}
}

// ParseSelectionPolicy resolves a policy tag from its string form.
func ParseSelectionPolicy(s string) (SelectionPolicy, error) {
	switch s {
	case "uniform-random", "uniform":
		return SelectionUniform, nil
	case "popularity-weighted", "popularity":
		return SelectionPopularity, nil
	default:
		return 0, Configf("unknown selection policy %q", s)
	}
}

// RankingPolicy governs the order of a student's selected schools.
type RankingPolicy int

const (
	// RankingUnordered applies a uniform random permutation.
	RankingUnordered RankingPolicy = iota

	// RankingLikeability sorts schools by likeability, descending, with a
	// deterministic school-ID tiebreak.
	RankingLikeability
)

func (p RankingPolicy) String() string {
	switch p {
	case RankingUnordered:
		return "unordered"
	case RankingLikeability:
		return "likeability-sorted"
	default:
		return fmt.Sprintf("ranking-policy-%d", int(p))
	}
}

// ParseRankingPolicy resolves a policy tag from its string form.
func ParseRankingPolicy(s string) (RankingPolicy, error) {
	switch s {
	case "unordered", "random":
		return RankingUnordered, nil
	case "likeability-sorted", "likeability":
		return RankingLikeability, nil
	default:
		return 0, Configf("unknown ranking policy %q", s)
	}
}

// AdmissionPolicy is the rule a school uses to rank its applicants.
type AdmissionPolicy int

const (
	// AdmissionOpen ranks applicants by lottery key alone.
	AdmissionOpen AdmissionPolicy = iota

	// AdmissionEdOpt ranks applicants by seat-priority tier, lottery
	// tiebreak.
	AdmissionEdOpt

	// AdmissionScreen ranks applicants by screen-score tier, lottery
	// tiebreak.
	AdmissionScreen
)

func (p AdmissionPolicy) String() string {
	switch p {
	case AdmissionOpen:
		return "open"
	case AdmissionEdOpt:
		return "edopt"
	case AdmissionScreen:
		return "screen"
	default:
		return fmt.Sprintf("admission-policy-%d", int(p))
	}
}

// ParseAdmissionPolicy resolves a policy tag from its string form.
func ParseAdmissionPolicy(s string) (AdmissionPolicy, error) {
	switch s {
	case "open":
		return AdmissionOpen, nil
	case "edopt", "ed-opt":
		return AdmissionEdOpt, nil
	case "screen", "screened":
		return AdmissionScreen, nil
	default:
		return 0, Configf("unknown admission policy %q", s)
	}
}

// CompareFunc orders two applicants from a school's point of view. A
// negative result means a is the stronger applicant. Every comparator ends
// in the full lottery-key comparison, so the order is total as long as
// lottery keys are unique.
type CompareFunc func(a, b *Student) int

// Comparator resolves the applicant comparator for an admission policy.
// Resolution happens once per school at construction time, not per
// comparison.
func (p AdmissionPolicy) Comparator() (CompareFunc, error) {
	switch p {
	case AdmissionOpen:
		return compareOpen, nil
	case AdmissionEdOpt:
		return compareEdOpt, nil
	case AdmissionScreen:
		return compareScreen, nil
	default:
		return nil, Configf("unknown admission policy %d", int(p))
	}
}

func compareOpen(a, b *Student) int {
	return lottery.Compare(a.LotteryKey, b.LotteryKey)
}

// Tier 1 is the strongest bucket, so ascending tier order ranks the
// highest-priority applicants first.
func compareEdOpt(a, b *Student) int {
	if a.SeatTier != b.SeatTier {
		return a.SeatTier - b.SeatTier
	}

	return lottery.Compare(a.LotteryKey, b.LotteryKey)
}

func compareScreen(a, b *Student) int {
	if a.ScreenTier != b.ScreenTier {
		return a.ScreenTier - b.ScreenTier
	}

	return lottery.Compare(a.LotteryKey, b.LotteryKey)
}
