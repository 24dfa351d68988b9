// Package population synthesizes the student and school records that feed
// the admissions simulation. Generation is fully determined by the caller's
// random source: the same seed always yields the same population.
package population

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/datalife-sim/matchsim/lottery"
	"github.com/datalife-sim/matchsim/market"
)

var boroughCodes = []byte{'K', 'M', 'Q', 'R', 'X'}

// Config controls population generation. A nil policy pointer means the
// corresponding policy is drawn independently per entity, mirroring a
// mixed-behavior population; a non-nil pointer forces the policy for every
// entity.
type Config struct {
	NumStudents int
	NumSchools  int

	Selection *market.SelectionPolicy
	Ranking   *market.RankingPolicy
	Admission *market.AdmissionPolicy

	// MaxSchools forces every student's requested list length to
	// MaxChoices instead of drawing it.
	MaxSchools bool

	Dist Distributions
}

func missingDistribution(name string) error {
	return market.Configf("distribution %s is not set", name)
}

func (c Config) validate() error {
	if c.NumStudents <= 0 {
		return market.Configf("student count must be positive, got %d", c.NumStudents)
	}

	if c.NumSchools <= 0 {
		return market.Configf("school count must be positive, got %d", c.NumSchools)
	}

	return c.Dist.validate()
}

// Generate produces NumStudents students and NumSchools schools with all
// input-level attributes populated and no preference data. It fails fast
// with a configuration error before creating anything.
func Generate(cfg Config, rng *rand.Rand) ([]*market.Student, []*market.School, error) {
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}

	students := make([]*market.Student, 0, cfg.NumStudents)
	for i := 0; i < cfg.NumStudents; i++ {
		s, err := generateStudent(cfg, rng, i)
		if err != nil {
			return nil, nil, err
		}
		students = append(students, s)
	}

	schools := make([]*market.School, 0, cfg.NumSchools)
	for i := 0; i < cfg.NumSchools; i++ {
		sch, err := generateSchool(cfg, rng, i)
		if err != nil {
			return nil, nil, err
		}
		schools = append(schools, sch)
	}

	return students, schools, nil
}

func generateStudent(cfg Config, rng *rand.Rand, i int) (*market.Student, error) {
	key, err := lottery.NewKey(rng)
	if err != nil {
		return nil, err
	}

	selection := market.SelectionPolicy(rng.Intn(2))
	if cfg.Selection != nil {
		selection = *cfg.Selection
	}

	ranking := market.RankingPolicy(rng.Intn(2))
	if cfg.Ranking != nil {
		ranking = *cfg.Ranking
	}

	numChoices := cfg.Dist.ListLength(rng)
	if numChoices < 1 || numChoices > MaxChoices {
		return nil, market.Configf(
			"list-length distribution drew %d, must be in [1, %d]",
			numChoices, MaxChoices)
	}
	if cfg.MaxSchools {
		numChoices = MaxChoices
	}

	gpa := cfg.Dist.GPA(rng)

	return &market.Student{
		ID:          fmt.Sprintf("student-%05d", i),
		LotteryKey:  key,
		LotteryRank: lottery.Rank(key),
		GPA:         gpa,
		SeatTier:    Tier(gpa, cfg.Dist.SeatCutoffs),
		ScreenTier:  Tier(gpa, cfg.Dist.ScreenCutoffs),
		Selection:   selection,
		Ranking:     ranking,
		NumChoices:  numChoices,
	}, nil
}

func generateSchool(cfg Config, rng *rand.Rand, i int) (*market.School, error) {
	admission := market.AdmissionPolicy(rng.Intn(3))
	if cfg.Admission != nil {
		admission = *cfg.Admission
	}

	capacity := cfg.Dist.Capacity(rng)

	sch := &market.School{
		ID:          dbn(rng, i),
		Capacity:    capacity,
		Admission:   admission,
		PriorWeight: math.Round(float64(capacity)*cfg.Dist.ExpectedApps(rng)*100) / 100,
		Likeability: cfg.Dist.Likeability(rng),
	}

	if err := sch.ResolveComparator(); err != nil {
		return nil, err
	}

	return sch, nil
}

// dbn builds a DBN-like code: two-digit district, borough letter, and a
// school number kept unique by the generation index.
func dbn(rng *rand.Rand, i int) string {
	district := rng.Intn(32) + 1
	borough := boroughCodes[rng.Intn(len(boroughCodes))]

	return fmt.Sprintf("%02d%c%03d", district, borough, 100+i)
}

// SchoolRecord is one row of a caller-supplied school roster, used instead
// of random generation when a real dataset is available.
type SchoolRecord struct {
	ID          string  `json:"dbn"`
	Capacity    int     `json:"capacity"`
	Admission   string  `json:"policy"`
	Likeability int     `json:"likeability"`
	PriorWeight float64 `json:"popularity"`
}

// FromRoster builds schools from a fixed roster. The roster is shuffled
// with the run's random source so that input order carries no meaning. An
// empty roster, duplicate DBN, or non-positive capacity fails the run.
func FromRoster(records []SchoolRecord, rng *rand.Rand) ([]*market.School, error) {
	if len(records) == 0 {
		return nil, market.Configf("school roster is empty")
	}

	seen := make(map[string]bool, len(records))
	schools := make([]*market.School, 0, len(records))

	for _, rec := range records {
		if rec.ID == "" {
			return nil, market.Configf("roster entry has empty DBN")
		}
		if seen[rec.ID] {
			return nil, market.Configf("duplicate DBN %q in roster", rec.ID)
		}
		seen[rec.ID] = true

		if rec.Capacity <= 0 {
			return nil, market.Configf("school %s has capacity %d, must be positive",
				rec.ID, rec.Capacity)
		}

		if rec.PriorWeight < 0 {
			return nil, market.Configf("school %s has popularity %g, must not be negative",
				rec.ID, rec.PriorWeight)
		}

		admission, err := market.ParseAdmissionPolicy(rec.Admission)
		if err != nil {
			return nil, err
		}

		sch := &market.School{
			ID:          rec.ID,
			Capacity:    rec.Capacity,
			Admission:   admission,
			PriorWeight: rec.PriorWeight,
			Likeability: rec.Likeability,
		}
		if err := sch.ResolveComparator(); err != nil {
			return nil, err
		}

		schools = append(schools, sch)
	}

	rng.Shuffle(len(schools), func(i, j int) {
		schools[i], schools[j] = schools[j], schools[i]
	})

	return schools, nil
}
