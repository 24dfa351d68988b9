// Package simulation orchestrates one full admissions run: population
// generation, preference construction, deferred-acceptance matching, and
// outcome projection, executed strictly in sequence over a single seeded
// random source. Independent runs share no mutable state and may execute
// concurrently.
package simulation

import (
	"math/rand"
	"time"

	"github.com/datalife-sim/matchsim/datarecording"
	"github.com/datalife-sim/matchsim/lottery"
	"github.com/datalife-sim/matchsim/market"
	"github.com/datalife-sim/matchsim/matching"
	"github.com/datalife-sim/matchsim/monitoring"
	"github.com/datalife-sim/matchsim/outcome"
	"github.com/datalife-sim/matchsim/population"
	"github.com/datalife-sim/matchsim/preference"
)

// CustomStudentID names the injected real student in every output
// structure.
const CustomStudentID = "current_user"

// CustomStudent is one real student injected into a synthetic run.
type CustomStudent struct {
	// Lottery is the student's real lottery identifier, dashed or plain
	// hex.
	Lottery string

	// GPA on a 0-100 scale. A negative value means "draw one".
	GPA float64

	// Preferences is the explicit ordered list of school IDs. Must name
	// schools that exist in the run.
	Preferences []string
}

// Result is the outcome of one simulation run.
type Result struct {
	RunID       string
	Seed        int64
	NumStudents int
	NumSchools  int

	Outcome outcome.Result

	// CustomMatch is the injected student's result, surfaced separately
	// from the synthetic population. Nil when no student was injected.
	CustomMatch *outcome.Match
}

// A Simulation executes admissions runs. Build one with a Builder.
type Simulation struct {
	id string

	numStudents int
	numSchools  int
	seed        *int64

	selection  *market.SelectionPolicy
	ranking    *market.RankingPolicy
	admission  *market.AdmissionPolicy
	maxSchools bool

	dist   population.Distributions
	roster []population.SchoolRecord
	custom *CustomStudent

	recorder datarecording.Recorder
	monitor  *monitoring.Monitor

	monitorURL string
}

// ID returns the simulation's run identifier.
func (s *Simulation) ID() string { return s.id }

// RegisterRecorder sets the recorder that persists the run.
func (s *Simulation) RegisterRecorder(r datarecording.Recorder) {
	s.recorder = r
}

// MonitorURL returns the serving URL after a monitored run.
func (s *Simulation) MonitorURL() string { return s.monitorURL }

// Run executes the pipeline to completion. A configuration error fails
// the run before any entity is created; no partial result is ever
// returned.
func (s *Simulation) Run() (*Result, error) {
	seed := time.Now().UnixNano()
	if s.seed != nil {
		seed = *s.seed
	}
	rng := rand.New(rand.NewSource(seed))

	students, schools, err := s.generate(rng)
	if err != nil {
		return nil, err
	}

	if s.custom != nil {
		injected, err := s.buildCustomStudent(schools, rng)
		if err != nil {
			return nil, err
		}
		students = append(students, injected)
	}

	if err := preference.Construct(students, schools, rng); err != nil {
		return nil, err
	}

	engine := matching.NewEngine(students, schools)
	if err := engine.Run(); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:       s.id,
		Seed:        seed,
		NumStudents: len(students),
		NumSchools:  len(schools),
		Outcome:     outcome.Project(engine),
	}

	if s.custom != nil {
		m := res.Outcome.Matches[CustomStudentID]
		res.CustomMatch = &m
	}

	if s.recorder != nil {
		s.record(res, schools)
	}

	if s.monitor != nil {
		info := monitoring.RunInfo{
			RunID:       res.RunID,
			Seed:        res.Seed,
			NumStudents: res.NumStudents,
			NumSchools:  res.NumSchools,
		}
		if s.custom != nil {
			info.CustomStudentID = CustomStudentID
		}

		s.monitor.RegisterRun(info, res.Outcome)

		url, err := s.monitor.StartServer()
		if err != nil {
			return nil, err
		}
		s.monitorURL = url
	}

	return res, nil
}

func (s *Simulation) generate(rng *rand.Rand) ([]*market.Student, []*market.School, error) {
	cfg := population.Config{
		NumStudents: s.numStudents,
		NumSchools:  s.numSchools,
		Selection:   s.selection,
		Ranking:     s.ranking,
		Admission:   s.admission,
		MaxSchools:  s.maxSchools,
		Dist:        s.dist,
	}

	if s.roster == nil {
		return population.Generate(cfg, rng)
	}

	// A fixed roster supplies the schools; only students are synthetic.
	cfg.NumSchools = len(s.roster)
	students, _, err := population.Generate(cfg, rng)
	if err != nil {
		return nil, nil, err
	}

	schools, err := population.FromRoster(s.roster, rng)
	if err != nil {
		return nil, nil, err
	}

	return students, schools, nil
}

func (s *Simulation) buildCustomStudent(schools []*market.School, rng *rand.Rand) (*market.Student, error) {
	key, err := lottery.Normalize(s.custom.Lottery)
	if err != nil {
		return nil, market.Configf("custom student: %v", err)
	}

	if len(s.custom.Preferences) == 0 {
		return nil, market.Configf("custom student must rank at least one school")
	}
	if len(s.custom.Preferences) > population.MaxChoices {
		return nil, market.Configf("custom student ranks %d schools, the maximum is %d",
			len(s.custom.Preferences), population.MaxChoices)
	}

	byID := make(map[string]*market.School, len(schools))
	for _, sch := range schools {
		byID[sch.ID] = sch
	}

	prefs := make([]*market.School, 0, len(s.custom.Preferences))
	seen := make(map[string]bool, len(s.custom.Preferences))
	for _, id := range s.custom.Preferences {
		sch, ok := byID[id]
		if !ok {
			return nil, market.Configf("custom student ranks unknown school %q", id)
		}
		if seen[id] {
			return nil, market.Configf("custom student ranks school %q twice", id)
		}
		seen[id] = true
		prefs = append(prefs, sch)
	}

	gpa := s.custom.GPA
	if gpa < 0 {
		gpa = s.dist.GPA(rng)
	}

	return &market.Student{
		ID:          CustomStudentID,
		Name:        CustomStudentID,
		LotteryKey:  key,
		LotteryRank: lottery.Rank(key),
		GPA:         gpa,
		SeatTier:    population.Tier(gpa, s.dist.SeatCutoffs),
		ScreenTier:  population.Tier(gpa, s.dist.ScreenCutoffs),
		NumChoices:  len(prefs),
		Custom:      true,
		Preferences: prefs,
	}, nil
}

func (s *Simulation) record(res *Result, schools []*market.School) {
	datarecording.CreateRunTables(s.recorder)

	s.recorder.InsertData(datarecording.TableRun, datarecording.RunRow{
		RunID:       res.RunID,
		Seed:        res.Seed,
		NumStudents: res.NumStudents,
		NumSchools:  res.NumSchools,
	})

	for id, rec := range res.Outcome.Students {
		s.recorder.InsertData(datarecording.TableStudents, datarecording.StudentRow{
			StudentID:  id,
			Lottery:    rec.Lottery,
			GPA:        rec.GPA,
			Selection:  rec.Selection,
			Ranking:    rec.Ranking,
			ListLength: rec.ListLength,
		})
	}

	for _, sch := range schools {
		s.recorder.InsertData(datarecording.TableSchools, datarecording.SchoolRow{
			DBN:         sch.ID,
			Policy:      sch.Admission.String(),
			Capacity:    sch.Capacity,
			Popularity:  sch.ObservedPopularity,
			Likeability: sch.Likeability,
			PriorWeight: sch.PriorWeight,
		})
	}

	for id, m := range res.Outcome.Matches {
		row := datarecording.MatchRow{StudentID: id}
		if m.SchoolID != nil {
			row.DBN = *m.SchoolID
			row.Rank = *m.Rank
			row.Matched = true
		}
		s.recorder.InsertData(datarecording.TableMatches, row)
	}

	for id, so := range res.Outcome.SchoolOutcomes {
		s.recorder.InsertData(datarecording.TableSchoolOutcomes, datarecording.SchoolOutcomeRow{
			DBN:            id,
			MatchCount:     so.MatchCount,
			TotalSeats:     so.TotalSeats,
			TrueApplicants: so.TrueApplicants,
		})
	}

	for bin, keys := range res.Outcome.Bins {
		for _, key := range keys {
			s.recorder.InsertData(datarecording.TableBins, datarecording.BinRow{
				Bin:     bin,
				Lottery: key,
			})
		}
	}

	s.recorder.Flush()
}

// Terminate releases the simulation's resources: the recorder is flushed
// and closed and the monitor server stopped.
func (s *Simulation) Terminate() {
	if s.recorder != nil {
		s.recorder.Close()
	}

	if s.monitor != nil {
		s.monitor.StopServer()
	}
}
