package simulation

import (
	"github.com/rs/xid"

	"github.com/datalife-sim/matchsim/datarecording"
	"github.com/datalife-sim/matchsim/market"
	"github.com/datalife-sim/matchsim/monitoring"
	"github.com/datalife-sim/matchsim/population"
)

// Builder can be used to build a simulation.
type Builder struct {
	numStudents int
	numSchools  int
	seed        *int64

	selection  *market.SelectionPolicy
	ranking    *market.RankingPolicy
	admission  *market.AdmissionPolicy
	maxSchools bool

	dist   *population.Distributions
	roster []population.SchoolRecord
	custom *CustomStudent

	recordingOn    bool
	outputFileName string

	monitorOn   bool
	monitorPort int
}

// MakeBuilder creates a new builder with the NYC-scale defaults.
func MakeBuilder() Builder {
	return Builder{
		numStudents: 71250,
		numSchools:  437,
	}
}

// WithStudentCount sets the number of synthetic students.
func (b Builder) WithStudentCount(n int) Builder {
	b.numStudents = n
	return b
}

// WithSchoolCount sets the number of synthetic schools.
func (b Builder) WithSchoolCount(n int) Builder {
	b.numSchools = n
	return b
}

// WithSeed fixes the random seed, making the run reproducible. Without
// it, each run derives a fresh seed from the current time.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = &seed
	return b
}

// WithSelectionPolicy forces every student's selection policy instead of
// drawing it per student.
func (b Builder) WithSelectionPolicy(p market.SelectionPolicy) Builder {
	b.selection = &p
	return b
}

// WithRankingPolicy forces every student's ranking policy instead of
// drawing it per student.
func (b Builder) WithRankingPolicy(p market.RankingPolicy) Builder {
	b.ranking = &p
	return b
}

// WithAdmissionPolicy forces every school's admission policy instead of
// drawing it per school.
func (b Builder) WithAdmissionPolicy(p market.AdmissionPolicy) Builder {
	b.admission = &p
	return b
}

// WithMaxSchools forces every student to rank the maximum number of
// schools.
func (b Builder) WithMaxSchools() Builder {
	b.maxSchools = true
	return b
}

// WithDistributions overrides the default NYC-calibrated distributions.
func (b Builder) WithDistributions(d population.Distributions) Builder {
	b.dist = &d
	return b
}

// WithRoster builds schools from a fixed roster instead of sampling
// them. The school count is taken from the roster.
func (b Builder) WithRoster(records []population.SchoolRecord) Builder {
	b.roster = records
	return b
}

// WithCustomStudent injects one real student into the synthetic
// population.
func (b Builder) WithCustomStudent(c CustomStudent) Builder {
	b.custom = &c
	return b
}

// WithRecording enables recording the run to a SQLite database.
func (b Builder) WithRecording() Builder {
	b.recordingOn = true
	return b
}

// WithOutputFileName sets the custom output file name for the recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithMonitoring enables serving the finished run over HTTP.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.recordingOn && b.outputFileName != "" {
		panic("output file name cannot be set when recording is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:          xid.New().String(),
		numStudents: b.numStudents,
		numSchools:  b.numSchools,
		seed:        b.seed,
		selection:   b.selection,
		ranking:     b.ranking,
		admission:   b.admission,
		maxSchools:  b.maxSchools,
		roster:      b.roster,
		custom:      b.custom,
		dist:        population.DefaultDistributions(),
	}

	if b.dist != nil {
		s.dist = *b.dist
	}

	if b.recordingOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "matchsim_" + s.id
		}
		s.recorder = datarecording.New(outputPath)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
	}

	return s
}
