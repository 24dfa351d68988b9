package datarecording

// Table names for a recorded run.
const (
	TableRun            = "run"
	TableStudents       = "students"
	TableSchools        = "schools"
	TableMatches        = "matches"
	TableSchoolOutcomes = "school_outcome"
	TableBins           = "bins"
)

// RunRow is the single metadata row of a recorded run.
type RunRow struct {
	RunID       string
	Seed        int64
	NumStudents int
	NumSchools  int
}

// StudentRow is one student's input-level attributes.
type StudentRow struct {
	StudentID  string
	Lottery    string
	GPA        float64
	Selection  string
	Ranking    string
	ListLength int
}

// SchoolRow is one school's input-level attributes.
type SchoolRow struct {
	DBN         string
	Policy      string
	Capacity    int
	Popularity  int
	Likeability int
	PriorWeight float64
}

// MatchRow is one student's result. Rank is 0 and DBN empty for an
// unmatched student, with Matched distinguishing a real rank from the
// zero value.
type MatchRow struct {
	StudentID string
	DBN       string
	Rank      int
	Matched   bool
}

// SchoolOutcomeRow is one school's aggregate result.
type SchoolOutcomeRow struct {
	DBN            string
	MatchCount     int
	TotalSeats     int
	TrueApplicants int
}

// BinRow assigns one lottery key to a matched-rank histogram bin.
type BinRow struct {
	Bin     int
	Lottery string
}

// CreateRunTables creates the full table set for one recorded run.
func CreateRunTables(r Recorder) {
	r.CreateTable(TableRun, RunRow{})
	r.CreateTable(TableStudents, StudentRow{})
	r.CreateTable(TableSchools, SchoolRow{})
	r.CreateTable(TableMatches, MatchRow{})
	r.CreateTable(TableSchoolOutcomes, SchoolOutcomeRow{})
	r.CreateTable(TableBins, BinRow{})
}
