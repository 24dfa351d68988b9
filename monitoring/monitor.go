// Package monitoring exposes a finished simulation run over HTTP for the
// visualization layer. The server only serializes the output contract;
// all matching logic stays in the engine.
package monitoring

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/datalife-sim/matchsim/outcome"
)

// RunInfo is the metadata block served alongside the outcome.
type RunInfo struct {
	RunID       string `json:"run_id"`
	Seed        int64  `json:"seed"`
	NumStudents int    `json:"num_students"`
	NumSchools  int    `json:"num_schools"`

	// CustomStudentID is set when a real student was injected into the
	// run; their match is surfaced separately under /api/custom.
	CustomStudentID string `json:"custom_student_id,omitempty"`
}

// Monitor serves the outcome of a simulation run.
type Monitor struct {
	portNumber int

	info   RunInfo
	result outcome.Result

	listener net.Listener
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000
// are not allowed and fall back to a random free port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterRun registers the run to be served.
func (m *Monitor) RegisterRun(info RunInfo, result outcome.Result) {
	m.info = info
	m.result = result
}

// StartServer starts the monitor server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", m.portNumber))
	if err != nil {
		return "", fmt.Errorf("monitoring: starting server: %w", err)
	}

	m.listener = listener
	port := listener.Addr().(*net.TCPAddr).Port
	url := fmt.Sprintf("http://localhost:%d", port)

	fmt.Fprintf(os.Stderr, "Matchsim run %s served at %s\n", m.info.RunID, url)

	r := m.router()
	go func() {
		//nolint:errcheck
		http.Serve(listener, r)
	}()

	return url, nil
}

// StopServer closes the listener.
func (m *Monitor) StopServer() {
	if m.listener != nil {
		m.listener.Close()
	}
}

// Handler returns the monitor's HTTP handler, for embedding and tests.
func (m *Monitor) Handler() http.Handler {
	return m.router()
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/run", m.httpRun)
	r.HandleFunc("/api/students", m.httpStudents)
	r.HandleFunc("/api/schools", m.httpSchools)
	r.HandleFunc("/api/matches", m.httpMatches)
	r.HandleFunc("/api/schooloutcome", m.httpSchoolOutcome)
	r.HandleFunc("/api/bins", m.httpBins)
	r.HandleFunc("/api/custom", m.httpCustom)

	return r
}

func (m *Monitor) httpRun(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, m.info)
}

func (m *Monitor) httpStudents(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, m.result.Students)
}

func (m *Monitor) httpSchools(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, m.result.Schools)
}

func (m *Monitor) httpMatches(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, m.result.Matches)
}

func (m *Monitor) httpSchoolOutcome(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, m.result.SchoolOutcomes)
}

func (m *Monitor) httpBins(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, m.result.Bins)
}

func (m *Monitor) httpCustom(w http.ResponseWriter, _ *http.Request) {
	if m.info.CustomStudentID == "" {
		http.Error(w, "no custom student in this run", http.StatusNotFound)
		return
	}

	m.writeJSON(w, map[string]any{
		"student_id": m.info.CustomStudentID,
		"match":      m.result.Matches[m.info.CustomStudentID],
	})
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
