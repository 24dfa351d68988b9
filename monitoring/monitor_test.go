package monitoring_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/datalife-sim/matchsim/market"
	"github.com/datalife-sim/matchsim/matching"
	"github.com/datalife-sim/matchsim/monitoring"
	"github.com/datalife-sim/matchsim/outcome"
)

var _ = Describe("Monitor", func() {
	var (
		monitor *monitoring.Monitor
		server  *httptest.Server
	)

	BeforeEach(func() {
		x := &market.School{ID: "X", Capacity: 1,
			Admission: market.AdmissionOpen, Likeability: 3}
		Expect(x.ResolveComparator()).To(Succeed())

		a := &market.Student{ID: "A",
			LotteryKey:  fmt.Sprintf("%032x", 1),
			Preferences: []*market.School{x}}
		b := &market.Student{ID: "current_user", Custom: true,
			LotteryKey:  fmt.Sprintf("%032x", 2),
			Preferences: []*market.School{x}}

		e := matching.NewEngine(
			[]*market.Student{a, b}, []*market.School{x})
		Expect(e.Run()).To(Succeed())

		monitor = monitoring.NewMonitor()
		monitor.RegisterRun(monitoring.RunInfo{
			RunID:           "run-1",
			Seed:            42,
			NumStudents:     2,
			NumSchools:      1,
			CustomStudentID: "current_user",
		}, outcome.Project(e))

		server = httptest.NewServer(monitor.Handler())
	})

	AfterEach(func() {
		server.Close()
	})

	getJSON := func(path string, v any) {
		resp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
		Expect(json.NewDecoder(resp.Body).Decode(v)).To(Succeed())
	}

	It("should serve run metadata", func() {
		var info monitoring.RunInfo
		getJSON("/api/run", &info)

		Expect(info.RunID).To(Equal("run-1"))
		Expect(info.Seed).To(Equal(int64(42)))
		Expect(info.CustomStudentID).To(Equal("current_user"))
	})

	It("should serve student records", func() {
		var students map[string]outcome.StudentRecord
		getJSON("/api/students", &students)

		Expect(students).To(HaveLen(2))
		Expect(students["current_user"].Selection).To(Equal("custom"))
	})

	It("should serve school records", func() {
		var schools map[string]outcome.SchoolRecord
		getJSON("/api/schools", &schools)

		Expect(schools).To(HaveKey("X"))
		Expect(schools["X"].Policy).To(Equal("open"))
	})

	It("should serve matches with null for the unmatched", func() {
		var matches map[string]outcome.Match
		getJSON("/api/matches", &matches)

		// A holds the only seat; the custom student lost the lottery.
		Expect(matches["A"].SchoolID).NotTo(BeNil())
		Expect(*matches["A"].SchoolID).To(Equal("X"))
		Expect(matches["current_user"].SchoolID).To(BeNil())
		Expect(matches["current_user"].Rank).To(BeNil())
	})

	It("should serve school outcomes", func() {
		var outcomes map[string]outcome.SchoolOutcome
		getJSON("/api/schooloutcome", &outcomes)

		Expect(outcomes["X"].MatchCount).To(Equal(1))
		Expect(outcomes["X"].TotalSeats).To(Equal(1))
	})

	It("should serve the rank-bin histogram", func() {
		var bins [][]string
		getJSON("/api/bins", &bins)

		Expect(bins).To(HaveLen(outcome.UnmatchedBin + 1))
		Expect(bins[0]).To(HaveLen(1))
		Expect(bins[outcome.UnmatchedBin]).To(HaveLen(1))
	})

	It("should surface the custom outcome distinctly", func() {
		var custom struct {
			StudentID string        `json:"student_id"`
			Match     outcome.Match `json:"match"`
		}
		getJSON("/api/custom", &custom)

		Expect(custom.StudentID).To(Equal("current_user"))
		Expect(custom.Match.SchoolID).To(BeNil())
	})

	It("should 404 the custom endpoint without a custom student", func() {
		m := monitoring.NewMonitor()
		m.RegisterRun(monitoring.RunInfo{RunID: "run-2"}, outcome.Result{})

		s := httptest.NewServer(m.Handler())
		defer s.Close()

		resp, err := http.Get(s.URL + "/api/custom")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})
})
