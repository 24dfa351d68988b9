package simulation_test

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/datalife-sim/matchsim/datarecording/mock_datarecording"
	"github.com/datalife-sim/matchsim/market"
	"github.com/datalife-sim/matchsim/population"
	"github.com/datalife-sim/matchsim/simulation"
)

func smallBuilder() simulation.Builder {
	return simulation.MakeBuilder().
		WithStudentCount(60).
		WithSchoolCount(8).
		WithSeed(7)
}

var _ = Describe("Simulation", func() {
	It("should run the full pipeline end to end", func() {
		sim := smallBuilder().Build()

		res, err := sim.Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Seed).To(Equal(int64(7)))
		Expect(res.NumStudents).To(Equal(60))
		Expect(res.NumSchools).To(Equal(8))
		Expect(res.Outcome.Students).To(HaveLen(60))
		Expect(res.Outcome.Schools).To(HaveLen(8))
		Expect(res.Outcome.Matches).To(HaveLen(60))
		Expect(res.Outcome.SchoolOutcomes).To(HaveLen(8))
		Expect(res.CustomMatch).To(BeNil())
	})

	It("should be bit-identical across runs with the same seed", func() {
		res1, err := smallBuilder().Build().Run()
		Expect(err).NotTo(HaveOccurred())

		res2, err := smallBuilder().Build().Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(res1.Outcome).To(Equal(res2.Outcome))
	})

	It("should fail fast on non-positive counts", func() {
		sim := simulation.MakeBuilder().
			WithStudentCount(0).
			WithSchoolCount(5).
			WithSeed(1).
			Build()

		res, err := sim.Run()

		var cfgErr *market.ConfigError
		Expect(err).To(HaveOccurred())
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(res).To(BeNil())
	})

	It("should terminate on a degenerate oversupplied market", func() {
		sim := simulation.MakeBuilder().
			WithStudentCount(3).
			WithSchoolCount(20).
			WithSeed(2).
			Build()

		res, err := sim.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome.MatchCount()).To(Equal(3))
	})

	Context("with a custom student", func() {
		roster := []population.SchoolRecord{
			{ID: "13K430", Capacity: 5, Admission: "open", Likeability: 8, PriorWeight: 100},
			{ID: "02M600", Capacity: 5, Admission: "open", Likeability: 3, PriorWeight: 50},
		}

		It("should surface the custom outcome distinctly", func() {
			sim := simulation.MakeBuilder().
				WithStudentCount(4).
				WithSeed(3).
				WithRoster(roster).
				WithCustomStudent(simulation.CustomStudent{
					// The all-zero key beats every generated key.
					Lottery:     strings.Repeat("0", 32),
					GPA:         92.5,
					Preferences: []string{"02M600", "13K430"},
				}).
				Build()

			res, err := sim.Run()
			Expect(err).NotTo(HaveOccurred())

			Expect(res.NumStudents).To(Equal(5), "4 synthetic plus the injected student")
			Expect(res.CustomMatch).NotTo(BeNil())
			Expect(res.CustomMatch.SchoolID).NotTo(BeNil())
			Expect(*res.CustomMatch.SchoolID).To(Equal("02M600"))
			Expect(*res.CustomMatch.Rank).To(Equal(1))

			rec := res.Outcome.Students[simulation.CustomStudentID]
			Expect(rec.Selection).To(Equal("custom"))
			Expect(rec.GPA).To(Equal(92.5))
			Expect(rec.ListLength).To(Equal(2))
		})

		It("should reject a malformed lottery identifier", func() {
			sim := simulation.MakeBuilder().
				WithStudentCount(4).
				WithSeed(3).
				WithRoster(roster).
				WithCustomStudent(simulation.CustomStudent{
					Lottery:     "not-a-lottery-number",
					Preferences: []string{"13K430"},
				}).
				Build()

			_, err := sim.Run()

			var cfgErr *market.ConfigError
			Expect(err).To(HaveOccurred())
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
		})

		It("should reject an unknown school on the custom list", func() {
			sim := simulation.MakeBuilder().
				WithStudentCount(4).
				WithSeed(3).
				WithRoster(roster).
				WithCustomStudent(simulation.CustomStudent{
					Lottery:     strings.Repeat("0", 32),
					Preferences: []string{"99Z999"},
				}).
				Build()

			_, err := sim.Run()

			var cfgErr *market.ConfigError
			Expect(err).To(HaveOccurred())
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
		})

		It("should reject an empty custom preference list", func() {
			sim := simulation.MakeBuilder().
				WithStudentCount(4).
				WithSeed(3).
				WithRoster(roster).
				WithCustomStudent(simulation.CustomStudent{
					Lottery: strings.Repeat("0", 32),
				}).
				Build()

			_, err := sim.Run()
			Expect(err).To(HaveOccurred())
		})

		It("should draw a GPA when the custom one is negative", func() {
			sim := simulation.MakeBuilder().
				WithStudentCount(4).
				WithSeed(3).
				WithRoster(roster).
				WithCustomStudent(simulation.CustomStudent{
					Lottery:     strings.Repeat("0", 32),
					GPA:         -1,
					Preferences: []string{"13K430"},
				}).
				Build()

			res, err := sim.Run()
			Expect(err).NotTo(HaveOccurred())

			gpa := res.Outcome.Students[simulation.CustomStudentID].GPA
			Expect(gpa).To(BeNumerically(">=", 0))
			Expect(gpa).To(BeNumerically("<=", 100))
		})
	})

	Context("with a recorder", func() {
		var mockCtrl *gomock.Controller

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should record the full run", func() {
			rec := mock_datarecording.NewMockRecorder(mockCtrl)
			rec.EXPECT().CreateTable(gomock.Any(), gomock.Any()).Times(6)
			rec.EXPECT().InsertData(gomock.Any(), gomock.Any()).MinTimes(1)
			rec.EXPECT().Flush()

			sim := smallBuilder().Build()
			sim.RegisterRecorder(rec)

			_, err := sim.Run()
			Expect(err).NotTo(HaveOccurred())
		})

		It("should not record a failed run", func() {
			rec := mock_datarecording.NewMockRecorder(mockCtrl)

			sim := simulation.MakeBuilder().
				WithStudentCount(-1).
				WithSchoolCount(1).
				WithSeed(1).
				Build()
			sim.RegisterRecorder(rec)

			_, err := sim.Run()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Builder", func() {
		It("should panic on a monitor port without monitoring", func() {
			Expect(func() {
				simulation.MakeBuilder().WithMonitorPort(8080).Build()
			}).To(Panic())
		})

		It("should panic on an output file name without recording", func() {
			Expect(func() {
				simulation.MakeBuilder().WithOutputFileName("out").Build()
			}).To(Panic())
		})
	})
})
