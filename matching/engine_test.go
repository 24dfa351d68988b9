package matching_test

import (
	"errors"
	"fmt"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/datalife-sim/matchsim/market"
	"github.com/datalife-sim/matchsim/matching"
	"github.com/datalife-sim/matchsim/population"
	"github.com/datalife-sim/matchsim/preference"
)

func openSchool(id string, capacity int) *market.School {
	sch := &market.School{ID: id, Capacity: capacity, Admission: market.AdmissionOpen}
	if err := sch.ResolveComparator(); err != nil {
		panic(err)
	}
	return sch
}

// key builds a lottery key whose order follows its argument: key(0) wins
// the lottery over key(1), and so on.
func key(n int) string {
	return fmt.Sprintf("%032x", n)
}

var _ = Describe("Engine", func() {
	It("should reproduce the worked three-student trace", func() {
		x := openSchool("X", 1)
		y := openSchool("Y", 1)

		a := &market.Student{ID: "A", LotteryKey: key(0),
			Preferences: []*market.School{x, y}}
		b := &market.Student{ID: "B", LotteryKey: key(1),
			Preferences: []*market.School{x, y}}
		c := &market.Student{ID: "C", LotteryKey: key(2),
			Preferences: []*market.School{y, x}}

		e := matching.NewEngine([]*market.Student{a, b, c}, []*market.School{x, y})
		Expect(e.Run()).To(Succeed())

		// A takes X outright. B is displaced from nothing but loses X to
		// A's better lottery, falls to Y. C proposes to Y after B holds
		// it with the better lottery, then loses X to A, exhausting the
		// list.
		pa, ok := e.Placement("A")
		Expect(ok).To(BeTrue())
		Expect(pa.School.ID).To(Equal("X"))
		Expect(pa.Rank).To(Equal(1))

		pb, ok := e.Placement("B")
		Expect(ok).To(BeTrue())
		Expect(pb.School.ID).To(Equal("Y"))
		Expect(pb.Rank).To(Equal(2))

		_, ok = e.Placement("C")
		Expect(ok).To(BeFalse())
		Expect(e.State("C")).To(Equal(matching.StateRejectedAll))

		Expect(e.CheckStability()).To(BeEmpty())
	})

	It("should match one student to one school", func() {
		x := openSchool("X", 1)
		s := &market.Student{ID: "A", LotteryKey: key(0),
			Preferences: []*market.School{x}}

		e := matching.NewEngine([]*market.Student{s}, []*market.School{x})
		Expect(e.Run()).To(Succeed())

		p, ok := e.Placement("A")
		Expect(ok).To(BeTrue())
		Expect(p.School.ID).To(Equal("X"))
		Expect(p.Rank).To(Equal(1))
	})

	It("should give a single seat to the lottery winner", func() {
		x := openSchool("X", 1)

		students := make([]*market.Student, 0, 20)
		for i := 0; i < 20; i++ {
			students = append(students, &market.Student{
				ID:          fmt.Sprintf("s%02d", i),
				LotteryKey:  key(100 - i), // s19 holds the best key
				Preferences: []*market.School{x},
			})
		}

		e := matching.NewEngine(students, []*market.School{x})
		Expect(e.Run()).To(Succeed())

		held := e.HeldStudents("X")
		Expect(held).To(HaveLen(1))
		Expect(held[0].ID).To(Equal("s19"))

		for i := 0; i < 19; i++ {
			Expect(e.State(fmt.Sprintf("s%02d", i))).
				To(Equal(matching.StateRejectedAll))
		}
	})

	It("should leave a student with an empty list unmatched", func() {
		x := openSchool("X", 5)
		s := &market.Student{ID: "A", LotteryKey: key(0)}

		e := matching.NewEngine([]*market.Student{s}, []*market.School{x})
		Expect(e.Run()).To(Succeed())

		Expect(e.State("A")).To(Equal(matching.StateRejectedAll))
		Expect(e.Proposals()).To(Equal(0))
	})

	It("should match everyone when capacity exceeds demand", func() {
		x := openSchool("X", 100)
		y := openSchool("Y", 100)

		students := make([]*market.Student, 0, 10)
		for i := 0; i < 10; i++ {
			students = append(students, &market.Student{
				ID:          fmt.Sprintf("s%d", i),
				LotteryKey:  key(i),
				Preferences: []*market.School{x, y},
			})
		}

		e := matching.NewEngine(students, []*market.School{x, y})
		Expect(e.Run()).To(Succeed())

		for _, s := range students {
			p, ok := e.Placement(s.ID)
			Expect(ok).To(BeTrue())
			Expect(p.School.ID).To(Equal("X"))
			Expect(p.Rank).To(Equal(1))
		}
	})

	It("should never accept anyone at a zero-capacity school", func() {
		x := openSchool("X", 0)
		y := openSchool("Y", 1)

		s := &market.Student{ID: "A", LotteryKey: key(0),
			Preferences: []*market.School{x, y}}

		e := matching.NewEngine([]*market.Student{s}, []*market.School{x, y})
		Expect(e.Run()).To(Succeed())

		p, ok := e.Placement("A")
		Expect(ok).To(BeTrue())
		Expect(p.School.ID).To(Equal("Y"))
		Expect(p.Rank).To(Equal(2))
		Expect(e.HeldStudents("X")).To(BeEmpty())
	})

	It("should fail on a comparator that cannot break a tie", func() {
		x := openSchool("X", 1)

		// Identical lottery keys defeat the lottery fallback.
		a := &market.Student{ID: "A", LotteryKey: key(7),
			Preferences: []*market.School{x}}
		b := &market.Student{ID: "B", LotteryKey: key(7),
			Preferences: []*market.School{x}}

		e := matching.NewEngine([]*market.Student{a, b}, []*market.School{x})
		err := e.Run()

		var invErr *market.InvariantError
		Expect(err).To(HaveOccurred())
		Expect(errors.As(err, &invErr)).To(BeTrue())
	})

	It("should reject a duplicated school on a preference list", func() {
		x := openSchool("X", 1)
		s := &market.Student{ID: "A", LotteryKey: key(0),
			Preferences: []*market.School{x, x}}

		e := matching.NewEngine([]*market.Student{s}, []*market.School{x})
		err := e.Run()

		var invErr *market.InvariantError
		Expect(err).To(HaveOccurred())
		Expect(errors.As(err, &invErr)).To(BeTrue())
	})

	It("should refuse to run twice", func() {
		x := openSchool("X", 1)
		s := &market.Student{ID: "A", LotteryKey: key(0),
			Preferences: []*market.School{x}}

		e := matching.NewEngine([]*market.Student{s}, []*market.School{x})
		Expect(e.Run()).To(Succeed())
		Expect(e.Run()).NotTo(Succeed())
	})

	It("should respect seat priority at an edopt school", func() {
		sch := &market.School{ID: "E", Capacity: 1, Admission: market.AdmissionEdOpt}
		Expect(sch.ResolveComparator()).To(Succeed())

		// Worse lottery but stronger tier wins the seat.
		strong := &market.Student{ID: "A", LotteryKey: key(9), SeatTier: 1,
			Preferences: []*market.School{sch}}
		weak := &market.Student{ID: "B", LotteryKey: key(1), SeatTier: 2,
			Preferences: []*market.School{sch}}

		e := matching.NewEngine([]*market.Student{weak, strong}, []*market.School{sch})
		Expect(e.Run()).To(Succeed())

		held := e.HeldStudents("E")
		Expect(held).To(HaveLen(1))
		Expect(held[0].ID).To(Equal("A"))
	})
})

var _ = Describe("Engine on generated populations", func() {
	runGenerated := func(seed int64, numStudents, numSchools int) *matching.Engine {
		rng := rand.New(rand.NewSource(seed))

		cfg := population.Config{
			NumStudents: numStudents,
			NumSchools:  numSchools,
			Dist:        population.DefaultDistributions(),
		}
		// Small schools keep the market competitive.
		cfg.Dist.Capacity = func(r *rand.Rand) int { return r.Intn(5) + 1 }

		students, schools, err := population.Generate(cfg, rng)
		Expect(err).NotTo(HaveOccurred())
		Expect(preference.Construct(students, schools, rng)).To(Succeed())

		e := matching.NewEngine(students, schools)
		Expect(e.Run()).To(Succeed())

		return e
	}

	It("should produce a stable assignment", func() {
		e := runGenerated(17, 300, 20)
		Expect(e.CheckStability()).To(BeEmpty())
	})

	It("should never hold more students than seats", func() {
		e := runGenerated(23, 500, 15)

		for _, sch := range e.Schools() {
			Expect(len(e.HeldStudents(sch.ID))).
				To(BeNumerically("<=", sch.Capacity))
		}
	})

	It("should report ranks consistent with preference lists", func() {
		e := runGenerated(29, 200, 12)

		for _, s := range e.Students() {
			p, ok := e.Placement(s.ID)
			if !ok {
				continue
			}
			Expect(s.Preferences[p.Rank-1].ID).To(Equal(p.School.ID))
		}
	})

	It("should halt within the proposal bound", func() {
		e := runGenerated(31, 400, 10)

		bound := 0
		for _, s := range e.Students() {
			bound += len(s.Preferences)
		}
		Expect(e.Proposals()).To(BeNumerically("<=", bound))
	})

	It("should be deterministic for a fixed seed", func() {
		e1 := runGenerated(41, 250, 18)
		e2 := runGenerated(41, 250, 18)

		for _, s := range e1.Students() {
			p1, ok1 := e1.Placement(s.ID)
			p2, ok2 := e2.Placement(s.ID)
			Expect(ok1).To(Equal(ok2))
			if ok1 {
				Expect(p1.School.ID).To(Equal(p2.School.ID))
				Expect(p1.Rank).To(Equal(p2.Rank))
			}
		}
	})
})
