package market

// A School is one program in the admissions market, identified by a
// DBN-like code.
type School struct {
	ID        string
	Capacity  int
	Admission AdmissionPolicy

	// PriorWeight is the demand estimate used as the sampling weight for
	// popularity-weighted selection. ObservedPopularity is the posterior
	// count of students that listed the school, recomputed after all
	// preference lists exist. The two are deliberately separate fields:
	// the prior is a weighting input, the posterior an outcome metric.
	PriorWeight        float64
	ObservedPopularity int

	// Likeability is an a priori desirability index, independent of
	// realized demand, consumed by the likeability ranking policy.
	Likeability int

	// Compare is the applicant comparator resolved once from Admission.
	Compare CompareFunc
}

// ResolveComparator fills in Compare from the school's admission policy.
func (s *School) ResolveComparator() error {
	cmp, err := s.Admission.Comparator()
	if err != nil {
		return err
	}

	s.Compare = cmp

	return nil
}
