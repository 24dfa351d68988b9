package preference

import (
	"math/rand"

	"github.com/datalife-sim/matchsim/market"
)

// sampleUniform draws k distinct schools uniformly without replacement.
// Operates on a scratch copy so the caller's slice is untouched.
func sampleUniform(rng *rand.Rand, pool []*market.School, k int) []*market.School {
	remaining := make([]*market.School, len(pool))
	copy(remaining, pool)

	picked := make([]*market.School, 0, k)
	for len(picked) < k {
		i := rng.Intn(len(remaining))
		picked = append(picked, remaining[i])
		remaining[i] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
	}

	return picked
}

// sampleWeighted draws k distinct schools without replacement with
// probability proportional to each remaining school's prior weight. The
// weight distribution is recomputed after each removal so it stays a valid
// probability distribution over the remaining pool. A zero-weight school
// is never drawn while any positive-weight school remains; once only
// zero-weight schools are left the remaining draws fall back to uniform.
func sampleWeighted(rng *rand.Rand, pool []*market.School, k int) []*market.School {
	remaining := make([]*market.School, len(pool))
	copy(remaining, pool)

	picked := make([]*market.School, 0, k)
	for len(picked) < k {
		total := 0.0
		for _, sch := range remaining {
			total += sch.PriorWeight
		}

		var i int
		if total <= 0 {
			i = rng.Intn(len(remaining))
		} else {
			target := rng.Float64() * total
			cum := 0.0
			for j, sch := range remaining {
				cum += sch.PriorWeight
				if target < cum {
					i = j
					break
				}
			}
		}

		picked = append(picked, remaining[i])
		remaining[i] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
	}

	return picked
}
