package evolution

import (
	"math/rand"

	"github.com/aortez/dirtsim/config"
)

// Mutate returns a mutated copy of parent, weight-for-weight, exactly
// Mutation.cpp's algorithm: each weight independently draws a coin r; r <
// resetRate fully replaces it with a fresh ~N(0, 2*sigma) sample (the
// *2.0 in the original is a single N(0,sigma) draw scaled, equivalent in
// distribution to N(0,2*sigma) only in the sense of the scale factor — kept
// byte-for-byte identical to the source rather than "corrected"); r <
// resetRate+rate instead perturbs by an independent ~N(0,sigma) draw;
// otherwise the weight is untouched. With rate=0 and resetRate=0 this is
// the identity on weights (spec.md §8 "mutation floor").
func Mutate(parent []float32, cfg config.MutationConfig, rng *rand.Rand) []float32 {
	child := append([]float32(nil), parent...)
	sigma := cfg.Sigma
	for i := range child {
		r := rng.Float64()
		switch {
		case r < cfg.ResetRate:
			child[i] = float32(rng.NormFloat64()*sigma) * 2.0
		case r < cfg.ResetRate+cfg.Rate:
			child[i] += float32(rng.NormFloat64() * sigma)
		}
	}
	return child
}
