package simulator

// RNG is the randomness source behind the solar and appliance models.
// math/rand/v2 *rand.Rand satisfies it; tests substitute fixed
// sequences for deterministic runs.
type RNG interface {
	Float64() float64
}

// uniform draws from [lo, hi).
func uniform(rng RNG, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}
