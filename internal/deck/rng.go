package deck

// rng is a small splitmix-style generator. Fast, non-cryptographic, and
// fully determined by the seed string, which is all shuffling needs.
type rng struct {
	state uint64
}

const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
	goldenGamma = 0x9e3779b97f4a7c15
)

func newRNG(seed string) *rng {
	// FNV-1a over the seed string gives the initial state; mix once so
	// short seeds still diffuse across all 64 bits.
	h := uint64(fnvOffset64)
	for i := 0; i < len(seed); i++ {
		h ^= uint64(seed[i])
		h *= fnvPrime64
	}
	return &rng{state: mix(h)}
}

func (r *rng) next() uint64 {
	r.state += goldenGamma
	return mix(r.state)
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
