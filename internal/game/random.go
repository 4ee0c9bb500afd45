package game

import (
	"math/rand/v2"
	"sync"
)

// Random is the single source of every random choice a round makes:
// impostor, starting player and word draw.
type Random interface {
	// Intn returns a value in [0, n). n is always > 0.
	Intn(n int) int
}

type defaultRandom struct{}

func (defaultRandom) Intn(n int) int {
	return rand.IntN(n)
}

// DefaultRandom draws from the runtime's global generator
var DefaultRandom Random = defaultRandom{}

type seededRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a reproducible source seeded with seed, safe for concurrent use
func NewRandom(seed uint64) Random {
	return &seededRandom{rng: rand.New(rand.NewPCG(seed, seed))}
}

func (r *seededRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}
