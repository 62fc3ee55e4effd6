package derive

import (
	"math/rand"
	"sync"
	"time"
)

// NoiseSource supplies the bounded jitter term the derivation formulas add
// so repeated requests do not render identical bars. Injecting it keeps the
// deterministic core testable: pass ZeroNoise and every formula collapses to
// its closed form.
type NoiseSource interface {
	// Jitter returns a value in [-scale, scale]
	Jitter(scale float64) float64
}

// UniformNoise draws uniformly from [-scale, scale].
type UniformNoise struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewUniformNoise creates a time-seeded uniform source.
func NewUniformNoise() *UniformNoise {
	return &UniformNoise{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (n *UniformNoise) Jitter(scale float64) float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return (n.rng.Float64()*2 - 1) * scale
}

// ZeroNoise disables jitter entirely.
type ZeroNoise struct{}

func (ZeroNoise) Jitter(float64) float64 { return 0 }
