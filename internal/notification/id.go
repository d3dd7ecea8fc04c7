package notification

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultMaxRandomID bounds generated ids. Collisions are unlikely but possible.
const DefaultMaxRandomID = 10000

// IDGenerator hands out notification ids. Implementations make no uniqueness promise.
type IDGenerator interface {
	NextID() int
}

// RandomIDs draws ids uniformly from [1, Max].
type RandomIDs struct {
	mu  sync.Mutex
	max int
	rng *rand.Rand
}

// NewRandomIDs returns a generator over [1, max]. A seed of 0 seeds from the clock.
func NewRandomIDs(max int, seed int64) *RandomIDs {
	if max <= 0 {
		max = DefaultMaxRandomID
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomIDs{max: max, rng: rand.New(rand.NewSource(seed))}
}

func (g *RandomIDs) NextID() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(g.max) + 1
}

func (g *RandomIDs) Max() int { return g.max }

// Int returns a pointer to v, for optional Options fields.
func Int(v int) *int { return &v }

// At returns a pointer to t, for Options.ScheduledAt.
func At(t time.Time) *time.Time { return &t }
