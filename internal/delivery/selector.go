package delivery

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Selector picks one courier uniformly at random from the eligible set.
// Candidates are sorted first so a fixed seed yields a reproducible choice.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector seeds the picker. A zero seed uses the clock.
func NewSelector(seed int64) *Selector {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Selector{rng: rand.New(rand.NewSource(seed))}
}

// Pick returns false when there are no candidates.
func (s *Selector) Pick(candidates []uuid.UUID) (uuid.UUID, bool) {
	if len(candidates) == 0 {
		return uuid.Nil, false
	}
	sorted := append([]uuid.UUID(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	s.mu.Lock()
	idx := s.rng.Intn(len(sorted))
	s.mu.Unlock()
	return sorted[idx], true
}
