// Package ids hands out the numeric row ids used inside a package.
package ids

import (
	"sync"

	"github.com/conorfennell/deckpack/internal/domain"
)

// Allocator returns millisecond-based ids that strictly increase, even when
// several are requested within the same millisecond.
type Allocator struct {
	mu    sync.Mutex
	clock domain.Clock
	last  int64
}

// NewAllocator creates an allocator seeded from clock.
func NewAllocator(clock domain.Clock) *Allocator {
	return &Allocator{clock: clock}
}

// Next returns max(now in ms, previous id + 1).
func (a *Allocator) Next() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.clock.Now().UnixMilli()
	if id <= a.last {
		id = a.last + 1
	}
	a.last = id
	return id
}

// Process-wide allocators. Ids from these are never reused for the life of the process.
var (
	Models = NewAllocator(domain.RealClock{})
	Decks  = NewAllocator(domain.RealClock{})
	Notes  = NewAllocator(domain.RealClock{})
	Cards  = NewAllocator(domain.RealClock{})
)
