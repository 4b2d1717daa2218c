package navigation

import (
	"sync"
	"sync/atomic"

	"github.com/udisondev/navrunner/internal/model"
)

// FlightStore records which territories are known to allow flight.
// Implementations must be safe for concurrent use.
type FlightStore interface {
	// Lookup returns the cached verdict; known is false for territories never probed.
	Lookup(id model.TerritoryID) (capable, known bool)

	// Record stores a probe result. A territory recorded as capable stays capable.
	Record(id model.TerritoryID, capable bool)
}

// FlightCache is the process-wide FlightStore shared by all controllers.
// Entries are never evicted; territory ids are a small bounded set.
type FlightCache struct {
	entries sync.Map // map[model.TerritoryID]bool
	count   atomic.Int32
}

// NewFlightCache creates an empty cache.
func NewFlightCache() *FlightCache {
	return &FlightCache{}
}

// Lookup implements FlightStore.
func (c *FlightCache) Lookup(id model.TerritoryID) (capable, known bool) {
	v, ok := c.entries.Load(id)
	if !ok {
		return false, false
	}
	return v.(bool), true
}

// Record implements FlightStore.
// true always wins; false only fills an empty slot, so a capable territory is never downgraded.
func (c *FlightCache) Record(id model.TerritoryID, capable bool) {
	if capable {
		if _, loaded := c.entries.Swap(id, true); !loaded {
			c.count.Add(1)
		}
		return
	}
	if _, loaded := c.entries.LoadOrStore(id, false); !loaded {
		c.count.Add(1)
	}
}

// Len returns the number of territories with a verdict.
func (c *FlightCache) Len() int {
	return int(c.count.Load())
}

// Snapshot returns a copy of all entries.
func (c *FlightCache) Snapshot() map[model.TerritoryID]bool {
	out := make(map[model.TerritoryID]bool, c.Len())
	c.entries.Range(func(key, value any) bool {
		out[key.(model.TerritoryID)] = value.(bool)
		return true
	})
	return out
}
