package engine

import "vitals/internal/gates"

// viewCache memoizes derived views keyed by a state version counter. Every
// mutating engine call bumps the version, which implicitly invalidates
// everything the cache holds; reads compare versions instead of clearing
// maps eagerly.
type viewCache struct {
	version uint64

	gatesVersion uint64
	gates        map[string]gates.Gate
}

// invalidate marks all cached views stale.
func (c *viewCache) invalidate() {
	c.version++
}

// cachedGates returns the memoized gate map if it is current.
func (c *viewCache) cachedGates() (map[string]gates.Gate, bool) {
	if c.gates == nil || c.gatesVersion != c.version {
		return nil, false
	}
	return c.gates, true
}

// storeGates memoizes a freshly computed gate map at the current version.
func (c *viewCache) storeGates(g map[string]gates.Gate) {
	c.gates = g
	c.gatesVersion = c.version
}
