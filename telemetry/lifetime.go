package telemetry

import "maps"

// LifetimeTracker accumulates the nectar credited to each network identity
// across generations. An identity keeps earning while its parameters survive
// selection and is purged when it is overwritten.
type LifetimeTracker struct {
	totals map[string]int
}

// NewLifetimeTracker creates an empty tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{totals: make(map[string]int)}
}

// Record credits nectar to id.
func (lt *LifetimeTracker) Record(id string, nectar int) {
	lt.totals[id] += nectar
}

// Get returns the total for id and whether it is tracked.
func (lt *LifetimeTracker) Get(id string) (int, bool) {
	total, ok := lt.totals[id]
	return total, ok
}

// Remove purges id and returns its total.
func (lt *LifetimeTracker) Remove(id string) int {
	total := lt.totals[id]
	delete(lt.totals, id)
	return total
}

// Reset drops every identity.
func (lt *LifetimeTracker) Reset() {
	clear(lt.totals)
}

// All returns a copy of the totals.
func (lt *LifetimeTracker) All() map[string]int {
	return maps.Clone(lt.totals)
}

// Replace swaps in totals, for restoring a checkpoint.
func (lt *LifetimeTracker) Replace(totals map[string]int) {
	lt.totals = make(map[string]int, len(totals))
	maps.Copy(lt.totals, totals)
}

// Count returns the number of tracked identities.
func (lt *LifetimeTracker) Count() int {
	return len(lt.totals)
}
