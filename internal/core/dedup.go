package core

import "time"

// DefaultSweepEvery is how many insertions pass between amortized sweeps.
const DefaultSweepEvery = 100

// dedupSet tracks recently seen reliable-message IDs. Not safe for concurrent
// use; each channel owns one and serializes access through its own lock.
type dedupSet struct {
	entries    map[string]time.Time // id -> expiresAt
	sweepEvery int
	inserts    int
}

func newDedupSet(sweepEvery int) *dedupSet {
	if sweepEvery <= 0 {
		sweepEvery = DefaultSweepEvery
	}
	return &dedupSet{
		entries:    make(map[string]time.Time),
		sweepEvery: sweepEvery,
	}
}

// Observe reports whether id is novel and, if so, tracks it until now+ttl.
// A tracked id whose entry has already expired counts as novel again and its
// expiry is refreshed. Every sweepEvery insertions a sweep runs inline, so
// the set holds at most sweepEvery stale entries past their expiry.
func (d *dedupSet) Observe(id string, now time.Time, ttl time.Duration) bool {
	if exp, ok := d.entries[id]; ok && now.Before(exp) {
		return false
	}
	d.entries[id] = now.Add(ttl)
	d.inserts++
	if d.inserts >= d.sweepEvery {
		d.inserts = 0
		d.Sweep(now)
	}
	return true
}

// Sweep evicts every entry whose expiry is at or before now. Deleting from a
// Go map while ranging over it never skips surviving entries, so a single
// pass is enough.
func (d *dedupSet) Sweep(now time.Time) {
	for id, exp := range d.entries {
		if !exp.After(now) {
			delete(d.entries, id)
		}
	}
}

func (d *dedupSet) Len() int { return len(d.entries) }
