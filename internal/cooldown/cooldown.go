// Package cooldown tracks time windows during which a provider is assumed
// unavailable after a rate-limit or quota signal. The tracker is advisory:
// a stale read under concurrent requests just means both callers hit the
// provider and handle the same rejection.
package cooldown

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Well-known tracker keys
const (
	KeyHeavyModel = "model:heavy"
	KeySearch     = "search"
	KeySpeech     = "speech"
)

// Tracker holds process-wide cooldown windows keyed by provider. Entries
// expire on their own; an expired or absent entry means "not on cooldown".
type Tracker struct {
	cache *gocache.Cache
	now   func() time.Time // injectable for tests
}

// NewTracker creates an empty cooldown tracker
func NewTracker() *Tracker {
	return &Tracker{
		cache: gocache.New(gocache.NoExpiration, 5*time.Minute),
		now:   time.Now,
	}
}

// Set places key on cooldown for d from now. Updates are monotonic: a
// shorter window never shrinks an existing longer one.
func (t *Tracker) Set(key string, d time.Duration) {
	if d <= 0 {
		return
	}
	until := t.now().Add(d)
	if _, expiry, found := t.cache.GetWithExpiration(key); found {
		if expiry.After(until) {
			return
		}
	}
	t.cache.Set(key, struct{}{}, d)
}

// Active reports whether key is currently on cooldown
func (t *Tracker) Active(key string) bool {
	_, found := t.cache.Get(key)
	return found
}

// Remaining returns how long key stays on cooldown, or zero if it is not
func (t *Tracker) Remaining(key string) time.Duration {
	_, expiry, found := t.cache.GetWithExpiration(key)
	if !found {
		return 0
	}
	rem := expiry.Sub(t.now())
	if rem < 0 {
		return 0
	}
	return rem
}

// Clear removes the cooldown for key
func (t *Tracker) Clear(key string) {
	t.cache.Delete(key)
}
