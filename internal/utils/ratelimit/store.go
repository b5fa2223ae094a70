package ratelimit

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultCategory = "default"

// Store holds one limiter per (category, client) pair, so a client throttled
// on login still has its own budget for predictions.
type Store struct {
	limiters        map[string]*Limiter
	rates           map[string]Rate
	mu              sync.RWMutex
	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

// NewStore creates a store and starts its idle-limiter eviction loop.
// Call Stop to end the loop.
func NewStore(defaultRate Rate, cleanupInterval time.Duration) *Store {
	store := &Store{
		limiters:        make(map[string]*Limiter),
		rates:           map[string]Rate{defaultCategory: defaultRate},
		cleanupInterval: cleanupInterval,
		stop:            make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go store.cleanupRoutine()
	}

	return store
}

func limiterKey(category, clientID string) string {
	return category + "|" + clientID
}

// GetLimiter returns the limiter of clientID within category, creating it
// with the category's rate, or the default rate, on first use.
func (s *Store) GetLimiter(clientID string, category string) *Limiter {
	key := limiterKey(category, clientID)

	s.mu.RLock()
	limiter, exists := s.limiters[key]
	s.mu.RUnlock()
	if exists {
		return limiter
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if limiter, exists = s.limiters[key]; exists {
		return limiter
	}

	rate, ok := s.rates[category]
	if !ok {
		rate = s.rates[defaultCategory]
	}

	limiter = NewLimiter(rate.RequestsPerSecond, rate.Burst)
	s.limiters[key] = limiter
	return limiter
}

// Allow is shorthand for GetLimiter(clientID, category).Allow().
func (s *Store) Allow(clientID, category string) bool {
	return s.GetLimiter(clientID, category).Allow()
}

// SetRate sets the rate used for limiters created in category from now on.
func (s *Store) SetRate(category string, rate Rate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[category] = rate
}

// Len returns the number of live limiters.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.limiters)
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) cleanupRoutine() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup(time.Now().Add(-s.cleanupInterval))
		case <-s.stop:
			return
		}
	}
}

// cleanup evicts limiters unused since cutoff. An evicted client starts over
// with a full bucket, which is what an idle client would have anyway.
func (s *Store) cleanup(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, limiter := range s.limiters {
		if limiter.idleSince(cutoff) {
			delete(s.limiters, key)
			removed++
		}
	}

	if removed > 0 {
		log.Debug().Int("removed", removed).Int("remaining", len(s.limiters)).Msg("Evicted idle rate limiters")
	}
}
