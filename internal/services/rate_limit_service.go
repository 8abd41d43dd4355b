package services

import (
	"sync"
	"time"
)

type RateLimitServiceConfig struct {
	Max    int
	Window time.Duration
}

type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Used      int
	Remaining int
}

// RateLimitService is a sliding window counter keyed by an arbitrary string. Every
// attempt is recorded, including rejected ones, so a flood keeps the key's window at
// roughly Max+1 entries instead of letting it grow. State is process-local.
type RateLimitService struct {
	config  RateLimitServiceConfig
	windows map[string][]time.Time
	mutex   sync.Mutex
	now     func() time.Time
}

func NewRateLimitService(config RateLimitServiceConfig) *RateLimitService {
	return &RateLimitService{
		config:  config,
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

func (rl *RateLimitService) CheckAndRecord(key string) RateLimitDecision {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.config.Window)

	current := rl.windows[key]
	pruned := make([]time.Time, 0, len(current)+1)

	for _, t := range current {
		if t.After(windowStart) {
			pruned = append(pruned, t)
		}
	}

	pruned = append(pruned, now)
	rl.windows[key] = pruned

	used := len(pruned)

	return RateLimitDecision{
		Allowed:   used <= rl.config.Max,
		Limit:     rl.config.Max,
		Used:      used,
		Remaining: max(rl.config.Max-used, 0),
	}
}

// Sweep drops keys whose newest attempt has left the window. Returns the number of
// keys removed.
func (rl *RateLimitService) Sweep() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	windowStart := rl.now().Add(-rl.config.Window)
	removed := 0

	for key, window := range rl.windows {
		if len(window) == 0 || !window[len(window)-1].After(windowStart) {
			delete(rl.windows, key)
			removed++
		}
	}

	return removed
}

func (rl *RateLimitService) Len() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.windows)
}
