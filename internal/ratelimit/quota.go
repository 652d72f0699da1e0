package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// QuotaExceededError denies a search before any provider work starts.
type QuotaExceededError struct {
	UserID   string
	MaxCalls int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily search quota exceeded for user %s (limit %d)", e.UserID, e.MaxCalls)
}

type quotaEntry struct {
	count int
	day   string
}

// DailyQuota counts searches per user per calendar day. The count resets
// lazily on the first call of a new day.
type DailyQuota struct {
	mu       sync.Mutex
	entries  map[string]*quotaEntry
	maxCalls int
	now      func() time.Time
}

func NewDailyQuota(maxCalls int) *DailyQuota {
	return &DailyQuota{
		entries:  make(map[string]*quotaEntry),
		maxCalls: maxCalls,
		now:      time.Now,
	}
}

// Consume charges one search against the user's quota. It returns a
// QuotaExceededError when the user is already at the limit; the failed
// attempt itself is not charged.
func (q *DailyQuota) Consume(userID string) error {
	if q.maxCalls <= 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	today := q.now().UTC().Format("2006-01-02")
	entry, ok := q.entries[userID]
	if !ok || entry.day != today {
		entry = &quotaEntry{day: today}
		q.entries[userID] = entry
	}

	if entry.count >= q.maxCalls {
		return &QuotaExceededError{UserID: userID, MaxCalls: q.maxCalls}
	}
	entry.count++
	return nil
}

// Remaining reports how many searches the user has left today.
func (q *DailyQuota) Remaining(userID string) int {
	if q.maxCalls <= 0 {
		return -1
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	today := q.now().UTC().Format("2006-01-02")
	entry, ok := q.entries[userID]
	if !ok || entry.day != today {
		return q.maxCalls
	}
	remaining := q.maxCalls - entry.count
	if remaining < 0 {
		return 0
	}
	return remaining
}
