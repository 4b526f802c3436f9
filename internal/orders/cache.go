package orders

import (
	"sync"

	"orderflow/pkg/models"
)

// UserCache holds the last known good snapshot of every user seen on the
// registry-event stream. It is the fallback source for order validation
// when the live registry call cannot be trusted.
//
// Apply is a plain overwrite keyed by user id (last write wins by arrival
// order, no version check), which makes re-application of a redelivered
// event a no-op in effect. Entries are never expired or removed; no
// user-removal event exists in this domain and the user catalog grows
// slowly, so the map stays bounded in practice.
type UserCache struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewUserCache creates an empty cache.
func NewUserCache() *UserCache {
	return &UserCache{users: make(map[string]models.User)}
}

// Apply stores the snapshot, replacing any previous one for the same user.
func (c *UserCache) Apply(user models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[user.ID] = user
}

// Lookup returns the cached snapshot for the user, if any.
func (c *UserCache) Lookup(userID string) (models.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	user, ok := c.users[userID]
	return user, ok
}

// Len reports the number of distinct users cached.
func (c *UserCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users)
}
