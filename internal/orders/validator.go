package orders

import (
	"context"
	"errors"
	"log"

	"orderflow/pkg/breaker"
	"orderflow/pkg/metrics"
	"orderflow/pkg/models"
	"orderflow/pkg/registry"
)

var (
	// ErrUserUnknown means the registry answered and the user does not exist.
	ErrUserUnknown = errors.New("user not found")

	// ErrUserUnverifiable means the registry is unavailable and the user has
	// never been seen on the event stream, so admission cannot be decided.
	ErrUserUnverifiable = errors.New("user registry unavailable and user unknown to cache")
)

// UserGetter is the synchronous live check against the registry.
type UserGetter interface {
	GetUser(ctx context.Context, id string) (models.User, error)
}

// Validator decides whether an order may be admitted for a user. The live
// registry call runs under the circuit breaker; when it fails (open circuit,
// timeout, upstream error) the decision falls back to the last snapshot seen
// on the event stream. The service deliberately prefers admitting orders for
// users it has ever seen over refusing all orders while the registry is
// degraded, accepting that the snapshot may be stale.
type Validator struct {
	registry UserGetter
	breaker  *breaker.Breaker
	cache    *UserCache
}

// NewValidator wires the live client, the breaker guarding it, and the
// fallback cache.
func NewValidator(reg UserGetter, brk *breaker.Breaker, cache *UserCache) *Validator {
	return &Validator{registry: reg, breaker: brk, cache: cache}
}

// Validate returns nil to admit the order, ErrUserUnknown if the registry
// definitively does not know the user, or ErrUserUnverifiable if neither
// the registry nor the cache can vouch for the user.
func (v *Validator) Validate(ctx context.Context, userID string) error {
	_, err := breaker.Do(v.breaker, ctx, func(ctx context.Context) (models.User, error) {
		return v.registry.GetUser(ctx, userID)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, registry.ErrNotFound) {
		return ErrUserUnknown
	}

	// Live check failed: open circuit, timeout or upstream error.
	if _, ok := v.cache.Lookup(userID); ok {
		metrics.ValidationFallbacks.Inc()
		log.Printf("[Orders] Registry unavailable (%v), admitting user_id=%s from cached snapshot", err, userID)
		return nil
	}

	log.Printf("[Orders] Registry unavailable (%v) and user_id=%s not cached, rejecting", err, userID)
	return ErrUserUnverifiable
}
