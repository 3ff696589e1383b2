package identity

import (
	"errors"

	"github.com/pot-code/lms-client/internal/domain"
	"github.com/pot-code/lms-client/internal/infrastructure/driver"
	"go.uber.org/zap"
)

// CacheKey state-store key holding the resolved learner id
const CacheKey = "learnerId"

// ErrNotFound no learner id could be resolved from any fallback source
var ErrNotFound = errors.New("learner id not found")

// Resolver resolves the acting learner's identifier through a deterministic
// fallback chain: the persisted cache first, then the first record of the
// supplied enrollment history.
//
// The cache is never re-validated against the server; once resolved, a
// learner id is served as-is even if it has gone stale (known limitation).
type Resolver struct {
	store  driver.KeyValueDB
	logger *zap.Logger
}

// NewResolver create a resolver backed by the given state store
func NewResolver(store driver.KeyValueDB, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Resolve return the learner id, persisting it when it was recovered from
// the enrollment history. A learner with no cached id and no enrollments
// resolves to ErrNotFound.
func (r *Resolver) Resolve(enrollments []domain.Enrollment) (string, error) {
	cached, err := r.store.Get(CacheKey)
	if err == nil && cached != "" {
		return cached, nil
	}
	if err != nil && !errors.Is(err, driver.ErrKeyNotFound) {
		return "", err
	}

	if len(enrollments) > 0 && enrollments[0].LearnerID != "" {
		id := enrollments[0].LearnerID
		if err := r.store.SetEX(CacheKey, id, 0); err != nil {
			return "", err
		}
		r.logger.Debug("learner id recovered from enrollment history", zap.String("user.id", id))
		return id, nil
	}
	return "", ErrNotFound
}
