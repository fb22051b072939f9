package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"bird-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the bird catalog from a backing store.
type CatalogLoader interface {
	LoadBirds(ctx context.Context) ([]domain.Bird, error)
}

// CatalogRepository caches the catalog with TTL to avoid repeated store
// hits; concurrent misses are collapsed through singleflight.
type CatalogRepository struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	birds     []domain.Bird
	expiresAt time.Time
}

func NewCatalogRepository(loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) ListBirds(ctx context.Context) ([]domain.Bird, error) {
	if birds, ok := r.fromCache(); ok {
		return birds, nil
	}

	result, err, _ := r.sf.Do("catalog", func() (interface{}, error) {
		if birds, ok := r.fromCache(); ok {
			return birds, nil
		}

		birds, err := r.loader.LoadBirds(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.birds = birds
		r.expiresAt = r.clock().Add(r.ttlWithJitter())
		r.mu.Unlock()
		return birds, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Bird), nil
}

func (r *CatalogRepository) GetBird(ctx context.Context, id int64) (domain.Bird, error) {
	birds, err := r.ListBirds(ctx)
	if err != nil {
		return domain.Bird{}, err
	}
	for _, b := range birds {
		if b.ID == id {
			return b, nil
		}
	}
	return domain.Bird{}, domain.ErrBirdNotFound
}

// fromCache returns the cached list if present and fresh. A non-positive
// TTL never expires, matching redis semantics for a zero expiration.
func (r *CatalogRepository) fromCache() ([]domain.Bird, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.birds == nil {
		return nil, false
	}
	if r.ttl > 0 && !r.expiresAt.After(r.clock()) {
		return nil, false
	}
	return r.birds, true
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticCatalogLoader serves a fixed bird list (useful for tests/demos).
type StaticCatalogLoader struct {
	birds []domain.Bird
}

func NewStaticCatalogLoader(birds []domain.Bird) *StaticCatalogLoader {
	return &StaticCatalogLoader{birds: birds}
}

func (l *StaticCatalogLoader) LoadBirds(_ context.Context) ([]domain.Bird, error) {
	return l.birds, nil
}
