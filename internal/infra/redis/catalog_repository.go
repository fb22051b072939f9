package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"bird-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const catalogKey = "birds:catalog"

// CatalogLoader fetches the bird catalog from a backing store.
type CatalogLoader interface {
	LoadBirds(ctx context.Context) ([]domain.Bird, error)
}

// CatalogRepository caches the serialized catalog in Redis and falls back
// to the loader on a miss. The whole list is one JSON value: the catalog
// is small and always read in full by the question builder.
type CatalogRepository struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) ListBirds(ctx context.Context) ([]domain.Bird, error) {
	if birds, ok := r.fromCache(ctx); ok {
		return birds, nil
	}

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if birds, ok := r.fromCache(ctx); ok {
			return birds, nil
		}

		birds, err := r.loader.LoadBirds(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(birds); err == nil {
			// best-effort write; a failed cache fill is not an error
			_ = r.client.Set(ctx, catalogKey, data, r.ttlWithJitter()).Err()
		}
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

func (r *CatalogRepository) fromCache(ctx context.Context) ([]domain.Bird, bool) {
	data, err := r.client.Get(ctx, catalogKey).Bytes()
	if err != nil {
		return nil, false
	}
	var birds []domain.Bird
	if err := json.Unmarshal(data, &birds); err != nil {
		return nil, false
	}
	return birds, true
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
