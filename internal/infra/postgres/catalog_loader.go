package postgres

import (
	"context"
	"fmt"

	"bird-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader reads the bird catalog from Postgres.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadBirds(ctx context.Context) ([]domain.Bird, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, common_name, scientific_name,
		       COALESCE(family, ''), COALESCE(bird_order, ''),
		       COALESCE(description, ''), COALESCE(image_url, ''),
		       COALESCE(audio_url, ''), COALESCE(range_map_url, ''),
		       COALESCE(habitat, ''), COALESCE(size, ''),
		       COALESCE(diet, ''), COALESCE(conservation_status, '')
		FROM birds
		ORDER BY common_name`)
	if err != nil {
		return nil, fmt.Errorf("load birds: %w", err)
	}
	defer rows.Close()

	var birds []domain.Bird
	for rows.Next() {
		var b domain.Bird
		if err := rows.Scan(
			&b.ID, &b.CommonName, &b.ScientificName,
			&b.Family, &b.Order,
			&b.Description, &b.ImageURL,
			&b.AudioURL, &b.RangeMapURL,
			&b.Habitat, &b.Size,
			&b.Diet, &b.ConservationStatus,
		); err != nil {
			return nil, fmt.Errorf("scan bird: %w", err)
		}
		birds = append(birds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load birds: %w", err)
	}
	return birds, nil
}
