package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/zigzig/talent-matcher/internal/portfolio"
)

func (s *Store) ListPublished(ctx context.Context) ([]*portfolio.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, slug, content, is_published, updated_at
		 FROM portfolios
		 WHERE is_published
		 ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listPublished query: %w", err)
	}
	defer rows.Close()

	records := make([]*portfolio.Record, 0)
	for rows.Next() {
		var (
			r       portfolio.Record
			content []byte
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Slug, &content, &r.IsPublished, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("listPublished scan: %w", err)
		}
		if len(content) > 0 {
			if err := json.Unmarshal(content, &r.Content); err != nil {
				// the parser treats empty content as an empty portfolio
				s.logger.Warn("unreadable portfolio content", zap.String("portfolio_id", r.ID), zap.Error(err))
			}
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listPublished rows: %w", err)
	}

	return records, nil
}

// UpsertPortfolio is used by seeding tools and tests.
func (s *Store) UpsertPortfolio(ctx context.Context, r *portfolio.Record) error {
	content, err := json.Marshal(r.Content)
	if err != nil {
		return fmt.Errorf("marshal content: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO portfolios (id, user_id, slug, content, is_published, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   user_id = EXCLUDED.user_id,
		   slug = EXCLUDED.slug,
		   content = EXCLUDED.content,
		   is_published = EXCLUDED.is_published,
		   updated_at = EXCLUDED.updated_at`,
		r.ID, r.UserID, r.Slug, content, r.IsPublished, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsertPortfolio: %w", err)
	}
	return nil
}
