package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/zigzig/talent-matcher/internal/portfolio"
)

// GetParsed returns nil, nil when the user has no cached portfolio.
func (s *Store) GetParsed(ctx context.Context, userID string) (*portfolio.CacheEntry, error) {
	var entry portfolio.CacheEntry
	err := s.getJSON(ctx, PortfolioCacheKey(userID), &entry)
	if errors.Is(err, errKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Store) PutParsed(ctx context.Context, entry *portfolio.CacheEntry) error {
	if entry == nil || entry.UserID == "" {
		return fmt.Errorf("cache entry user id is required")
	}
	return s.setJSON(ctx, PortfolioCacheKey(entry.UserID), entry, PortfolioCacheTTL)
}
