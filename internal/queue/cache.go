package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"visualverify/internal/fingerprint"
)

// PutCache inserts or refreshes the cached verdict for an image.
func (s *Store) PutCache(ctx context.Context, entry CacheEntry) error {
	if entry.ContentHash == "" {
		return errors.New("cache entry requires a content hash")
	}
	now := formatTime(time.Now())
	_, err := s.exec(ctx,
		`INSERT INTO image_cache (`+cacheColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
         ON CONFLICT(content_hash) DO UPDATE SET
             url_key = COALESCE(excluded.url_key, image_cache.url_key),
             perceptual_hash = excluded.perceptual_hash,
             secondary_hash = excluded.secondary_hash,
             verdict = excluded.verdict,
             confidence = excluded.confidence,
             explanation = excluded.explanation,
             last_seen = excluded.last_seen`,
		entry.ContentHash,
		nullableString(entry.URLKey),
		nullableString(entry.PerceptualHash),
		nullableString(entry.SecondaryHash),
		entry.Verdict,
		entry.Confidence,
		nullableString(entry.Explanation),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("put cache: %w", err)
	}
	return nil
}

// CacheByURL looks up a cached verdict by the URL the image was fetched from.
func (s *Store) CacheByURL(ctx context.Context, imageURL string) (*CacheEntry, error) {
	return s.cacheLookup(ctx, `url_key = ?`, URLKey(imageURL))
}

// CacheByContent looks up a cached verdict by exact content hash.
func (s *Store) CacheByContent(ctx context.Context, contentHash string) (*CacheEntry, error) {
	return s.cacheLookup(ctx, `content_hash = ?`, contentHash)
}

// CacheNearDuplicate returns the cached entry whose perceptual hash is closest
// to phash, provided the distance is within maxDistance.
func (s *Store) CacheNearDuplicate(ctx context.Context, phash string, maxDistance int) (*CacheEntry, error) {
	if phash == "" || maxDistance <= 0 {
		return nil, nil
	}
	entries, err := s.listCache(ctx, `perceptual_hash IS NOT NULL`+s.ttlClause(), s.ttlArgs()...)
	if err != nil {
		return nil, err
	}
	var best *CacheEntry
	for _, entry := range entries {
		dist, err := fingerprint.Distance(phash, entry.PerceptualHash)
		if err != nil || dist > maxDistance {
			continue
		}
		if best == nil || dist < best.Distance {
			entry.Distance = dist
			best = entry
		}
	}
	if best != nil {
		s.touchCache(ctx, best.ContentHash)
	}
	return best, nil
}

// ListCache returns cache rows ordered by most recent use.
func (s *Store) ListCache(ctx context.Context, limit int) ([]*CacheEntry, error) {
	where := `1 = 1 ORDER BY last_seen DESC`
	if limit > 0 {
		where += fmt.Sprintf(` LIMIT %d`, limit)
	}
	return s.listCache(ctx, where)
}

// PruneCache deletes cache rows not used since cutoff.
func (s *Store) PruneCache(ctx context.Context, cutoff time.Time) (int64, error) {
	affected, err := s.execAffected(ctx, `DELETE FROM image_cache WHERE last_seen < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return affected, nil
}

// ClearCache deletes every cache row.
func (s *Store) ClearCache(ctx context.Context) (int64, error) {
	affected, err := s.execAffected(ctx, `DELETE FROM image_cache`)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return affected, nil
}

func (s *Store) cacheLookup(ctx context.Context, where string, arg any) (*CacheEntry, error) {
	args := append([]any{arg}, s.ttlArgs()...)
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+cacheColumns+` FROM image_cache WHERE `+where+s.ttlClause()+` ORDER BY last_seen DESC LIMIT 1`,
		args...,
	)
	entry, err := scanCacheEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}
	s.touchCache(ctx, entry.ContentHash)
	entry.Hits++
	return entry, nil
}

func (s *Store) listCache(ctx context.Context, where string, args ...any) ([]*CacheEntry, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+cacheColumns+` FROM image_cache WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list cache: %w", err)
	}
	defer rows.Close()

	var entries []*CacheEntry
	for rows.Next() {
		entry, err := scanCacheEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// touchCache records a hit. Failures only cost hit accounting, so they are ignored.
func (s *Store) touchCache(ctx context.Context, contentHash string) {
	_, _ = s.exec(ctx,
		`UPDATE image_cache SET hits = hits + 1, last_seen = ? WHERE content_hash = ?`,
		formatTime(time.Now()), contentHash,
	)
}

func (s *Store) ttlClause() string {
	if s.cacheTTL <= 0 {
		return ""
	}
	return ` AND last_seen >= ?`
}

func (s *Store) ttlArgs() []any {
	if s.cacheTTL <= 0 {
		return nil
	}
	return []any{formatTime(time.Now().Add(-s.cacheTTL))}
}
