package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/unisphere/exam-gateway/internal/config"
	"github.com/unisphere/exam-gateway/internal/model"
)

// CachedExamProvider wraps the client with a Redis cache-aside layer for exam
// snapshots. Snapshots are immutable for an attempt's lifetime, so a short
// TTL only bounds how long a re-authored exam keeps serving stale content to
// NEW attempts; running attempts keep the snapshot they loaded.
//
// Only read-only exam content is cached. Attempt state (answers, clock,
// cursor) never touches Redis.
type CachedExamProvider struct {
	client *Client
	rdb    *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewCachedExamProvider creates the caching wrapper. A nil rdb disables
// caching entirely and every call passes through.
func NewCachedExamProvider(client *Client, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *CachedExamProvider {
	return &CachedExamProvider{
		client: client,
		rdb:    rdb,
		ttl:    cfg.ExamCacheTTL,
		log:    log.With().Str("component", "exam_cache").Logger(),
	}
}

// FetchExam returns the cached snapshot when present, otherwise fetches from
// upstream and populates the cache. Cache failures degrade to a plain fetch —
// Redis being down must never block an exam from starting.
func (p *CachedExamProvider) FetchExam(ctx context.Context, token, examID string) (*model.Exam, error) {
	key := config.CacheKey.ExamSnapshotKey(examID)

	if p.rdb != nil {
		raw, err := p.rdb.Get(ctx, key).Result()
		switch {
		case err == nil:
			var exam model.Exam
			if jsonErr := json.Unmarshal([]byte(raw), &exam); jsonErr == nil {
				return &exam, nil
			}
			// Corrupt cache entry — drop it and refetch.
			_ = p.rdb.Del(ctx, key).Err()
		case !errors.Is(err, redis.Nil):
			p.log.Warn().Err(err).Str("exam_id", examID).Msg("Cache read failed")
		}
	}

	exam, err := p.client.FetchExam(ctx, token, examID)
	if err != nil {
		return nil, err
	}

	if p.rdb != nil {
		raw, err := json.Marshal(exam)
		if err == nil {
			if err := p.rdb.Set(ctx, key, raw, p.ttl).Err(); err != nil {
				p.log.Warn().Err(err).Str("exam_id", examID).Msg("Cache write failed")
			}
		}
	}

	return exam, nil
}

// Invalidate removes a cached snapshot, used after admin edits or deletes.
func (p *CachedExamProvider) Invalidate(ctx context.Context, examID string) error {
	if p.rdb == nil {
		return nil
	}
	key := config.CacheKey.ExamSnapshotKey(examID)
	if err := p.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("invalidate exam cache %s: %w", examID, err)
	}
	return nil
}
