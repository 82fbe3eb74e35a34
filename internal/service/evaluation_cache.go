package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-answer-eval/internal/evaluation"
	"github.com/noah-isme/gema-answer-eval/internal/observability"
)

const (
	evaluationCachePrefix     = "eval:"
	defaultEvaluationCacheTTL = 10 * time.Minute
)

type cachedEvaluation struct {
	Analysis string           `json:"analysis"`
	Score    evaluation.Score `json:"score"`
}

type redisResultCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisResultCache stores successful evaluations keyed by the prompt digest.
// Redis errors degrade to cache misses.
func NewRedisResultCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) evaluation.ResultCache {
	if ttl <= 0 {
		ttl = defaultEvaluationCacheTTL
	}
	return &redisResultCache{
		redis:  client,
		ttl:    ttl,
		logger: logger.With().Str("component", "evaluation_cache").Logger(),
	}
}

// EvaluationCacheKey returns the Redis key for a prompt.
func EvaluationCacheKey(prompt evaluation.Prompt) string {
	sum := sha256.Sum256([]byte(prompt.Body))
	return evaluationCachePrefix + hex.EncodeToString(sum[:])
}

func (c *redisResultCache) Lookup(ctx context.Context, prompt evaluation.Prompt) (evaluation.Parsed, bool) {
	if c.redis == nil {
		return evaluation.Parsed{}, false
	}

	raw, err := c.redis.Get(ctx, EvaluationCacheKey(prompt)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Msg("failed to read cached evaluation")
		}
		observability.EvaluationCache().WithLabelValues("miss").Inc()
		return evaluation.Parsed{}, false
	}

	var entry cachedEvaluation
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Analysis == "" {
		c.logger.Warn().Err(err).Msg("discarding malformed cached evaluation")
		observability.EvaluationCache().WithLabelValues("miss").Inc()
		return evaluation.Parsed{}, false
	}

	observability.EvaluationCache().WithLabelValues("hit").Inc()
	return evaluation.Parsed{Analysis: entry.Analysis, Score: entry.Score}, true
}

func (c *redisResultCache) Store(ctx context.Context, prompt evaluation.Prompt, parsed evaluation.Parsed) {
	if c.redis == nil {
		return
	}

	payload, err := json.Marshal(cachedEvaluation{Analysis: parsed.Analysis, Score: parsed.Score})
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to marshal evaluation for cache")
		return
	}

	if err := c.redis.Set(ctx, EvaluationCacheKey(prompt), payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to cache evaluation")
	}
}
