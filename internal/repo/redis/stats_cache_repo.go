package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	weaknessPrefix    = "weakness:"
	weaknessGenPrefix = "weakness_gen:"
)

// StatsCacheRepo caches derived weakness scores. The ledger itself is never
// cached; keys embed a per-user generation counter, so bumping the counter
// on every recorded attempt invalidates all of the user's cached scores
// without any key scans.
type StatsCacheRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

type CachedWeakness struct {
	Score   float64
	HasData bool
	Total   int64
	Correct int64
}

func NewStatsCacheRepo(client *goredis.Client, ttl time.Duration) *StatsCacheRepo {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatsCacheRepo{client: client, ttl: ttl}
}

func (r *StatsCacheRepo) GetWeakness(ctx context.Context, userID, topicID int64, windowSec int64) (CachedWeakness, bool, error) {
	if r.client == nil {
		return CachedWeakness{}, false, nil
	}

	gen, err := r.generation(ctx, userID)
	if err != nil {
		return CachedWeakness{}, false, err
	}

	values, err := r.client.HGetAll(ctx, weaknessKey(userID, gen, topicID, windowSec)).Result()
	if err != nil {
		return CachedWeakness{}, false, fmt.Errorf("get cached weakness: %w", err)
	}
	if len(values) == 0 {
		return CachedWeakness{}, false, nil
	}

	cached, err := parseCachedWeakness(values)
	if err != nil {
		return CachedWeakness{}, false, nil
	}
	return cached, true, nil
}

func (r *StatsCacheRepo) SetWeakness(ctx context.Context, userID, topicID int64, windowSec int64, value CachedWeakness) error {
	if r.client == nil {
		return nil
	}

	gen, err := r.generation(ctx, userID)
	if err != nil {
		return err
	}

	key := weaknessKey(userID, gen, topicID, windowSec)
	fields := map[string]interface{}{
		"score":    strconv.FormatFloat(value.Score, 'f', -1, 64),
		"has_data": strconv.FormatBool(value.HasData),
		"total":    value.Total,
		"correct":  value.Correct,
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache weakness: %w", err)
	}

	return nil
}

// BumpGeneration invalidates every cached score for the user. Old-generation
// keys fall out via their TTL.
func (r *StatsCacheRepo) BumpGeneration(ctx context.Context, userID int64) error {
	if r.client == nil {
		return nil
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}

	if err := r.client.Incr(ctx, weaknessGenKey(userID)).Err(); err != nil {
		return fmt.Errorf("bump weakness generation: %w", err)
	}
	return nil
}

func (r *StatsCacheRepo) generation(ctx context.Context, userID int64) (int64, error) {
	gen, err := r.client.Get(ctx, weaknessGenKey(userID)).Int64()
	if err != nil && err != goredis.Nil {
		return 0, fmt.Errorf("read weakness generation: %w", err)
	}
	return gen, nil
}

func parseCachedWeakness(values map[string]string) (CachedWeakness, error) {
	score, err := strconv.ParseFloat(values["score"], 64)
	if err != nil {
		return CachedWeakness{}, err
	}
	hasData, err := strconv.ParseBool(values["has_data"])
	if err != nil {
		return CachedWeakness{}, err
	}
	total, err := strconv.ParseInt(values["total"], 10, 64)
	if err != nil {
		return CachedWeakness{}, err
	}
	correct, err := strconv.ParseInt(values["correct"], 10, 64)
	if err != nil {
		return CachedWeakness{}, err
	}

	return CachedWeakness{
		Score:   score,
		HasData: hasData,
		Total:   total,
		Correct: correct,
	}, nil
}

func weaknessKey(userID, gen, topicID, windowSec int64) string {
	return weaknessPrefix + strconv.FormatInt(userID, 10) + ":" +
		strconv.FormatInt(gen, 10) + ":" +
		strconv.FormatInt(topicID, 10) + ":" +
		strconv.FormatInt(windowSec, 10)
}

func weaknessGenKey(userID int64) string {
	return weaknessGenPrefix + strconv.FormatInt(userID, 10)
}
