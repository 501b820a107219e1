// Package cache stores predictions in Redis keyed by model run and request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gyeh/patientcost/internal/model"
)

// DefaultTTL bounds how long a cached prediction is served.
const DefaultTTL = 24 * time.Hour

// Redis is a read-through prediction cache.
type Redis struct {
	client *redis.Client
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedis connects to addr and pings it.
func NewRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     50,
		MinIdleConns: 5,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}, nil
}

// Get returns the cached prediction for key, if any.
func (r *Redis) Get(ctx context.Context, key string) (*model.Prediction, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var p model.Prediction
	if err := json.Unmarshal(data, &p); err != nil {
		r.misses.Add(1)
		return nil, false, fmt.Errorf("decode cached prediction: %w", err)
	}
	r.hits.Add(1)
	return &p, true, nil
}

// Set stores p under key with the cache TTL.
func (r *Redis) Set(ctx context.Context, key string, p *model.Prediction) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prediction: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Health pings Redis.
func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// HitRate is hits over lookups since start.
func (r *Redis) HitRate() float64 {
	hits, misses := r.hits.Load(), r.misses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Key derives the cache key for a request under one model run. Multi-select
// fields are sorted so selection order does not split the cache.
func Key(runID uuid.UUID, req *model.PatientRequest) (string, error) {
	canon := *req
	canon.Symptoms = sorted(req.Symptoms)
	canon.Procedures = sorted(req.Procedures)
	canon.Medications = sorted(req.Medications)
	data, err := json.Marshal(&canon)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	sum := sha256.Sum256(data)
	return "costmodel:prediction:" + runID.String() + ":" + hex.EncodeToString(sum[:]), nil
}

func sorted(vs []string) []string {
	out := slices.Clone(vs)
	slices.Sort(out)
	if out == nil {
		out = []string{}
	}
	return out
}
