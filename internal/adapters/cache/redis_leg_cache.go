package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"delivtrack/internal/domain"
	"delivtrack/internal/platform/obs"
	"delivtrack/internal/ports"

	"github.com/redis/go-redis/v9"
)

const legKeyPrefix = "delivtrack:leg:"

// RedisLegCache keeps legs in Redis with a TTL, so traffic-aware durations
// age out on their own.
type RedisLegCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLegCache(client *redis.Client, ttl time.Duration) *RedisLegCache {
	return &RedisLegCache{client: client, ttl: ttl}
}

// DialRedis connects and pings, failing fast on a bad address.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

func legKey(origin, destination domain.Coordinates) string {
	return legKeyPrefix + origin.Key() + "|" + destination.Key()
}

type redisLeg struct {
	DistanceMeters  int  `json:"m"`
	DurationSeconds int  `json:"s"`
	TrafficSeconds  *int `json:"ts,omitempty"`
}

func (c *RedisLegCache) Get(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (_ ports.RouteLeg, _ bool, err error) {
	defer obs.Time(ctx, "leg.redis.Get")(&err)

	data, err := c.client.Get(ctx, legKey(origin, destination)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.RouteLeg{}, false, nil
	}
	if err != nil {
		return ports.RouteLeg{}, false, fmt.Errorf("get leg cache: %w", err)
	}

	var v redisLeg
	if err := json.Unmarshal(data, &v); err != nil {
		return ports.RouteLeg{}, false, fmt.Errorf("get leg cache: json unmarshal: %w", err)
	}

	return ports.RouteLeg{
		DistanceMeters:           v.DistanceMeters,
		DurationSeconds:          v.DurationSeconds,
		DurationInTrafficSeconds: v.TrafficSeconds,
	}, true, nil
}

func (c *RedisLegCache) Put(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	leg ports.RouteLeg,
) error {
	data, err := json.Marshal(redisLeg{
		DistanceMeters:  leg.DistanceMeters,
		DurationSeconds: leg.DurationSeconds,
		TrafficSeconds:  leg.DurationInTrafficSeconds,
	})
	if err != nil {
		return fmt.Errorf("put leg cache: json marshal: %w", err)
	}

	if err := c.client.Set(ctx, legKey(origin, destination), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("put leg cache: %w", err)
	}
	return nil
}
