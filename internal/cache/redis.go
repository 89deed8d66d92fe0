package cache

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes the Redis connection. Redis is optional: every caller
// degrades gracefully when the client is nil, falling back to the
// database.
func Init() error {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		host := os.Getenv("REDIS_SERVICE_HOST")
		if host == "" {
			host = "localhost"
		}
		port := os.Getenv("REDIS_SERVICE_PORT")
		if port == "" {
			port = "6379"
		}
		addr = host + ":" + port
	}

	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// SeenWebhookEvent reports whether a provider event id was already fully
// processed. This is only a fast path in front of the webhook_events
// table - a Redis miss never means "unprocessed", it means "ask the
// database".
func SeenWebhookEvent(ctx context.Context, eventID string) bool {
	if client == nil {
		return false
	}
	n, err := client.Exists(ctx, "webhook:event:"+eventID).Result()
	return err == nil && n > 0
}

// RememberWebhookEvent records a fully processed event id. Only written
// after the event's effects were applied: recording earlier would make a
// delivery that crashed mid-processing look like a duplicate when the
// gateway redelivers it.
func RememberWebhookEvent(ctx context.Context, eventID string) {
	if client == nil {
		return
	}
	client.Set(ctx, "webhook:event:"+eventID, 1, 48*time.Hour)
}

// GetCachedServiceCatalog returns the cached listing-service catalog
func GetCachedServiceCatalog(ctx context.Context) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, "catalog:services").Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// CacheServiceCatalog caches the catalog for 10 minutes
func CacheServiceCatalog(ctx context.Context, data []byte) {
	if client == nil {
		return
	}
	client.Set(ctx, "catalog:services", data, 10*time.Minute)
}

// InvalidateServiceCatalog drops the catalog cache (on admin edits)
func InvalidateServiceCatalog(ctx context.Context) {
	if client == nil {
		return
	}
	client.Del(ctx, "catalog:services")
}
