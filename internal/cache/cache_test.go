package cache

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"leadscore_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type payload struct {
	Email string  `json:"email"`
	Score float64 `json:"score"`
}

func testCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client, time.Minute, logger.New("test")), mr
}

func TestCache_SetGetRoundTrip(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	c.SetJSON(ctx, "lead:abc", payload{Email: "a@b.com", Score: 68.9})

	var got payload
	if !c.GetJSON(ctx, "lead:abc", &got) {
		t.Fatal("expected cache hit")
	}
	if got.Email != "a@b.com" || got.Score != 68.9 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestCache_MissReturnsFalse(t *testing.T) {
	c, _ := testCache(t)

	var got payload
	if c.GetJSON(context.Background(), "lead:missing", &got) {
		t.Fatal("expected cache miss")
	}
}

func TestCache_MissIsLogged(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	var buf bytes.Buffer
	log := &logger.Logger{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	c := NewWithClient(client, time.Minute, log)

	var got payload
	if c.GetJSON(context.Background(), "lead:missing", &got) {
		t.Fatal("expected cache miss")
	}
	if !strings.Contains(buf.String(), "cache_miss") {
		t.Fatalf("expected a cache_miss entry, got %q", buf.String())
	}
}

func TestCache_DeleteInvalidates(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	c.SetJSON(ctx, "lead:abc", payload{Email: "a@b.com"})
	c.SetJSON(ctx, "analytics", payload{Score: 1})
	c.Delete(ctx, "lead:abc", "analytics")

	var got payload
	if c.GetJSON(ctx, "lead:abc", &got) || c.GetJSON(ctx, "analytics", &got) {
		t.Fatal("expected entries to be deleted")
	}
}

func TestCache_EntriesExpire(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()

	c.SetJSON(ctx, "lead:abc", payload{Email: "a@b.com"})
	mr.FastForward(2 * time.Minute)

	var got payload
	if c.GetJSON(ctx, "lead:abc", &got) {
		t.Fatal("expected entry to expire")
	}
}

func TestCache_NilCacheIsDisabled(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	c.SetJSON(ctx, "lead:abc", payload{})
	c.Delete(ctx, "lead:abc")
	var got payload
	if c.GetJSON(ctx, "lead:abc", &got) {
		t.Fatal("nil cache must never hit")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

func TestCache_RedisDownDegradesToMiss(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()

	c.SetJSON(ctx, "lead:abc", payload{Email: "a@b.com"})
	mr.Close()

	var got payload
	if c.GetJSON(ctx, "lead:abc", &got) {
		t.Fatal("expected miss when redis is unreachable")
	}
	// Writes must not panic either.
	c.SetJSON(ctx, "lead:def", payload{})
	c.Delete(ctx, "lead:abc")
}
