package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

func newAuthApp(token string) *fiber.App {
	app := fiber.New()
	app.Post("/admin", AdminAuth(token), func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAdminAuth(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{"valid token", "s3cret", "Bearer s3cret", fiber.StatusNoContent},
		{"wrong token", "s3cret", "Bearer nope", fiber.StatusUnauthorized},
		{"missing header", "s3cret", "", fiber.StatusUnauthorized},
		{"basic scheme", "s3cret", "Basic s3cret", fiber.StatusUnauthorized},
		{"admin disabled", "", "Bearer anything", fiber.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := newAuthApp(tt.token).Test(req)
			if err != nil {
				t.Fatalf("app.Test() error: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	rdb.FlushDB(ctx)
	defer func() {
		rdb.FlushDB(ctx)
		rdb.Close()
	}()

	app := fiber.New()
	app.Use(NewRateLimiter(rdb, 2, 60).Handler())
	app.Get("/", func(c fiber.Ctx) error { return c.SendString("ok") })

	codes := make([]int, 3)
	for i := range codes {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		if err != nil {
			t.Fatalf("app.Test() error: %v", err)
		}
		codes[i] = resp.StatusCode
	}

	if codes[0] != fiber.StatusOK || codes[1] != fiber.StatusOK || codes[2] != fiber.StatusTooManyRequests {
		t.Errorf("unexpected status sequence %v", codes)
	}
}

func TestRateLimiter_WithoutRedisAllows(t *testing.T) {
	app := fiber.New()
	app.Use(NewRateLimiter(nil, 1, 60).Handler())
	app.Get("/", func(c fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		if err != nil {
			t.Fatalf("app.Test() error: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200 without Redis, got %d", resp.StatusCode)
		}
	}
}
