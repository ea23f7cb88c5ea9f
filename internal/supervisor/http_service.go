package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
)

// FiberService runs a Fiber app as a supervised service.
type FiberService struct {
	app             *fiber.App
	addr            string
	shutdownTimeout time.Duration
}

// NewFiberService creates a service that listens on addr.
func NewFiberService(app *fiber.App, addr string, shutdownTimeout time.Duration) *FiberService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &FiberService{app: app, addr: addr, shutdownTimeout: shutdownTimeout}
}

// Serve listens until ctx is cancelled, then shuts the app down.
func (s *FiberService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *FiberService) String() string {
	return "http-server"
}
