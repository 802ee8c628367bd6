package middleware

import (
	"runtime/debug"

	"ai-research-kb/pkg/apperror"
	"ai-research-kb/pkg/logger"

	"github.com/gofiber/fiber/v3"
)

// ConnectionLimiter bounds concurrent in-flight requests. Embedding and
// rerank calls hold connections open for a while, so excess load is shed
// instead of queued.
type ConnectionLimiter struct {
	limit    int
	inflight chan struct{}
}

func NewConnectionLimiter(limit int) *ConnectionLimiter {
	return &ConnectionLimiter{
		limit:    limit,
		inflight: make(chan struct{}, limit),
	}
}

func (cl *ConnectionLimiter) Acquire() bool {
	select {
	case cl.inflight <- struct{}{}:
		return true
	default:
		return false
	}
}

func (cl *ConnectionLimiter) Release() {
	select {
	case <-cl.inflight:
	default:
	}
}

// Setup installs the shared middleware chain on the app.
func Setup(app *fiber.App, connectionLimit int) {
	app.Use(panicRecovery())
	app.Use(limitConnections(NewConnectionLimiter(connectionLimit)))
}

func limitConnections(limiter *ConnectionLimiter) fiber.Handler {
	return func(c fiber.Ctx) error {
		if !limiter.Acquire() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(apperror.ErrorResponse{
				Error:     "server is at maximum capacity",
				ErrorCode: "KB-503",
			})
		}
		defer limiter.Release()
		return c.Next()
	}
}

func panicRecovery() fiber.Handler {
	return func(c fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(map[string]interface{}{
					"panic":  r,
					"method": c.Method(),
					"path":   c.Path(),
					"ip":     c.IP(),
					"stack":  string(debug.Stack()),
				}).Errorf("panic recovered")

				err := c.Status(fiber.StatusInternalServerError).JSON(apperror.ErrorResponse{
					Error:     "an unexpected error occurred",
					ErrorCode: "KB-9000",
				})
				if err != nil {
					logger.WithField("error", err).Errorf("failed to send error response")
				}
			}
		}()
		return c.Next()
	}
}
