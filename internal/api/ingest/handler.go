package ingest

import (
	"context"

	"ai-research-kb/config"
	coreingest "ai-research-kb/internal/core/ingest"
	"ai-research-kb/pkg/apperror"
	"ai-research-kb/pkg/apperror/status"
	"ai-research-kb/pkg/logger"

	"github.com/gofiber/fiber/v3"
)

type Handler struct {
	service *coreingest.Service
	// onDone runs after a successful rebuild, with the new chunk count.
	onDone func(ctx context.Context, chunks int) error
}

func NewHandler(service *coreingest.Service, onDone func(ctx context.Context, chunks int) error) *Handler {
	return &Handler{service: service, onDone: onDone}
}

// HandleIngest reindexes the knowledge base. The work runs in the
// background; the response only confirms the start.
func (h *Handler) HandleIngest(c fiber.Ctx) error {
	trackingID := c.Get("X-Request-ID")

	// Fire and forget
	go func() {
		ctx := context.Background()
		count, err := h.service.Run(ctx)
		if err != nil {
			logger.Error(err, "ingest run failed")
			return
		}
		if h.onDone != nil {
			if err := h.onDone(ctx, count); err != nil {
				logger.Error(err, "post-ingest rebuild failed")
			}
		}
	}()

	return apperror.Success(config.ModuleIngest, c, apperror.FiberSuccessMessage{
		Code:       status.OK,
		Message:    "ingest started",
		TrackingID: trackingID,
	})
}
