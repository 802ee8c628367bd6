package retriever

import (
	"context"
	"sync/atomic"

	"ai-research-kb/internal/core/ingest"
)

// Swappable lets a caller replace the whole retriever after a rebuild.
// Queries in flight keep the retriever they started with; there is no
// partial-update protocol.
type Swappable struct {
	current atomic.Pointer[Hybrid]
}

func NewSwappable(h *Hybrid) *Swappable {
	s := &Swappable{}
	s.current.Store(h)
	return s
}

// Swap atomically replaces the active retriever.
func (s *Swappable) Swap(h *Hybrid) {
	s.current.Store(h)
}

func (s *Swappable) Retrieve(ctx context.Context, query string) ([]ingest.Document, error) {
	return s.current.Load().Retrieve(ctx, query)
}
