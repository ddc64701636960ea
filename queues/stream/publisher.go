// Package stream publishes allocation results as JSON to a writer, for one-shot
// runs outside of Pub/Sub.
package stream

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"airspace-allocator/queues"

	"github.com/rs/zerolog/log"
)

type Publisher struct {
	mu   sync.Mutex
	enc  *json.Encoder
	last *queues.AllocationResult
}

func NewPublisher(w io.Writer, indent bool) *Publisher {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return &Publisher{enc: enc}
}

func (p *Publisher) PublishResult(ctx context.Context, res *queues.AllocationResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enc.Encode(res); err != nil {
		log.Error().Err(err).Str("requestId", res.RequestID).Msg("failed to write allocation result")
		return err
	}
	p.last = res
	return nil
}

// Last returns the most recently written result, or nil.
func (p *Publisher) Last() *queues.AllocationResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
