package channels

import (
	"context"
	"fmt"
	"sync"

	"github.com/hiveflow/hiveflow/internal/engine"
)

// Sender delivers a message to one recipient on a specific channel type.
type Sender interface {
	Send(ctx context.Context, recipient string, message map[string]any) (any, error)
}

// Registry multiplexes notify dispatches to the client registered for the
// channel name. It implements engine.ChannelClient.
type Registry struct {
	mu      sync.RWMutex
	senders map[string]Sender
}

func NewRegistry() *Registry {
	return &Registry{senders: make(map[string]Sender)}
}

// Register binds a channel name to a client. Replaces any existing binding.
func (r *Registry) Register(channel string, sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[channel] = sender
}

// Send implements engine.ChannelClient.
func (r *Registry) Send(ctx context.Context, channel string, recipient string, message map[string]any) (any, error) {
	r.mu.RLock()
	sender, ok := r.senders[channel]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown channel: %s", channel)
	}
	return sender.Send(ctx, recipient, message)
}

var _ engine.ChannelClient = (*Registry)(nil)
