package notifier

import (
	"context"

	"github.com/igor-ruivo/metin2-events/internal/discord"
)

// Notifier defines the interface for delivering a message
type Notifier interface {
	// Send posts the payload
	Send(ctx context.Context, p discord.Payload) error
}

var _ Notifier = (*discord.Client)(nil)
