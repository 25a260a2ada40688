package services

import (
	"context"
	"time"

	"github.com/teamtrack/apiserver/internal/events"
	"github.com/teamtrack/apiserver/internal/logger"
)

const publishTimeout = 5 * time.Second

// publishAsync delivers an activity event without blocking the request or
// surfacing broker failures to the caller.
func publishAsync(pub events.Publisher, log *logger.Logger, event events.Event) {
	if pub == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := pub.Publish(ctx, event); err != nil {
			log.Warnw("failed to publish activity event", "type", event.Type, "error", err)
		}
	}()
}
