package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sharetube/syncroom/internal/repository/room"
)

const resubscribeDelay = 2 * time.Second

// Listen delivers notifications published by any instance to handle, in
// publish order, until ctx is done. A dropped subscription is re-established.
// onReady, if set, is called each time the subscription becomes active.
func (r repo) Listen(ctx context.Context, handle room.NotificationHandler, onReady func()) {
	for {
		err := r.listen(ctx, handle, onReady)
		if ctx.Err() != nil {
			return
		}

		r.logger.WarnContext(ctx, "room events subscription failed, resubscribing", "error", err, "delay", resubscribeDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeDelay):
		}
	}
}

func (r repo) listen(ctx context.Context, handle room.NotificationHandler, onReady func()) error {
	pubsub := r.rc.PSubscribe(ctx, eventsPattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "subscribed to room events", "pattern", eventsPattern)
	if onReady != nil {
		onReady()
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var n room.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				r.logger.WarnContext(ctx, "invalid room notification", "channel", msg.Channel, "error", err)
				continue
			}
			handle(ctx, n)
		}
	}
}
