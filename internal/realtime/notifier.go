package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel carries booking lifecycle events between API instances.
const Channel = "homeman:notifications"

const (
	EventBookingCreated = "booking.created"
	EventBookingUpdated = "booking.updated"
)

// Event is one notification addressed to one user.
type Event struct {
	Type      string    `json:"type"`
	UserID    uuid.UUID `json:"user_id"`
	BookingID uuid.UUID `json:"booking_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
}

// Notifier fans booking events out to connected sockets. With Redis the
// event goes through pub/sub so every instance delivers to its own
// sockets; without it, delivery is local to this process.
type Notifier struct {
	Hub   *Hub
	Redis *redis.Client
}

func NewNotifier(hub *Hub, rdb *redis.Client) *Notifier {
	return &Notifier{Hub: hub, Redis: rdb}
}

// Notify is safe on a nil receiver so handlers never have to care whether
// realtime delivery is wired.
func (n *Notifier) Notify(ctx context.Context, ev Event) {
	if n == nil || n.Hub == nil {
		return
	}

	if n.Redis == nil {
		n.Hub.SendToUser(ev.UserID, ev)
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		zap.L().Error("notifier: marshal failed", zap.Error(err))
		return
	}
	if err := n.Redis.Publish(ctx, Channel, payload).Err(); err != nil {
		zap.L().Warn("notifier: publish failed, delivering locally", zap.Error(err))
		n.Hub.SendToUser(ev.UserID, ev)
	}
}

// Run consumes the pub/sub channel and hands events to the local hub.
// Blocks until ctx is done; only needed when Redis is configured.
func (n *Notifier) Run(ctx context.Context) {
	if n == nil || n.Redis == nil {
		return
	}

	sub := n.Redis.Subscribe(ctx, Channel)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				zap.L().Error("notifier: bad payload", zap.Error(err))
				continue
			}
			n.Hub.SendToUser(ev.UserID, ev)
		}
	}
}
