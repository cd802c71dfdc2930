package services

import (
	"context"
	"strconv"

	"github.com/nicolasdagostino/a615-sub000/internal/events"
	"github.com/nicolasdagostino/a615-sub000/internal/logger"
)

// Notifier pushes live updates to websocket subscribers of a topic.
type Notifier interface {
	Notify(topic, messageType string, payload any)
}

type NopNotifier struct{}

func (NopNotifier) Notify(string, string, any) {}

func SessionTopic(sessionID int64) string {
	return "session:" + strconv.FormatInt(sessionID, 10)
}

func WODTopic(date string) string {
	return "wod:" + date
}

// publishEvent never fails the caller; broker errors are only logged.
func publishEvent(ctx context.Context, publisher events.Publisher, log logger.Logger, eventType, aggregateID string, payload any) {
	if publisher == nil {
		return
	}
	event, err := events.New(eventType, aggregateID, payload)
	if err != nil {
		log.Errorw("event encode failed", "event_type", eventType, "err", err)
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Errorw("event publish failed", "event_type", eventType, "event_id", event.ID, "err", err)
	}
}
