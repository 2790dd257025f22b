package service

// EventPublisher pushes authoritative state changes to connected clients so
// optimistic local renders converge on server truth. A nil publisher is
// silently ignored.
type EventPublisher interface {
	Publish(eventType string, payload interface{})
}

// Event type names broadcast over the websocket hub
const (
	EventEngagementUpdated = "engagement.updated"
	EventReviewModerated   = "review.moderated"
	EventReviewDeleted     = "review.deleted"
	EventReviewRestored    = "review.restored"
)

func publish(p EventPublisher, eventType string, payload interface{}) {
	if p != nil {
		p.Publish(eventType, payload)
	}
}
