package realtime

// ChangeOp classifies a change-feed event.
type ChangeOp string

const (
	OpInsert ChangeOp = "insert"
	OpUpdate ChangeOp = "update"
	OpRemove ChangeOp = "remove"
)

// ChangeEvent is one entry of a channel's ordered change feed. Doc carries
// the affected document for insert/update and just its id for remove.
type ChangeEvent struct {
	Op  ChangeOp `json:"op"`
	Doc any      `json:"doc"`
}

// ChangeFeed publishes per-channel chat events and per-user notification
// events. The hub implements it for WebSocket delivery; tests substitute a
// recording implementation.
type ChangeFeed interface {
	PublishChat(puzzleID string, event ChangeEvent)
	PublishNotification(userID string, event ChangeEvent)
}

// HubFeed adapts the Hub to the ChangeFeed interface.
type HubFeed struct {
	hub *Hub
}

// NewHubFeed wraps a hub for change-feed publishing.
func NewHubFeed(hub *Hub) *HubFeed {
	return &HubFeed{hub: hub}
}

// PublishChat broadcasts a chat change event to every subscriber of the
// puzzle's stream.
func (f *HubFeed) PublishChat(puzzleID string, event ChangeEvent) {
	if f == nil || f.hub == nil {
		return
	}
	f.hub.BroadcastStream(ChatStream(puzzleID), Message{
		Event: "chat." + string(event.Op),
		Data:  event,
	})
}

// PublishNotification delivers a notification change event to one user.
func (f *HubFeed) PublishNotification(userID string, event ChangeEvent) {
	if f == nil || f.hub == nil {
		return
	}
	f.hub.BroadcastToUser(StreamNotifications, userID, Message{
		Event: "notification." + string(event.Op),
		Data:  event,
	})
}
