package ws

import (
	"encoding/json"
	"strings"
	"time"
)

type JobsUpdatedEvent struct {
	Type      string `json:"type"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

// Notifier turns catalog changes into jobs_updated broadcasts.
type Notifier struct {
	hub *Hub
	now func() time.Time
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub, now: time.Now}
}

func (n *Notifier) NotifyJobsUpdated(reason string) {
	if n == nil || n.hub == nil {
		return
	}
	evt := JobsUpdatedEvent{
		Type:      "jobs_updated",
		Reason:    strings.TrimSpace(reason),
		Timestamp: n.now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	n.hub.Broadcast(b)
}
