package ws

import (
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
	log *zap.Logger
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub, log: hub.log.Named("notifier")}
}

func (n *HubNotifier) Notify(recipients []uuid.UUID, event string, payload any) {
	if len(recipients) == 0 {
		return
	}

	evt, err := NewEvent(event, payload)
	if err != nil {
		n.log.Error("marshal payload", zap.String("event", event), zap.Error(err))
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		n.log.Error("marshal event", zap.String("event", event), zap.Error(err))
		return
	}

	n.hub.SendToUsers(recipients, data)
}
