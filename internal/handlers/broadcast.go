package handlers

import (
	"encoding/json"

	"hostpulse/internal/middleware"
	"hostpulse/internal/models"
)

// StatsBroadcaster fans each sample out to websocket subscribers. Registered
// on the engine as an observer; at-most-once per tick, no acknowledgment.
type StatsBroadcaster struct {
	hub *middleware.Hub
}

func NewStatsBroadcaster(hub *middleware.Hub) *StatsBroadcaster {
	return &StatsBroadcaster{hub: hub}
}

func (b *StatsBroadcaster) OnSample(stats models.SystemStats) {
	msg, err := json.Marshal(stats)
	if err != nil {
		return
	}
	b.hub.Broadcast(msg)
}
