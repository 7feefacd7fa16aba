package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/arena/go/internal/models"
)

// MatchEvent is the envelope pushed to every websocket client
type MatchEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Seq       uint64          `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType represents the type of match event
type EventType string

const (
	EventTypeSnapshot EventType = "snapshot"
	EventTypeTimer    EventType = "timer"
)

// TimerPayload is a live readout for the agent currently thinking
type TimerPayload struct {
	Agent   models.Agent `json:"agent"`
	Readout string       `json:"readout"`
}

// NewSnapshotEvent wraps a full view
func NewSnapshotEvent(view models.View) (*MatchEvent, error) {
	return newEvent(EventTypeSnapshot, view.Seq, view)
}

// NewTimerEvent wraps a timer readout. seq is the sequence of the snapshot it belongs to.
func NewTimerEvent(seq uint64, agent models.Agent, readout string) (*MatchEvent, error) {
	return newEvent(EventTypeTimer, seq, TimerPayload{Agent: agent, Readout: readout})
}

func newEvent(eventType EventType, seq uint64, payload interface{}) (*MatchEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &MatchEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Seq:       seq,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}
