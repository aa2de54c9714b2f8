package model

import (
	"encoding/json"
	"fmt"
)

// EventRecord is the envelope written to event sinks.
type EventRecord struct {
	Seq       uint64          `json:"seq"`
	EventName string          `json:"event_name"`
	Pool      string          `json:"pool"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEventRecord wraps an event payload into an envelope.
func NewEventRecord(seq uint64, event Event, timestamp string) (EventRecord, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return EventRecord{}, fmt.Errorf("marshal %s: %w", event.EventName(), err)
	}
	return EventRecord{
		Seq:       seq,
		EventName: event.EventName(),
		Pool:      event.PoolAddress().Hex(),
		Timestamp: timestamp,
		Data:      data,
	}, nil
}

// Decode unmarshals the payload into its concrete event type.
func (r EventRecord) Decode() (Event, error) {
	var event Event
	switch r.EventName {
	case EventPoolInitialized:
		var e PoolInitialized
		if err := json.Unmarshal(r.Data, &e); err != nil {
			return nil, err
		}
		event = e
	case EventLiquidityAdded:
		var e LiquidityAdded
		if err := json.Unmarshal(r.Data, &e); err != nil {
			return nil, err
		}
		event = e
	case EventLiquidityRemoved:
		var e LiquidityRemoved
		if err := json.Unmarshal(r.Data, &e); err != nil {
			return nil, err
		}
		event = e
	case EventSwapExecuted:
		var e SwapExecuted
		if err := json.Unmarshal(r.Data, &e); err != nil {
			return nil, err
		}
		event = e
	default:
		return nil, fmt.Errorf("unknown event: %s", r.EventName)
	}
	return event, nil
}
