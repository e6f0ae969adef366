package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/scanworks/scanbridge/internal/model"
)

// Normalize maps a raw frame in either recognized wire shape to the canonical
// barcode event. The two shapes are deliberately asymmetric: a wrapped message
// without non-empty payload content yields no event, while a direct message
// missing fields still yields an event with placeholder values.
func Normalize(raw []byte) (*model.BarcodeEvent, error) {
	var msg model.WireMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("parse frame: %w", err)
	}

	switch msg.Type {
	case model.WireTypeWrapped:
		return normalizeWrapped(msg)
	case model.WireTypeDirect:
		return normalizeDirect(msg), nil
	default:
		return nil, fmt.Errorf("unrecognized message type %q", msg.Type)
	}
}

func normalizeWrapped(msg model.WireMessage) (*model.BarcodeEvent, error) {
	if msg.Payload.Content == "" {
		return nil, fmt.Errorf("wrapped message without payload content")
	}
	return &model.BarcodeEvent{
		Data:      msg.Payload.Content,
		Format:    model.FormatWrapped,
		Timestamp: time.Now(),
	}, nil
}

func normalizeDirect(msg model.WireMessage) *model.BarcodeEvent {
	event := &model.BarcodeEvent{
		Data:      model.FormatMissing,
		Format:    model.FormatMissing,
		Timestamp: time.Now(),
	}
	if msg.Data != nil {
		event.Data = *msg.Data
	}
	if msg.Format != nil {
		event.Format = *msg.Format
	}
	if msg.Timestamp != nil {
		event.Timestamp = epochToTime(*msg.Timestamp)
	}
	return event
}

// epochToTime converts float seconds since the epoch to a time.Time.
func epochToTime(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}
