package notifications

import (
	"encoding/json"

	"devgram/internal/models"
)

// FrameTypeNotification tags frames carrying a Notification.
const FrameTypeNotification = "notification"

// Frame is the envelope written to WebSocket clients.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeFrame wraps n in a notification frame.
func EncodeFrame(n *models.Notification) ([]byte, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Type: FrameTypeNotification, Payload: payload})
}

// DecodeFrame parses a frame and, for notification frames, its payload.
func DecodeFrame(data []byte) (*Frame, *models.Notification, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, err
	}
	if f.Type != FrameTypeNotification {
		return &f, nil, nil
	}
	var n models.Notification
	if err := json.Unmarshal(f.Payload, &n); err != nil {
		return &f, nil, err
	}
	return &f, &n, nil
}
