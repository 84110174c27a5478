package chat

import "time"

// Direction tells whether a frame came from the client or from the doctor.
type Direction string

const (
	Inbound  Direction = "in"
	Outbound Direction = "out"
)

// Frame persists individual text frames for audit/debug.
type Frame struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Seq       int       `json:"seq"`
	Direction Direction `json:"direction"`
	Content   string    `json:"content"`
	Emotion   string    `json:"emotion,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
