package model

import "time"

// Interaction is one user command received from the chat platform.
type Interaction struct {
	ID         string
	ChatID     int64
	MessageID  int64
	User       string
	Command    string
	Args       []string
	ReceivedAt time.Time
}

// Photo is an image attached to a reply.
type Photo struct {
	Name string
	Data []byte
}

// Reply is what a command handler hands back for delivery.
type Reply struct {
	Text  string // HTML
	Photo *Photo
	// DeleteTrigger asks the transport to remove the user's message (it carried a secret).
	DeleteTrigger bool
}
