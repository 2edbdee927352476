package models

import "time"

// Socket event names.
const (
	EventJoinChat        = "joinChat"
	EventSendMessage     = "sendMessage"
	EventMessageReceived = "messageReceived"
)

// JoinChat is the payload of the outbound joinChat event.
type JoinChat struct {
	FirstName      string `json:"firstName"`
	LoggedInUserID string `json:"loggedInUserId"`
	TargetUserID   string `json:"targetUserId"`
}

// SendMessage is the payload of the outbound sendMessage event.
type SendMessage struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	LoggedInUserID string `json:"loggedInUserId"`
	TargetUserID   string `json:"targetUserId"`
	Text           string `json:"text"`
}

// MessageReceived is the payload of the inbound messageReceived event.
// SenderID is filled by servers that know it; older servers omit it.
type MessageReceived struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Text      string `json:"text"`
	SenderID  string `json:"senderId,omitempty"`
}

// Message is one line of a chat view.
type Message struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Text      string `json:"text"`

	// SenderID is empty when neither the history nor the live event carried it.
	SenderID string `json:"senderId,omitempty"`
	// Seq is the local insertion order, starting at 1 per session.
	Seq uint64 `json:"-"`
	// ReceivedAt is the local time the message entered the session.
	ReceivedAt time.Time `json:"-"`
}

// FromHistory flattens a history record into the view shape.
func FromHistory(r HistoryRecord) Message {
	return Message{
		FirstName: r.SenderID.FirstName,
		LastName:  r.SenderID.LastName,
		Text:      r.Text,
		SenderID:  r.SenderID.ID,
	}
}

// FromEvent converts a live event into the view shape.
func FromEvent(e MessageReceived) Message {
	return Message{
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Text:      e.Text,
		SenderID:  e.SenderID,
	}
}
