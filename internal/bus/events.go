package bus

import "time"

// FetchTimeout is the default timeout for batch fetching messages from consumers.
const FetchTimeout = 2 * time.Second

// Stream names.
const (
	StreamMessages = "TM_MESSAGES"
)

// Subject constants.
const (
	SubjectInboundMessage  = "tm.messages.inbound"
	SubjectOutboundMessage = "tm.messages.outbound"
)

// InboundMessage is published by the chat platform adapter when a user message
// arrives. DirectlyAddressed is true when the bot was mentioned or replied to.
type InboundMessage struct {
	ID                string    `json:"id"`
	ChannelID         string    `json:"channel_id"`
	UserID            string    `json:"user_id"`
	Username          string    `json:"username"`
	Text              string    `json:"text"`
	DirectlyAddressed bool      `json:"directly_addressed"`
	ReceivedAt        time.Time `json:"received_at"`
}

// OutboundMessage is published to deliver a reply back to the chat platform.
type OutboundMessage struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
	InReplyTo string `json:"in_reply_to,omitempty"`
}
