package backend

import (
	"encoding/json"

	"github.com/go-go-golems/bellhop/pkg/conversation"
	"github.com/pkg/errors"
)

// Topic is the watermill topic reply events are published on.
const Topic = "chat"

// ReplyEvent is the wire format of a bot reply.
type ReplyEvent struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	InReplyTo      string `json:"in_reply_to"`
	Text           string `json:"text"`
}

func DecodeReplyEvent(b []byte) (ReplyEvent, error) {
	var ev ReplyEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return ReplyEvent{}, errors.Wrap(err, "could not decode reply event")
	}
	if ev.ID == "" || ev.ConversationID == "" {
		return ReplyEvent{}, errors.New("reply event is missing id or conversation_id")
	}
	return ev, nil
}

// ReplyMsg is delivered to the chat view when the backend answers.
type ReplyMsg struct {
	Message   conversation.Message
	InReplyTo string
}

// ErrorMsg is delivered to the chat view when the backend could not answer.
type ErrorMsg struct {
	InReplyTo string
	Err       error
}
