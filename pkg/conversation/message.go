package conversation

import "github.com/google/uuid"

// Message is one line of chat content tagged with its origin.
// Messages are never mutated once created.
type Message struct {
	ID     string `json:"id" yaml:"id"`
	Text   string `json:"text" yaml:"text"`
	IsUser bool   `json:"is_user" yaml:"is_user"`
}

func NewUserMessage(text string) Message {
	return Message{ID: uuid.NewString(), Text: text, IsUser: true}
}

func NewBotMessage(text string) Message {
	return Message{ID: uuid.NewString(), Text: text}
}
