package conversation

import (
	"slices"

	"github.com/google/uuid"
)

// Conversation is the ordered, append-only list of messages shown by the chat view.
// Insertion order is display order.
type Conversation struct {
	ID       string
	messages []Message
}

// New creates a conversation seeded with the given bot greetings, in order.
func New(greetings ...string) Conversation {
	c := Conversation{
		ID:       uuid.NewString(),
		messages: make([]Message, 0, len(greetings)+8),
	}
	for _, g := range greetings {
		c.messages = append(c.messages, NewBotMessage(g))
	}
	return c
}

func (c *Conversation) Append(m Message) {
	c.messages = append(c.messages, m)
}

// Messages returns a copy of the messages.
func (c Conversation) Messages() []Message {
	return slices.Clone(c.messages)
}

func (c Conversation) Len() int {
	return len(c.messages)
}

func (c Conversation) At(i int) (Message, bool) {
	if i < 0 || i >= len(c.messages) {
		return Message{}, false
	}
	return c.messages[i], true
}

func (c Conversation) Last() (Message, bool) {
	return c.At(len(c.messages) - 1)
}

// LastBot returns the most recent bot message.
func (c Conversation) LastBot() (Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if !c.messages[i].IsUser {
			return c.messages[i], true
		}
	}
	return Message{}, false
}

// BotIndexes lists the positions of bot messages, oldest first.
func (c Conversation) BotIndexes() []int {
	var ret []int
	for i, m := range c.messages {
		if !m.IsUser {
			ret = append(ret, i)
		}
	}
	return ret
}
