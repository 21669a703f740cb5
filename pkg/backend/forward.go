package backend

import (
	"github.com/ThreeDotsLabs/watermill/message"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/bellhop/pkg/conversation"
	"github.com/rs/zerolog/log"
)

// ForwardFunc returns a watermill handler that turns reply events for the given
// conversation into ReplyMsg and hands them to send, usually tea.Program.Send.
// Malformed events and events of other conversations are dropped.
func ForwardFunc(conversationID string, send func(tea.Msg)) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ev, err := DecodeReplyEvent(msg.Payload)
		if err != nil {
			log.Error().Err(err).Str("payload", string(msg.Payload)).Msg("dropping reply event")
			return nil
		}
		if ev.ConversationID != conversationID {
			return nil
		}

		log.Debug().Str("id", ev.ID).Str("in_reply_to", ev.InReplyTo).Msg("dispatching reply to UI")
		send(ReplyMsg{
			Message:   conversation.Message{ID: ev.ID, Text: ev.Text},
			InReplyTo: ev.InReplyTo,
		})
		return nil
	}
}
