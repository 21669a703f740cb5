package backend

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/bellhop/pkg/conversation"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	ErrAlreadyRunning = errors.New("backend is already running")
	ErrReplyTimeout   = errors.New("no reply received in time")
)

const (
	DefaultReplyDelay = 1000 * time.Millisecond
	// DefaultReplyTimeout is how long a view waits for a reply before it gives
	// up on the prompt.
	DefaultReplyTimeout = 10 * time.Second
)

// Backend answers a user prompt. The returned command runs off the UI loop;
// replies are delivered as ReplyMsg, either by the command itself or through
// the event bus.
type Backend interface {
	Start(ctx context.Context, conversationID string, prompt conversation.Message) (tea.Cmd, error)
}

// PlaceholderBackend stands in for a real booking service: it waits a fixed
// delay and publishes the same canned reply for every prompt.
type PlaceholderBackend struct {
	publisher message.Publisher
	reply     string
	delay     time.Duration
	running   atomic.Bool
}

var _ Backend = (*PlaceholderBackend)(nil)

func NewPlaceholderBackend(publisher message.Publisher, reply string, delay time.Duration) *PlaceholderBackend {
	return &PlaceholderBackend{
		publisher: publisher,
		reply:     reply,
		delay:     delay,
	}
}

func (b *PlaceholderBackend) Start(ctx context.Context, conversationID string, prompt conversation.Message) (tea.Cmd, error) {
	if !b.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}

	return func() tea.Msg {
		defer b.running.Store(false)

		t := time.NewTimer(b.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			log.Debug().Str("prompt", prompt.ID).Msg("reply cancelled")
			return nil
		case <-t.C:
		}

		ev := ReplyEvent{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			InReplyTo:      prompt.ID,
			Text:           b.reply,
		}
		if err := b.publish(ev); err != nil {
			log.Error().Err(err).Str("prompt", prompt.ID).Msg("could not publish reply")
			return ErrorMsg{InReplyTo: prompt.ID, Err: err}
		}
		return nil
	}, nil
}

// IsFinished reports whether no reply is in flight.
func (b *PlaceholderBackend) IsFinished() bool {
	return !b.running.Load()
}

func (b *PlaceholderBackend) publish(ev ReplyEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "could not encode reply event")
	}
	msg := message.NewMessage(ev.ID, payload)
	msg.Metadata.Set("conversation_id", ev.ConversationID)
	return errors.Wrap(b.publisher.Publish(Topic, msg), "could not publish reply event")
}
