package chatrunner

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/bellhop/pkg/backend"
	"github.com/go-go-golems/bellhop/pkg/conversation"
	"github.com/go-go-golems/bellhop/pkg/redisstream"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type recordingClipboard struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingClipboard) WriteText(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingClipboard) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

// scriptedBackend fails to start with err, or starts without ever replying.
type scriptedBackend struct {
	err    error
	starts int
}

func (s *scriptedBackend) Start(context.Context, string, conversation.Message) (tea.Cmd, error) {
	s.starts++
	if s.err != nil {
		return nil, s.err
	}
	return func() tea.Msg { return nil }, nil
}

func newBus(t *testing.T) *redisstream.Bus {
	t.Helper()
	bus, err := redisstream.BuildBus(redisstream.Settings{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestParseRunMode(t *testing.T) {
	for in, want := range map[string]RunMode{
		"":      RunModeAuto,
		"auto":  RunModeAuto,
		"tui":   RunModeTUI,
		"plain": RunModePlain,
	} {
		got, err := ParseRunMode(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseRunMode("gui")
	require.Error(t, err)
}

func TestBuildRequiresBusAndBackend(t *testing.T) {
	_, err := NewChatBuilder().Build()
	require.ErrorContains(t, err, "bus is required")

	bus := newBus(t)
	_, err = NewChatBuilder().WithBus(bus).Build()
	require.ErrorContains(t, err, "backend is required")

	be := backend.NewPlaceholderBackend(bus.Publisher, "ok", time.Millisecond)
	session, err := NewChatBuilder().WithBus(bus).WithBackend(be).Build()
	require.NoError(t, err)
	require.Len(t, session.conv.Messages(), 2)
}

func TestBuilderKeepsFirstError(t *testing.T) {
	bus := newBus(t)
	be := backend.NewPlaceholderBackend(bus.Publisher, "ok", time.Millisecond)

	_, err := NewChatBuilder().
		WithMode("gui").
		WithNoticeDuration(0).
		WithBus(bus).
		WithBackend(be).
		Build()
	require.ErrorContains(t, err, "invalid run mode")

	_, err = NewChatBuilder().WithScript(conversation.Script{}).WithBus(bus).WithBackend(be).Build()
	require.ErrorContains(t, err, "invalid script")
}

func TestAutoModeFallsBackToPlainWithoutTerminal(t *testing.T) {
	bus := newBus(t)
	be := backend.NewPlaceholderBackend(bus.Publisher, "ok", time.Millisecond)
	session, err := NewChatBuilder().
		WithBus(bus).
		WithBackend(be).
		WithIO(strings.NewReader(""), &bytes.Buffer{}).
		Build()
	require.NoError(t, err)
	require.Equal(t, RunModePlain, session.resolveMode())
}

func TestPlainSessionBookingScenario(t *testing.T) {
	bus := newBus(t)
	script := conversation.DefaultScript()
	be := backend.NewPlaceholderBackend(bus.Publisher, script.PlaceholderReply, 10*time.Millisecond)
	cb := &recordingClipboard{}
	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := NewChatBuilder().
		WithContext(ctx).
		WithBus(bus).
		WithBackend(be).
		WithClipboard(cb).
		WithMode(RunModePlain).
		WithIO(strings.NewReader("   \nI want to book a hotel\n/copy\n/quit\n"), &out).
		Build()
	require.NoError(t, err)

	require.NoError(t, session.Run())

	msgs := session.conv.Messages()
	require.Len(t, msgs, 4)
	require.Equal(t, "I want to book a hotel", msgs[2].Text)
	require.True(t, msgs[2].IsUser)
	require.Equal(t, script.PlaceholderReply, msgs[3].Text)
	require.False(t, msgs[3].IsUser)

	printed := out.String()
	require.Contains(t, printed, "bot: "+script.Greetings[0])
	require.Contains(t, printed, "bot: "+script.Greetings[1])
	require.Contains(t, printed, "bot: "+script.PlaceholderReply)
	require.Contains(t, printed, script.CopyNotice)
	require.Equal(t, []string{script.PlaceholderReply}, cb.Texts())
}

func TestPlainSessionEndsAtEndOfInput(t *testing.T) {
	bus := newBus(t)
	be := backend.NewPlaceholderBackend(bus.Publisher, "ok", time.Millisecond)

	session, err := NewChatBuilder().
		WithBus(bus).
		WithBackend(be).
		WithMode(RunModePlain).
		WithIO(strings.NewReader(""), &bytes.Buffer{}).
		Build()
	require.NoError(t, err)

	require.NoError(t, session.Run())
	require.Len(t, session.conv.Messages(), 2)
}

func TestRunWithCancelledContextIsNotAnError(t *testing.T) {
	bus := newBus(t)
	be := backend.NewPlaceholderBackend(bus.Publisher, "ok", time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session, err := NewChatBuilder().
		WithContext(ctx).
		WithBus(bus).
		WithBackend(be).
		WithMode(RunModePlain).
		WithIO(strings.NewReader("hello\n"), &bytes.Buffer{}).
		Build()
	require.NoError(t, err)
	require.NoError(t, session.Run())
}

func TestPlainSessionKeepsRejectedPromptOut(t *testing.T) {
	bus := newBus(t)
	be := &scriptedBackend{err: errors.New("booking service down")}

	session, err := NewChatBuilder().
		WithBus(bus).
		WithBackend(be).
		WithMode(RunModePlain).
		WithIO(strings.NewReader("I want to book a hotel\n/quit\n"), &bytes.Buffer{}).
		Build()
	require.NoError(t, err)

	require.NoError(t, session.Run())
	require.Equal(t, 1, be.starts)
	require.Len(t, session.conv.Messages(), 2)
}

func TestPlainSessionGivesUpOnMissingReply(t *testing.T) {
	bus := newBus(t)
	be := &scriptedBackend{}
	var out bytes.Buffer

	session, err := NewChatBuilder().
		WithBus(bus).
		WithBackend(be).
		WithReplyTimeout(20*time.Millisecond).
		WithMode(RunModePlain).
		WithIO(strings.NewReader("hello\nstill there?\n/quit\n"), &out).
		Build()
	require.NoError(t, err)

	require.NoError(t, session.Run())
	require.Equal(t, 2, be.starts)

	msgs := session.conv.Messages()
	require.Len(t, msgs, 4)
	require.Equal(t, "hello", msgs[2].Text)
	require.Equal(t, "still there?", msgs[3].Text)
}

func TestWithReplyTimeoutRejectsNonPositive(t *testing.T) {
	bus := newBus(t)
	_, err := NewChatBuilder().
		WithReplyTimeout(0).
		WithBus(bus).
		WithBackend(&scriptedBackend{}).
		Build()
	require.ErrorContains(t, err, "reply timeout must be positive")
}
