package chatrunner

import (
	"context"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/bellhop/pkg/backend"
	"github.com/go-go-golems/bellhop/pkg/clipboard"
	"github.com/go-go-golems/bellhop/pkg/conversation"
	"github.com/go-go-golems/bellhop/pkg/redisstream"
	"github.com/go-go-golems/bellhop/pkg/speech"
	"github.com/go-go-golems/bellhop/pkg/ui"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// RunMode defines how the chat session is presented.
type RunMode string

const (
	// RunModeAuto picks the TUI when both input and output are terminals.
	RunModeAuto  RunMode = "auto"
	RunModeTUI   RunMode = "tui"
	RunModePlain RunMode = "plain"
)

func ParseRunMode(s string) (RunMode, error) {
	switch RunMode(s) {
	case RunModeAuto, RunModeTUI, RunModePlain:
		return RunMode(s), nil
	case "":
		return RunModeAuto, nil
	default:
		return "", errors.Errorf("unknown run mode %q (expected auto, tui or plain)", s)
	}
}

// ChatSession holds the validated configuration and executes the chat logic.
// It's typically created and run by the ChatBuilder.
type ChatSession struct {
	ctx            context.Context
	script         conversation.Script
	conv           conversation.Conversation
	bus            *redisstream.Bus
	backend        backend.Backend
	clipboard      clipboard.Writer
	speaker        speech.Speaker
	noticeDuration time.Duration
	replyTimeout   time.Duration
	markdown       bool
	altScreen      bool
	programOptions []tea.ProgramOption
	mode           RunMode
	in             io.Reader
	out            io.Writer
}

// Run executes the chat session based on its configured mode. It returns when
// the user quits or the context is cancelled; cancellation is not an error.
func (cs *ChatSession) Run() error {
	mode := cs.resolveMode()
	log.Debug().Str("mode", string(mode)).Str("conversation", cs.conv.ID).Msg("starting chat session")

	var err error
	switch mode {
	case RunModeTUI:
		err = cs.runTUI()
	case RunModePlain:
		err = cs.runPlain()
	default:
		return errors.Errorf("unknown run mode: %v", mode)
	}

	if errors.Is(err, context.Canceled) && cs.ctx.Err() != nil {
		return nil
	}
	return err
}

func (cs *ChatSession) resolveMode() RunMode {
	if cs.mode != RunModeAuto {
		return cs.mode
	}
	if isTerminal(cs.in) && isTerminal(cs.out) {
		return RunModeTUI
	}
	return RunModePlain
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// runTUI runs the router and the bubbletea program side by side. Whichever
// stops first cancels the other.
func (cs *ChatSession) runTUI() error {
	eg, ctx := errgroup.WithContext(cs.ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model, err := ui.NewModel(ctx, ui.Options{
		Script:         cs.script,
		Conversation:   &cs.conv,
		Backend:        cs.backend,
		Clipboard:      cs.clipboard,
		Speaker:        cs.speaker,
		NoticeDuration: cs.noticeDuration,
		ReplyTimeout:   cs.replyTimeout,
		Markdown:       cs.markdown,
	})
	if err != nil {
		return err
	}

	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithInput(cs.in),
		tea.WithOutput(cs.out),
		tea.WithMouseCellMotion(),
	}
	if cs.altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(model, append(opts, cs.programOptions...)...)

	cs.bus.Router.AddNoPublisherHandler("ui", backend.Topic, cs.bus.Subscriber, backend.ForwardFunc(cs.conv.ID, p.Send))

	eg.Go(func() error {
		defer cancel()
		return cs.bus.Router.Run(ctx)
	})

	eg.Go(func() error {
		defer cancel()

		select {
		case <-cs.bus.Router.Running():
		case <-ctx.Done():
			return nil
		}

		log.Debug().Str("component", "chatrunner").Msg("Starting Bubble Tea program")
		final, runErr := p.Run()
		log.Debug().Err(runErr).Str("component", "chatrunner").Msg("Bubble Tea program finished")
		if m, ok := final.(ui.Model); ok {
			m.Close()
		}
		if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return runErr
	})

	return eg.Wait()
}

// --- ChatBuilder ---

// ChatBuilder provides a fluent API for configuring and running a chat session.
type ChatBuilder struct {
	err            error // To collect errors during build steps
	ctx            context.Context
	script         conversation.Script
	conv           *conversation.Conversation
	bus            *redisstream.Bus
	backend        backend.Backend
	clipboard      clipboard.Writer
	speaker        speech.Speaker
	noticeDuration time.Duration
	replyTimeout   time.Duration
	markdown       bool
	altScreen      bool
	programOptions []tea.ProgramOption
	mode           RunMode
	in             io.Reader
	out            io.Writer
}

// NewChatBuilder creates a new builder with default settings.
func NewChatBuilder() *ChatBuilder {
	return &ChatBuilder{
		ctx:            context.Background(),
		script:         conversation.DefaultScript(),
		clipboard:      clipboard.Default(),
		speaker:        speech.Nop{},
		noticeDuration: ui.DefaultNoticeDuration,
		replyTimeout:   backend.DefaultReplyTimeout,
		altScreen:      true,
		mode:           RunModeAuto,
		in:             os.Stdin,
		out:            os.Stdout,
	}
}

// WithContext sets the context for the chat session.
func (b *ChatBuilder) WithContext(ctx context.Context) *ChatBuilder {
	if b.err != nil {
		return b
	}
	if ctx == nil {
		b.err = errors.New("context cannot be nil")
		return b
	}
	b.ctx = ctx
	return b
}

func (b *ChatBuilder) WithScript(script conversation.Script) *ChatBuilder {
	if b.err != nil {
		return b
	}
	if err := script.Validate(); err != nil {
		b.err = errors.Wrap(err, "invalid script")
		return b
	}
	b.script = script
	return b
}

// WithConversation sets the conversation to display. Defaults to one seeded
// from the script.
func (b *ChatBuilder) WithConversation(conv conversation.Conversation) *ChatBuilder {
	if b.err != nil {
		return b
	}
	b.conv = &conv
	return b
}

// WithBus sets the event bus replies travel on. (Required)
func (b *ChatBuilder) WithBus(bus *redisstream.Bus) *ChatBuilder {
	if b.err != nil {
		return b
	}
	if bus == nil {
		b.err = errors.New("bus cannot be nil")
		return b
	}
	b.bus = bus
	return b
}

// WithBackend sets the backend answering prompts. (Required)
func (b *ChatBuilder) WithBackend(be backend.Backend) *ChatBuilder {
	if b.err != nil {
		return b
	}
	if be == nil {
		b.err = errors.New("backend cannot be nil")
		return b
	}
	b.backend = be
	return b
}

func (b *ChatBuilder) WithClipboard(w clipboard.Writer) *ChatBuilder {
	if b.err != nil {
		return b
	}
	b.clipboard = w
	return b
}

func (b *ChatBuilder) WithSpeaker(s speech.Speaker) *ChatBuilder {
	if b.err != nil {
		return b
	}
	b.speaker = s
	return b
}

func (b *ChatBuilder) WithNoticeDuration(d time.Duration) *ChatBuilder {
	if b.err != nil {
		return b
	}
	if d <= 0 {
		b.err = errors.Errorf("notice duration must be positive, got %s", d)
		return b
	}
	b.noticeDuration = d
	return b
}

// WithReplyTimeout sets how long a prompt waits for its reply before the
// session gives up on it.
func (b *ChatBuilder) WithReplyTimeout(d time.Duration) *ChatBuilder {
	if b.err != nil {
		return b
	}
	if d <= 0 {
		b.err = errors.Errorf("reply timeout must be positive, got %s", d)
		return b
	}
	b.replyTimeout = d
	return b
}

// WithMarkdown renders bot messages as markdown in the TUI.
func (b *ChatBuilder) WithMarkdown(markdown bool) *ChatBuilder {
	b.markdown = markdown
	return b
}

func (b *ChatBuilder) WithAltScreen(altScreen bool) *ChatBuilder {
	b.altScreen = altScreen
	return b
}

// WithProgramOptions adds options for configuring the bubbletea program.
func (b *ChatBuilder) WithProgramOptions(opts ...tea.ProgramOption) *ChatBuilder {
	if b.err != nil {
		return b
	}
	b.programOptions = append(b.programOptions, opts...)
	return b
}

// WithMode sets the presentation mode (auto, tui, plain).
func (b *ChatBuilder) WithMode(mode RunMode) *ChatBuilder {
	if b.err != nil {
		return b
	}
	switch mode {
	case RunModeAuto, RunModeTUI, RunModePlain:
		b.mode = mode
	default:
		b.err = errors.Errorf("invalid run mode: %s", mode)
	}
	return b
}

// WithIO sets the terminal streams. Defaults to stdin and stdout.
func (b *ChatBuilder) WithIO(in io.Reader, out io.Writer) *ChatBuilder {
	if b.err != nil {
		return b
	}
	if in == nil || out == nil {
		b.err = errors.New("input and output cannot be nil")
		return b
	}
	b.in = in
	b.out = out
	return b
}

// Build validates the builder configuration and returns a runnable session.
func (b *ChatBuilder) Build() (*ChatSession, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.bus == nil {
		return nil, errors.New("bus is required (use WithBus)")
	}
	if b.backend == nil {
		return nil, errors.New("backend is required (use WithBackend)")
	}

	conv := b.script.NewConversation()
	if b.conv != nil {
		conv = *b.conv
	}
	cb := b.clipboard
	if cb == nil {
		cb = clipboard.Chain{}
	}
	speaker := b.speaker
	if speaker == nil {
		speaker = speech.Nop{}
	}

	return &ChatSession{
		ctx:            b.ctx,
		script:         b.script,
		conv:           conv,
		bus:            b.bus,
		backend:        b.backend,
		clipboard:      cb,
		speaker:        speaker,
		noticeDuration: b.noticeDuration,
		replyTimeout:   b.replyTimeout,
		markdown:       b.markdown,
		altScreen:      b.altScreen,
		programOptions: b.programOptions,
		mode:           b.mode,
		in:             b.in,
		out:            b.out,
	}, nil
}
