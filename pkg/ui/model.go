package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/go-go-golems/bellhop/pkg/backend"
	"github.com/go-go-golems/bellhop/pkg/clipboard"
	"github.com/go-go-golems/bellhop/pkg/conversation"
	"github.com/go-go-golems/bellhop/pkg/speech"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const DefaultNoticeDuration = 2000 * time.Millisecond

// Options configures a chat view. Backend is required; a nil Clipboard or
// Speaker makes the corresponding action fail silently.
type Options struct {
	Script conversation.Script
	// Conversation defaults to one seeded from Script.
	Conversation   *conversation.Conversation
	Backend        backend.Backend
	Clipboard      clipboard.Writer
	Speaker        speech.Speaker
	NoticeDuration time.Duration
	// ReplyTimeout bounds the wait for a reply, measured from submission.
	ReplyTimeout time.Duration
	Markdown     bool
}

type copyResultMsg struct {
	err error
}

type copyNoticeExpiredMsg struct {
	seq int
}

type speakResultMsg struct {
	err error
}

// Model is the conversation view: the message list, the draft input and the
// flags gating submissions and the copy notice.
//
// All asynchronous work (reply delay, notice expiry, clipboard and speech
// requests) is bound to the model context. Close cancels it, after which late
// results are dropped.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	script    conversation.Script
	conv      conversation.Conversation
	backend   backend.Backend
	clipboard clipboard.Writer
	speaker   speech.Speaker

	noticeDuration time.Duration
	replyTimeout   time.Duration
	pending        bool
	pendingID      string
	copyNotice     bool
	noticeSeq      int
	// selected is the index of the highlighted bot message, -1 follows the latest one
	selected int

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	markdown bool
	renderer *glamour.TermRenderer

	width  int
	height int
}

var _ tea.Model = Model{}

func NewModel(ctx context.Context, opts Options) (Model, error) {
	if opts.Backend == nil {
		return Model{}, errors.New("chat view needs a backend")
	}
	if err := opts.Script.Validate(); err != nil {
		return Model{}, errors.Wrap(err, "invalid script")
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.Chain{}
	}
	if opts.Speaker == nil {
		opts.Speaker = speech.Nop{}
	}
	if opts.NoticeDuration <= 0 {
		opts.NoticeDuration = DefaultNoticeDuration
	}
	if opts.ReplyTimeout <= 0 {
		opts.ReplyTimeout = backend.DefaultReplyTimeout
	}
	conv := opts.Script.NewConversation()
	if opts.Conversation != nil {
		conv = *opts.Conversation
	}

	ctx, cancel := context.WithCancel(ctx)

	ti := textinput.New()
	ti.Placeholder = opts.Script.InputPlaceholder
	ti.Prompt = "> "
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.KeyMap = viewport.KeyMap{
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = typingStyle

	m := Model{
		ctx:            ctx,
		cancel:         cancel,
		script:         opts.Script,
		conv:           conv,
		backend:        opts.Backend,
		clipboard:      opts.Clipboard,
		speaker:        opts.Speaker,
		noticeDuration: opts.NoticeDuration,
		replyTimeout:   opts.ReplyTimeout,
		selected:       -1,
		input:          ti,
		viewport:       vp,
		spinner:        sp,
		help:           help.New(),
		keys:           defaultKeyMap(),
		markdown:       opts.Markdown,
		width:          80,
		height:         24,
	}
	m.resize(m.width, m.height)
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Submit):
			return m.Submit(m.input.Value())
		case key.Matches(msg, m.keys.Next):
			m.moveSelection(1)
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.moveSelection(-1)
			return m, nil
		case key.Matches(msg, m.keys.Copy):
			if sel, ok := m.SelectedMessage(); ok {
				return m.CopyToClipboard(sel.Text)
			}
			return m, nil
		case key.Matches(msg, m.keys.Speak):
			if sel, ok := m.SelectedMessage(); ok {
				return m, m.Speak(sel.Text)
			}
			return m, nil
		}

	case backend.ReplyMsg:
		return m.receiveReply(msg)

	case backend.ErrorMsg:
		if m.closed() || !m.pending || msg.InReplyTo != m.pendingID {
			return m, nil
		}
		log.Warn().Err(msg.Err).Str("prompt", msg.InReplyTo).Msg("backend could not answer")
		m.pending = false
		m.pendingID = ""
		cmd := m.input.Focus()
		m.refresh(true)
		return m, cmd

	case copyResultMsg:
		if m.closed() {
			return m, nil
		}
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("copy to clipboard failed")
			return m, nil
		}
		m.noticeSeq++
		m.copyNotice = true
		return m, after(m.ctx, m.noticeDuration, copyNoticeExpiredMsg{seq: m.noticeSeq})

	case copyNoticeExpiredMsg:
		if m.closed() {
			return m, nil
		}
		// a newer copy restarted the window
		if msg.seq == m.noticeSeq {
			m.copyNotice = false
		}
		return m, nil

	case speakResultMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("speech failed")
		}
		return m, nil

	case spinner.TickMsg:
		if !m.pending || m.closed() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh(false)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// Submit appends a user message and asks the backend for a reply. It does
// nothing when text is blank or a reply is pending.
func (m Model) Submit(text string) (Model, tea.Cmd) {
	if strings.TrimSpace(text) == "" || m.pending || m.closed() {
		return m, nil
	}

	prompt := conversation.NewUserMessage(text)
	cmd, err := m.backend.Start(m.ctx, m.conv.ID, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("could not start backend")
		return m, nil
	}

	m.conv.Append(prompt)
	m.input.Reset()
	m.input.Blur()
	m.pending = true
	m.pendingID = prompt.ID
	m.refresh(true)
	log.Debug().Str("prompt", prompt.ID).Msg("submitted prompt")

	// gives up on the prompt if no reply arrives, e.g. when the event was lost
	deadline := after(m.ctx, m.replyTimeout, backend.ErrorMsg{
		InReplyTo: prompt.ID,
		Err:       backend.ErrReplyTimeout,
	})
	return m, tea.Batch(cmd, m.spinner.Tick, deadline)
}

func (m Model) receiveReply(msg backend.ReplyMsg) (Model, tea.Cmd) {
	if m.closed() {
		return m, nil
	}
	if !m.pending || msg.InReplyTo != m.pendingID {
		log.Debug().Str("in_reply_to", msg.InReplyTo).Msg("ignoring stale reply")
		return m, nil
	}

	m.conv.Append(msg.Message)
	m.pending = false
	m.pendingID = ""
	cmd := m.input.Focus()
	m.refresh(true)
	return m, cmd
}

// CopyToClipboard writes text to the clipboard. On success the copy notice is
// shown for the notice duration.
func (m Model) CopyToClipboard(text string) (Model, tea.Cmd) {
	if m.closed() {
		return m, nil
	}
	ctx, w := m.ctx, m.clipboard
	return m, func() tea.Msg {
		return copyResultMsg{err: w.WriteText(ctx, text)}
	}
}

// Speak vocalizes text. The request is not tracked beyond logging its outcome.
func (m Model) Speak(text string) tea.Cmd {
	if m.closed() {
		return nil
	}
	ctx, s := m.ctx, m.speaker
	return func() tea.Msg {
		return speakResultMsg{err: s.Speak(ctx, text)}
	}
}

// Close cancels every outstanding timer and platform request of the view.
func (m Model) Close() {
	m.cancel()
}

func (m Model) closed() bool {
	return m.ctx.Err() != nil
}

func (m Model) Messages() []conversation.Message { return m.conv.Messages() }
func (m Model) ConversationID() string          { return m.conv.ID }
func (m Model) Draft() string                   { return m.input.Value() }
func (m Model) Pending() bool                   { return m.pending }
func (m Model) CopyNotice() bool                { return m.copyNotice }

// SelectedMessage returns the highlighted bot message.
func (m Model) SelectedMessage() (conversation.Message, bool) {
	if m.selected < 0 {
		return m.conv.LastBot()
	}
	return m.conv.At(m.selected)
}

func (m *Model) moveSelection(delta int) {
	idx := m.conv.BotIndexes()
	if len(idx) == 0 {
		return
	}
	pos := len(idx) - 1
	for i, v := range idx {
		if v == m.selected {
			pos = i
		}
	}
	pos += delta
	if pos < 0 {
		pos = 0
	}
	if pos >= len(idx)-1 {
		m.selected = -1
	} else {
		m.selected = idx[pos]
	}
	m.refresh(false)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-8, 10)
	m.help.Width = width
	m.viewport.Width = width
	// header (2) + notice (1) + input box (3) + help (1)
	m.viewport.Height = max(height-7, 3)

	if m.markdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(m.bubbleWidth()-4),
		)
		if err != nil {
			log.Warn().Err(err).Msg("could not create markdown renderer")
			r = nil
		}
		m.renderer = r
	}
	m.refresh(true)
}

// refresh re-renders the message list; toBottom scrolls to the newest message.
func (m *Model) refresh(toBottom bool) {
	m.viewport.SetContent(m.renderMessages())
	if toBottom {
		m.viewport.GotoBottom()
	}
}

func after(ctx context.Context, d time.Duration, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			return msg
		}
	}
}
