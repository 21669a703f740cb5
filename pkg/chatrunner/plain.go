package chatrunner

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/bellhop/pkg/backend"
	"github.com/go-go-golems/bellhop/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	input "github.com/tcnksm/go-input"
	"golang.org/x/sync/errgroup"
)

// eofReader remembers whether the underlying reader was exhausted so that the
// end of piped input can end the session quietly.
type eofReader struct {
	r    io.Reader
	mu   sync.Mutex
	done bool
}

func (e *eofReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if errors.Is(err, io.EOF) {
		e.mu.Lock()
		e.done = true
		e.mu.Unlock()
	}
	return n, err
}

func (e *eofReader) exhausted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// runPlain is the line-oriented variant used when no terminal is attached.
func (cs *ChatSession) runPlain() error {
	eg, ctx := errgroup.WithContext(cs.ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	replies := make(chan tea.Msg, 1)
	send := func(msg tea.Msg) {
		select {
		case replies <- msg:
		case <-ctx.Done():
		}
	}
	cs.bus.Router.AddNoPublisherHandler("plain", backend.Topic, cs.bus.Subscriber, backend.ForwardFunc(cs.conv.ID, send))

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
		return cs.plainLoop(ctx, replies)
	})

	return eg.Wait()
}

func (cs *ChatSession) plainLoop(ctx context.Context, replies <-chan tea.Msg) error {
	in := &eofReader{r: cs.in}
	prompt := &input.UI{
		Writer: cs.out,
		Reader: in,
	}

	_, _ = fmt.Fprintf(cs.out, "%s\n\n", cs.script.Title)
	for _, m := range cs.conv.Messages() {
		cs.printMessage(m)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := prompt.Ask(cs.script.InputPlaceholder, &input.Options{
			HideOrder: true,
		})
		if err != nil && !errors.Is(err, input.ErrEmpty) {
			if in.exhausted() || errors.Is(err, input.ErrInterrupted) {
				return nil
			}
			return errors.Wrap(err, "failed to read user input")
		}

		text := strings.TrimSpace(line)
		// an empty read after the input ran out means there is nothing left
		if text == "" && in.exhausted() {
			return nil
		}
		switch text {
		case "":
			continue
		case "/quit":
			return nil
		case "/copy":
			cs.copyLast(ctx)
			continue
		case "/speak":
			cs.speakLast(ctx)
			continue
		}

		if err := cs.exchange(ctx, text, replies); err != nil {
			return err
		}
	}
}

// exchange appends the user message once the backend accepted it and blocks
// until the matching reply was printed, the backend failed or the wait timed out.
func (cs *ChatSession) exchange(ctx context.Context, text string, replies <-chan tea.Msg) error {
	userMsg := conversation.NewUserMessage(text)

	cmd, err := cs.backend.Start(ctx, cs.conv.ID, userMsg)
	if err != nil {
		log.Warn().Err(err).Msg("could not start backend")
		return nil
	}
	cs.conv.Append(userMsg)

	timeout := time.NewTimer(cs.replyTimeout)
	defer timeout.Stop()

	if cmd != nil {
		if msg, ok := cmd().(backend.ErrorMsg); ok {
			log.Warn().Err(msg.Err).Str("prompt", msg.InReplyTo).Msg("backend failed")
			return nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timeout.C:
			log.Warn().Str("prompt", userMsg.ID).Msg("no reply received")
			return nil
		case msg := <-replies:
			reply, ok := msg.(backend.ReplyMsg)
			if !ok || reply.InReplyTo != userMsg.ID {
				continue
			}
			cs.conv.Append(reply.Message)
			cs.printMessage(reply.Message)
			return nil
		}
	}
}

func (cs *ChatSession) copyLast(ctx context.Context) {
	last, ok := cs.conv.LastBot()
	if !ok {
		return
	}
	if err := cs.clipboard.WriteText(ctx, last.Text); err != nil {
		log.Warn().Err(err).Msg("copy to clipboard failed")
		return
	}
	_, _ = fmt.Fprintf(cs.out, "(%s)\n", cs.script.CopyNotice)
}

func (cs *ChatSession) speakLast(ctx context.Context) {
	last, ok := cs.conv.LastBot()
	if !ok {
		return
	}
	go func() {
		if err := cs.speaker.Speak(ctx, last.Text); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("speech request failed")
		}
	}()
}

func (cs *ChatSession) printMessage(m conversation.Message) {
	who := "bot"
	if m.IsUser {
		who = "you"
	}
	_, _ = fmt.Fprintf(cs.out, "%s: %s\n", who, m.Text)
}
