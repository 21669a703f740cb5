package clipboard

import (
	"context"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var ErrUnsupported = errors.New("clipboard is not supported on this system")

// Writer writes text to a clipboard. The returned error is the completion signal.
type Writer interface {
	WriteText(ctx context.Context, text string) error
}

// System uses the platform clipboard utilities (pbcopy, xclip, xsel, wl-copy, ...).
type System struct{}

var _ Writer = System{}

func (System) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	if err := clipboard.WriteAll(text); err != nil {
		return errors.Wrap(err, "could not write to system clipboard")
	}
	return nil
}

// OSC52 asks the terminal to set the clipboard through an escape sequence.
// It works over ssh, but the terminal gives no acknowledgment.
type OSC52 struct {
	output *termenv.Output
}

var _ Writer = (*OSC52)(nil)

func NewOSC52(w io.Writer) *OSC52 {
	return &OSC52{output: termenv.NewOutput(w)}
}

func (o *OSC52) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.output.Copy(text)
	return nil
}

// Chain tries each writer in order and stops at the first success.
type Chain []Writer

var _ Writer = Chain(nil)

func (c Chain) WriteText(ctx context.Context, text string) error {
	if len(c) == 0 {
		return ErrUnsupported
	}
	var err error
	for _, w := range c {
		if err = w.WriteText(ctx, text); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Debug().Err(err).Msg("clipboard writer failed, trying next")
	}
	return err
}

// Default returns the system clipboard with an OSC52 fallback on stderr, so the
// escape sequence does not end up in redirected output.
func Default() Chain {
	return Chain{System{}, NewOSC52(os.Stderr)}
}
