package cmds

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-go-golems/bellhop/pkg/speech"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type memoryClipboard struct {
	texts []string
	err   error
}

func (m *memoryClipboard) WriteText(_ context.Context, text string) error {
	if m.err != nil {
		return m.err
	}
	m.texts = append(m.texts, text)
	return nil
}

type memorySpeaker struct {
	texts []string
}

func (m *memorySpeaker) Speak(_ context.Context, text string) error {
	m.texts = append(m.texts, text)
	return nil
}

func newTestClip(t *testing.T, stdin string) (*ClipCommand, *memoryClipboard, *bytes.Buffer) {
	t.Helper()
	c, err := NewClipCommand()
	require.NoError(t, err)
	cb := &memoryClipboard{}
	out := &bytes.Buffer{}
	c.clipboard = cb
	c.stdin = strings.NewReader(stdin)
	c.stdout = out
	return c, cb, out
}

func TestCommandsDescribeThemselves(t *testing.T) {
	chat, err := NewChatCommand()
	require.NoError(t, err)
	require.Equal(t, "chat", chat.Name)

	speak, err := NewSpeakCommand()
	require.NoError(t, err)
	require.Equal(t, "speak", speak.Name)
	require.NotNil(t, speak.detect)

	clip, err := NewClipCommand()
	require.NoError(t, err)
	require.Equal(t, "clip", clip.Name)
	require.NotNil(t, clip.clipboard)
}

func TestClipCopiesArguments(t *testing.T) {
	c, cb, out := newTestClip(t, "ignored")

	require.NoError(t, c.clip(context.Background(), &ClipSettings{Text: []string{"Room", "101"}}))
	require.Equal(t, []string{"Room 101"}, cb.texts)
	require.Empty(t, out.String())
}

func TestClipFallsBackToStdin(t *testing.T) {
	c, cb, out := newTestClip(t, "Text copied\nto clipboard")

	require.NoError(t, c.clip(context.Background(), &ClipSettings{Stats: true}))
	require.Equal(t, []string{"Text copied\nto clipboard"}, cb.texts)
	require.Contains(t, out.String(), "Lines:  2")
}

func TestClipReportsClipboardFailure(t *testing.T) {
	c, cb, _ := newTestClip(t, "")
	cb.err = errors.New("no display")

	err := c.clip(context.Background(), &ClipSettings{Text: []string{"x"}})
	require.ErrorContains(t, err, "no display")
}

func TestSpeakJoinsArguments(t *testing.T) {
	c, err := NewSpeakCommand()
	require.NoError(t, err)
	sp := &memorySpeaker{}
	var requested string
	c.detect = func(commandLine string) speech.Speaker {
		requested = commandLine
		return sp
	}

	require.NoError(t, c.speak(context.Background(), &SpeakSettings{
		SpeechCommand: "espeak-ng -v en-us",
		Text:          []string{"Welcome", "to", "the", "hotel"},
	}))
	require.Equal(t, "espeak-ng -v en-us", requested)
	require.Equal(t, []string{"Welcome to the hotel"}, sp.texts)
}

func TestSpeakRejectsBlankText(t *testing.T) {
	c, err := NewSpeakCommand()
	require.NoError(t, err)
	sp := &memorySpeaker{}
	c.detect = func(string) speech.Speaker { return sp }

	err = c.speak(context.Background(), &SpeakSettings{Text: []string{" ", "\t"}})
	require.ErrorContains(t, err, "nothing to speak")
	require.Empty(t, sp.texts)
}

func TestSpeakWithoutSynthesizer(t *testing.T) {
	c, err := NewSpeakCommand()
	require.NoError(t, err)
	c.detect = func(string) speech.Speaker { return speech.Nop{} }

	err = c.speak(context.Background(), &SpeakSettings{Text: []string{"hello"}})
	require.ErrorIs(t, err, speech.ErrUnavailable)
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, "Text copied\nto clipboard")

	out := buf.String()
	require.Contains(t, out, "Words:  4")
	require.Contains(t, out, "Lines:  2")
	require.Contains(t, out, "Size:   24 bytes")
}
