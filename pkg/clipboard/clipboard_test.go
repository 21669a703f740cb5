package clipboard

import (
	"bytes"
	"context"
	"encoding/base64"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	err   error
	texts []string
}

func (r *recordingWriter) WriteText(_ context.Context, text string) error {
	r.texts = append(r.texts, text)
	return r.err
}

func TestChainStopsAtFirstSuccess(t *testing.T) {
	failing := &recordingWriter{err: errors.New("no xclip")}
	ok := &recordingWriter{}
	never := &recordingWriter{}

	err := Chain{failing, ok, never}.WriteText(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, []string{"hello"}, failing.texts)
	require.Equal(t, []string{"hello"}, ok.texts)
	require.Empty(t, never.texts)
}

func TestChainReturnsLastError(t *testing.T) {
	last := errors.New("second")
	err := Chain{&recordingWriter{err: errors.New("first")}, &recordingWriter{err: last}}.WriteText(context.Background(), "x")
	require.ErrorIs(t, err, last)

	require.ErrorIs(t, Chain{}.WriteText(context.Background(), "x"), ErrUnsupported)
}

func TestChainStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	second := &recordingWriter{}

	err := Chain{&recordingWriter{err: errors.New("boom")}, second}.WriteText(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, second.texts)
}

func TestOSC52WritesEscapeSequence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewOSC52(&buf).WriteText(context.Background(), "hello"))
	require.Contains(t, buf.String(), base64.StdEncoding.EncodeToString([]byte("hello")))
}
