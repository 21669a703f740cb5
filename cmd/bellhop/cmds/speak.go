package cmds

import (
	"context"
	"strings"

	"github.com/go-go-golems/bellhop/pkg/speech"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/pkg/errors"
)

type SpeakSettings struct {
	SpeechCommand string   `glazed:"speech-command"`
	Text          []string `glazed:"text"`
}

type SpeakCommand struct {
	*cmds.CommandDescription
	// detect is replaced in tests
	detect func(string) speech.Speaker
}

var _ cmds.BareCommand = &SpeakCommand{}

func NewSpeakCommand() (*SpeakCommand, error) {
	return &SpeakCommand{
		CommandDescription: cmds.NewCommandDescription(
			"speak",
			cmds.WithShort("Read text aloud with the speech synthesizer used by the chat"),
			cmds.WithFlags(
				fields.New(
					"speech-command",
					fields.TypeString,
					fields.WithHelp("Speech synthesizer command line"),
				),
			),
			cmds.WithArguments(
				fields.New(
					"text",
					fields.TypeStringList,
					fields.WithHelp("Text to speak"),
					fields.WithRequired(true),
				),
			),
		),
		detect: speech.Detect,
	}, nil
}

func (c *SpeakCommand) Run(ctx context.Context, parsedLayers *values.Values) error {
	s := &SpeakSettings{}
	if err := parsedLayers.DecodeSectionInto(values.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "error initializing settings")
	}

	return c.speak(ctx, s)
}

func (c *SpeakCommand) speak(ctx context.Context, s *SpeakSettings) error {
	text := strings.TrimSpace(strings.Join(s.Text, " "))
	if text == "" {
		return errors.New("nothing to speak")
	}

	if err := c.detect(s.SpeechCommand).Speak(ctx, text); err != nil {
		return errors.Wrap(err, "error speaking text")
	}
	return nil
}
