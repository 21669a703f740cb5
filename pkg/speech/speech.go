package speech

import (
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var ErrUnavailable = errors.New("no speech synthesizer available")

// Speaker vocalizes text. Calls are not queued; overlapping calls may play at
// the same time, depending on the synthesizer.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// knownSynthesizers are tried in order by Detect.
var knownSynthesizers = [][]string{
	{"say"},
	{"espeak-ng"},
	{"espeak"},
	{"spd-say", "--wait"},
}

// CommandSpeaker runs a text-to-speech program with the text as last argument,
// after a "--" so that text starting with a dash is not parsed as an option.
type CommandSpeaker struct {
	name string
	args []string
}

var _ Speaker = (*CommandSpeaker)(nil)

// NewCommandSpeaker parses a command line such as "espeak-ng -v en-us".
func NewCommandSpeaker(commandLine string) (*CommandSpeaker, error) {
	parts := strings.Fields(commandLine)
	if len(parts) == 0 {
		return nil, errors.New("empty speech command")
	}
	if _, err := exec.LookPath(parts[0]); err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "%s not found", parts[0])
	}
	return &CommandSpeaker{name: parts[0], args: parts[1:]}, nil
}

func (c *CommandSpeaker) String() string {
	return strings.Join(append([]string{c.name}, c.args...), " ")
}

func (c *CommandSpeaker) Speak(ctx context.Context, text string) error {
	text = PlainText(text)
	if text == "" {
		return nil
	}
	args := append(append([]string{}, c.args...), "--", text)
	cmd := exec.CommandContext(ctx, c.name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "%s failed: %s", c.name, strings.TrimSpace(string(out)))
	}
	return nil
}

// Detect returns a speaker for the configured command line, or the first known
// synthesizer found in PATH. It falls back to Nop.
func Detect(commandLine string) Speaker {
	if commandLine != "" {
		s, err := NewCommandSpeaker(commandLine)
		if err != nil {
			log.Warn().Err(err).Str("command", commandLine).Msg("configured speech command unavailable")
			return Nop{}
		}
		return s
	}
	for _, candidate := range knownSynthesizers {
		s, err := NewCommandSpeaker(strings.Join(candidate, " "))
		if err == nil {
			log.Debug().Str("speaker", s.String()).Msg("detected speech synthesizer")
			return s
		}
	}
	log.Debug().Msg("no speech synthesizer found")
	return Nop{}
}

// Nop is used when no synthesizer exists.
type Nop struct{}

func (Nop) Speak(context.Context, string) error {
	return ErrUnavailable
}
