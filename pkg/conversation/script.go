package conversation

import (
	_ "embed"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed default-script.yaml
var defaultScriptYAML []byte

// Script holds the fixed strings of the chat widget.
type Script struct {
	Title            string   `yaml:"title"`
	Greetings        []string `yaml:"greetings"`
	PlaceholderReply string   `yaml:"placeholder-reply"`
	InputPlaceholder string   `yaml:"input-placeholder"`
	CopyNotice       string   `yaml:"copy-notice"`
}

// DefaultScript returns the embedded hotel-booking script.
func DefaultScript() Script {
	s, err := ParseScript(defaultScriptYAML, Script{})
	if err != nil {
		panic(errors.Wrap(err, "embedded default script is invalid"))
	}
	return s
}

// ParseScript decodes YAML on top of base. Keys missing from the document keep
// the value from base.
func ParseScript(b []byte, base Script) (Script, error) {
	s := base
	s.Greetings = append([]string(nil), base.Greetings...)
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Script{}, errors.Wrap(err, "could not parse script")
	}
	if err := s.Validate(); err != nil {
		return Script{}, err
	}
	return s, nil
}

// LoadScript reads a script file and overlays it on the default script.
// An empty path returns the default script.
func LoadScript(path string) (Script, error) {
	if path == "" {
		return DefaultScript(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Script{}, errors.Wrapf(err, "could not read script %s", path)
	}
	return ParseScript(b, DefaultScript())
}

func (s Script) Validate() error {
	if len(s.Greetings) == 0 {
		return errors.New("script needs at least one greeting")
	}
	for i, g := range s.Greetings {
		if strings.TrimSpace(g) == "" {
			return errors.Errorf("greeting %d is empty", i)
		}
	}
	if strings.TrimSpace(s.PlaceholderReply) == "" {
		return errors.New("script placeholder-reply is empty")
	}
	return nil
}

// NewConversation seeds a conversation with the script greetings.
func (s Script) NewConversation() Conversation {
	return New(s.Greetings...)
}
