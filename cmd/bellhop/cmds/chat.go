package cmds

import (
	"context"
	"time"

	"github.com/go-go-golems/bellhop/pkg/backend"
	"github.com/go-go-golems/bellhop/pkg/chatrunner"
	"github.com/go-go-golems/bellhop/pkg/clipboard"
	"github.com/go-go-golems/bellhop/pkg/conversation"
	"github.com/go-go-golems/bellhop/pkg/redisstream"
	"github.com/go-go-golems/bellhop/pkg/speech"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type ChatSettings struct {
	Mode           string `glazed:"mode"`
	Script         string `glazed:"script"`
	ReplyDelayMs   int    `glazed:"reply-delay-ms"`
	ReplyTimeoutMs int    `glazed:"reply-timeout-ms"`
	NoticeMs       int    `glazed:"notice-ms"`
	SpeechCommand  string `glazed:"speech-command"`
	Markdown       bool   `glazed:"markdown"`
	AltScreen      bool   `glazed:"alt-screen"`

	Redis redisstream.Settings
}

type ChatCommand struct {
	*cmds.CommandDescription
}

var _ cmds.BareCommand = &ChatCommand{}

func NewChatCommand() (*ChatCommand, error) {
	redisSection, err := redisstream.NewSection()
	if err != nil {
		return nil, errors.Wrap(err, "build redis section")
	}

	return &ChatCommand{
		CommandDescription: cmds.NewCommandDescription(
			"chat",
			cmds.WithShort("Open the hotel booking chat"),
			cmds.WithLong("Open the hotel booking assistant chat. Every prompt is answered with a placeholder reply after a short delay."),
			cmds.WithFlags(
				fields.New(
					"mode",
					fields.TypeChoice,
					fields.WithChoices("auto", "tui", "plain"),
					fields.WithHelp("Presentation mode; auto uses the TUI when attached to a terminal"),
					fields.WithDefault("auto"),
				),
				fields.New(
					"script",
					fields.TypeString,
					fields.WithHelp("YAML file overriding greetings, placeholder reply and other texts"),
				),
				fields.New(
					"reply-delay-ms",
					fields.TypeInteger,
					fields.WithHelp("Delay before the placeholder reply, in milliseconds"),
					fields.WithDefault(int(backend.DefaultReplyDelay/time.Millisecond)),
				),
				fields.New(
					"reply-timeout-ms",
					fields.TypeInteger,
					fields.WithHelp("How long to wait for a reply before giving up on a prompt, in milliseconds"),
					fields.WithDefault(int(backend.DefaultReplyTimeout/time.Millisecond)),
				),
				fields.New(
					"notice-ms",
					fields.TypeInteger,
					fields.WithHelp("How long the copy notice stays visible, in milliseconds"),
					fields.WithDefault(2000),
				),
				fields.New(
					"speech-command",
					fields.TypeString,
					fields.WithHelp("Speech synthesizer command line (default: first of say, espeak-ng, espeak, spd-say)"),
				),
				fields.New(
					"markdown",
					fields.TypeBool,
					fields.WithHelp("Render bot messages as markdown"),
					fields.WithDefault(false),
				),
				fields.New(
					"alt-screen",
					fields.TypeBool,
					fields.WithHelp("Use the terminal alternate screen"),
					fields.WithDefault(true),
				),
			),
			cmds.WithSections(redisSection),
		),
	}, nil
}

func (c *ChatCommand) Run(ctx context.Context, parsedLayers *values.Values) error {
	s := &ChatSettings{}
	if err := parsedLayers.DecodeSectionInto(values.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "error initializing settings")
	}
	if err := parsedLayers.DecodeSectionInto(redisstream.SectionSlug, &s.Redis); err != nil {
		return errors.Wrap(err, "error initializing redis settings")
	}
	if s.ReplyDelayMs < 0 {
		return errors.Errorf("reply-delay-ms must not be negative, got %d", s.ReplyDelayMs)
	}
	if s.ReplyTimeoutMs <= s.ReplyDelayMs {
		return errors.Errorf("reply-timeout-ms (%d) must be longer than reply-delay-ms (%d)", s.ReplyTimeoutMs, s.ReplyDelayMs)
	}

	mode, err := chatrunner.ParseRunMode(s.Mode)
	if err != nil {
		return err
	}

	script := conversation.DefaultScript()
	if s.Script != "" {
		script, err = conversation.LoadScript(s.Script)
		if err != nil {
			return err
		}
	}

	conv := script.NewConversation()
	s.Redis = s.Redis.ForSession(conv.ID)

	if s.Redis.Enabled {
		log.Info().Str("addr", s.Redis.Addr).Str("group", s.Redis.Group).Str("consumer", s.Redis.Consumer).Msg("using redis streams transport")
		if err := redisstream.EnsureGroupAtTail(ctx, s.Redis.Addr, backend.Topic, s.Redis.Group); err != nil {
			return errors.Wrap(err, "could not create redis consumer group")
		}
	}
	bus, err := redisstream.BuildBus(s.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	be := backend.NewPlaceholderBackend(
		bus.Publisher,
		script.PlaceholderReply,
		time.Duration(s.ReplyDelayMs)*time.Millisecond,
	)

	session, err := chatrunner.NewChatBuilder().
		WithContext(ctx).
		WithScript(script).
		WithConversation(conv).
		WithBus(bus).
		WithBackend(be).
		WithClipboard(clipboard.Default()).
		WithSpeaker(speech.Detect(s.SpeechCommand)).
		WithNoticeDuration(time.Duration(s.NoticeMs) * time.Millisecond).
		WithReplyTimeout(time.Duration(s.ReplyTimeoutMs) * time.Millisecond).
		WithMarkdown(s.Markdown).
		WithAltScreen(s.AltScreen).
		WithMode(mode).
		Build()
	if err != nil {
		return err
	}

	return session.Run()
}
