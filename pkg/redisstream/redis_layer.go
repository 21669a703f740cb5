package redisstream

import (
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/schema"
)

const SectionSlug = "redis"

// Settings holds Redis Streams transport configuration for Watermill.
type Settings struct {
	Enabled  bool   `glazed:"redis-enabled"`
	Addr     string `glazed:"redis-addr"`
	Group    string `glazed:"redis-group"`
	Consumer string `glazed:"redis-consumer"`
}

// NewSection returns a section definition for Redis Streams settings.
func NewSection() (schema.Section, error) {
	return schema.NewSection(
		SectionSlug,
		"Redis configuration for Watermill Redis Streams",
		schema.WithFields(
			fields.New("redis-enabled", fields.TypeBool,
				fields.WithDefault(false),
				fields.WithHelp("Carry reply events over Redis Streams instead of in-memory channels")),
			fields.New("redis-addr", fields.TypeString,
				fields.WithDefault("localhost:6379"),
				fields.WithHelp("Redis address host:port")),
			fields.New("redis-group", fields.TypeString,
				fields.WithDefault(""),
				fields.WithHelp("Redis consumer group (default: one group per chat session)")),
			fields.New("redis-consumer", fields.TypeString,
				fields.WithDefault(""),
				fields.WithHelp("Redis consumer name (default: derived from the chat session)")),
		),
	)
}

// ForSession fills an empty group and consumer with names derived from the
// session id. Redis hands every stream entry to a single consumer of a group,
// so sessions sharing a group would steal each other's replies.
func (s Settings) ForSession(sessionID string) Settings {
	if s.Group == "" {
		s.Group = "bellhop-ui-" + sessionID
	}
	if s.Consumer == "" {
		s.Consumer = "ui-" + sessionID
	}
	return s
}
