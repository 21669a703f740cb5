package cmds

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-go-golems/bellhop/pkg/clipboard"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
)

type ClipSettings struct {
	Stats bool     `glazed:"stats"`
	Text  []string `glazed:"text"`
}

type ClipCommand struct {
	*cmds.CommandDescription
	clipboard clipboard.Writer
	stdin     io.Reader
	stdout    io.Writer
}

var _ cmds.BareCommand = &ClipCommand{}

func NewClipCommand() (*ClipCommand, error) {
	return &ClipCommand{
		CommandDescription: cmds.NewCommandDescription(
			"clip",
			cmds.WithShort("Copy text to the clipboard"),
			cmds.WithLong("Copy the arguments, or stdin when no arguments are given, to the clipboard the chat uses for its copy action"),
			cmds.WithFlags(
				fields.New(
					"stats",
					fields.TypeBool,
					fields.WithHelp("Show statistics about the copied text"),
					fields.WithDefault(false),
				),
			),
			cmds.WithArguments(
				fields.New(
					"text",
					fields.TypeStringList,
					fields.WithHelp("Text to copy"),
				),
			),
		),
		clipboard: clipboard.Default(),
		stdin:     os.Stdin,
		stdout:    os.Stdout,
	}, nil
}

func (c *ClipCommand) Run(
	ctx context.Context,
	parsedLayers *values.Values,
) error {
	s := &ClipSettings{}
	err := parsedLayers.DecodeSectionInto(values.DefaultSlug, s)
	if err != nil {
		return fmt.Errorf("error initializing settings: %w", err)
	}

	return c.clip(ctx, s)
}

func (c *ClipCommand) clip(ctx context.Context, s *ClipSettings) error {
	var text string
	if len(s.Text) == 0 {
		// Read from stdin when no arguments provided
		input, err := io.ReadAll(c.stdin)
		if err != nil {
			return fmt.Errorf("error reading from stdin: %w", err)
		}
		text = string(input)
	} else {
		text = strings.Join(s.Text, " ")
	}

	if err := c.clipboard.WriteText(ctx, text); err != nil {
		return fmt.Errorf("error copying to clipboard: %w", err)
	}

	if s.Stats {
		printStats(c.stdout, text)
	}

	return nil
}

func printStats(w io.Writer, content string) {
	lineCount := strings.Count(content, "\n") + 1
	wordCount := len(strings.Fields(content))

	_, _ = fmt.Fprintf(w, "Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Words:  %d\n", wordCount)
	_, _ = fmt.Fprintf(w, "  Lines:  %d\n", lineCount)
	_, _ = fmt.Fprintf(w, "  Size:   %d bytes\n", len(content))
}
