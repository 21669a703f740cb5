package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/bellhop/pkg/conversation"
	"github.com/rs/zerolog/log"
)

// actions shown under every bot message. Only speak and copy have key bindings,
// the feedback and retry entries are decoration.
var actions = []string{"speak", "copy", "+1", "-1", "retry"}

func (m Model) View() string {
	header := headerStyle.Width(m.width).Render(titleStyle.Render(m.script.Title))

	notice := ""
	if m.copyNotice {
		notice = lipgloss.PlaceHorizontal(m.width, lipgloss.Right, noticeStyle.Render(m.script.CopyNotice))
	}

	box := inputStyle
	if m.pending {
		box = disabledInputStyle
	}
	input := box.Width(max(m.width-2, 1)).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		notice,
		input,
		m.help.View(m.keys),
	)
}

func (m Model) bubbleWidth() int {
	w := m.width * 2 / 3
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) renderMessages() string {
	var sb strings.Builder
	selected := m.selected
	if selected < 0 {
		if idx := m.conv.BotIndexes(); len(idx) > 0 {
			selected = idx[len(idx)-1]
		}
	}

	for i, msg := range m.conv.Messages() {
		if i > 0 {
			sb.WriteString("\n")
		}
		if msg.IsUser {
			sb.WriteString(m.renderUserMessage(msg))
		} else {
			sb.WriteString(m.renderBotMessage(msg, i == selected))
		}
		sb.WriteString("\n")
	}

	if m.pending {
		sb.WriteString("\n")
		sb.WriteString(botBubbleStyle.Render(m.spinner.View() + typingStyle.Render(" typing")))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderUserMessage(msg conversation.Message) string {
	w := min(lipgloss.Width(msg.Text)+2, m.bubbleWidth())
	bubble := userBubbleStyle.Width(w).Render(msg.Text)
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, bubble)
}

func (m Model) renderBotMessage(msg conversation.Message, selected bool) string {
	text := msg.Text
	if m.renderer != nil {
		out, err := m.renderer.Render(text)
		if err != nil {
			log.Debug().Err(err).Msg("markdown rendering failed")
		} else {
			text = strings.Trim(out, "\n")
		}
	}

	style := botBubbleStyle
	aStyle := actionStyle
	if selected {
		style = selectedBotBubbleStyle
		aStyle = selectedActionStyle
	}
	w := min(lipgloss.Width(text)+4, m.bubbleWidth())
	bubble := style.Width(w).Render(text)

	labels := make([]string, 0, len(actions))
	for _, a := range actions {
		labels = append(labels, aStyle.Render("["+a+"]"))
	}
	return bubble + "\n" + strings.Join(labels, " ")
}
