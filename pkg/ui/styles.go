package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("62"))

	userBubbleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	botBubbleStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	selectedBotBubbleStyle = botBubbleStyle.
				BorderForeground(lipgloss.Color("170"))

	actionStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedActionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)

	typingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("35")).
			Padding(0, 1)

	inputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	disabledInputStyle = inputStyle.
				BorderForeground(lipgloss.Color("240"))
)
