package tui

import "github.com/charmbracelet/lipgloss"

var (
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	logLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // dim gray
	logWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	logErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	avatarStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	nameStyle   = lipgloss.NewStyle().Bold(true)
	onlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	userBubbleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("27")).Padding(0, 1)
	assistantBubbleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("237")).Padding(0, 1)
	typingStyle          = assistantBubbleStyle.Foreground(lipgloss.Color("245"))
	linkMarkerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	cardStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	cardTitleStyle = lipgloss.NewStyle().Bold(true)
	cardLinkStyle  = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("39"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Background(lipgloss.Color("235")).Padding(0, 2)

	pickerItemStyle     = lipgloss.NewStyle().Padding(0, 1)
	pickerSelectedStyle = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("62")).Foreground(lipgloss.Color("15"))

	inputPromptStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	inputPlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)
