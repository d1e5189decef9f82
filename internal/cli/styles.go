// Centralized styling for all CLI commands. Commands use these shared
// styles instead of defining their own. Colors degrade automatically on
// non-TTY output and respect NO_COLOR.
package cli

import "github.com/charmbracelet/lipgloss"

var (
	// titleStyle is used for section headers.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// labelStyle is used for field labels.
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14)

	// successStyle is used for confirmation messages.
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	// errorStyle is used for failure messages.
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)
