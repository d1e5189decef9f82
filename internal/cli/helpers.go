package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/steveraffner/epicevents/internal/apperror"
)

// eventTimeLayout is the accepted format for event start and end flags.
const eventTimeLayout = "2006-01-02 15:04"

// promptPassword reads a password from the terminal without echo. Falls
// back to a plain line read when stdin is not a terminal (piped input in
// scripts and tests).
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return line, nil
}

// parseEventTime parses a "YYYY-MM-DD HH:MM" flag value in local time.
func parseEventTime(value string) (time.Time, error) {
	t, err := time.ParseInLocation(eventTimeLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, apperror.NewValidation(
			fmt.Sprintf("invalid time %q, expected format %q", value, eventTimeLayout))
	}
	return t, nil
}

// renderTable writes rows as an aligned table. The header row is styled;
// alignment is handled by tabwriter.
func renderTable(w io.Writer, header []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, titleStyle.Render(strings.Join(header, "\t")))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

// formatAmount renders a monetary value with two decimals.
func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// formatOptionalID renders a nullable ID column.
func formatOptionalID(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *id)
}

// yesNo renders a boolean column.
func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
