// Package ui holds the colors, icons and headers shared by the CLI
// commands.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

// Text colors
var (
	Yellow  = color.New(color.FgYellow).SprintFunc()
	Cyan    = color.New(color.FgCyan).SprintFunc()
	Green   = color.New(color.FgGreen).SprintFunc()
	Blue    = color.New(color.FgBlue).SprintFunc()
	Red     = color.New(color.FgRed).SprintFunc()
	Magenta = color.New(color.FgMagenta).SprintFunc()
	Subtle  = color.New(color.FgHiBlack).SprintFunc()
)

// Icons
const (
	IconBlock   = "◆"
	IconCheck   = "✓"
	IconCross   = "✗"
	IconLink    = "↳"
	IconWarning = "⚠"
	IconFrame   = "▣"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#f8fafc")).
	Background(lipgloss.Color("#3b82f6")).
	Padding(0, 1)

// Header renders a title bar
func Header(title string) string {
	return headerStyle.Render(strings.TrimSpace(title))
}

// StatusIcon returns a check or a cross
func StatusIcon(ok bool) string {
	if ok {
		return Green(IconCheck)
	}
	return Red(IconCross)
}

// Warn formats a warning line
func Warn(format string, args ...any) string {
	return Yellow(IconWarning + " " + fmt.Sprintf(format, args...))
}

// Success formats a success line
func Success(format string, args ...any) string {
	return Green(IconCheck + " " + fmt.Sprintf(format, args...))
}

// KeyValue formats a labeled value with the label padded to width
func KeyValue(label string, width int, value any) string {
	return fmt.Sprintf("%s %v", Cyan(fmt.Sprintf("%-*s", width, label+":")), value)
}
