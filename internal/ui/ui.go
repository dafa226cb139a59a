// Package ui provides the styled glyphs and accents used by sdb command
// output. Styling degrades to plain text when the terminal reports no
// color support or NO_COLOR is set.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

var colorEnabled = detectColor()

func detectColor() bool {
	if termenv.EnvNoColor() {
		return false
	}
	return termenv.EnvColorProfile() != termenv.Ascii
}

// RenderAccent styles a headline or progress line.
func RenderAccent(s string) string {
	if !colorEnabled {
		return s
	}
	return accentStyle.Render(s)
}

// RenderPass styles a success marker.
func RenderPass(s string) string {
	if !colorEnabled {
		return s
	}
	return passStyle.Render(s)
}

// RenderWarn styles a warning marker.
func RenderWarn(s string) string {
	if !colorEnabled {
		return s
	}
	return warnStyle.Render(s)
}

// RenderFail styles a failure marker.
func RenderFail(s string) string {
	if !colorEnabled {
		return s
	}
	return failStyle.Render(s)
}

// RenderDim styles secondary detail.
func RenderDim(s string) string {
	if !colorEnabled {
		return s
	}
	return dimStyle.Render(s)
}
