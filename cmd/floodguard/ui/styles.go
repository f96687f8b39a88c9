// Package ui renders floodguard command output for the terminal.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	Navy  = lipgloss.AdaptiveColor{Light: "#101F38", Dark: "#f2f2f2"}
	Water = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#64B5F6"}
	Grey  = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"}
	Red   = lipgloss.Color("#e53935")
	Green = lipgloss.Color("#8BC34A")
)

// Styles groups the styles used by every command.
type Styles struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Link    lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
}

// DefaultStyles returns the standard styles.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(Water).MarginBottom(1),
		Bold:    lipgloss.NewStyle().Bold(true).Foreground(Navy),
		Body:    lipgloss.NewStyle().Foreground(Navy),
		Muted:   lipgloss.NewStyle().Foreground(Grey),
		Link:    lipgloss.NewStyle().Foreground(Water).Underline(true),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(Red),
		Success: lipgloss.NewStyle().Foreground(Green),
	}
}
