package tui

import (
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	ColorPrimary   = lipgloss.Color("#0EA5E9") // Sky blue - main accent
	ColorSecondary = lipgloss.Color("#F59E0B") // Amber - secondary accent

	ColorText   = lipgloss.Color("#F8FAFC") // Bright white
	ColorMuted  = lipgloss.Color("#94A3B8") // Slate gray
	ColorSubtle = lipgloss.Color("#64748B") // Darker gray
)

var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

const logoASCII = `
__   __  ___  __  __ _  _ __  __   __
\ \ / / / _ \ \ \/ /(_)| '_ \ \ \ / /
 \ V / | (_) | >  < | || | | | \ V /
  \_/   \___/ /_/\_\|_||_| |_|  \_/  `

// Logo returns the voxinv ASCII art header.
func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
