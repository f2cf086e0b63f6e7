// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output. Tuned for dark terminal backgrounds.
const (
	// ColorPrimary is purple - titles and headers.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray - subtitles and de-emphasized content.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green - successful runs.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red - failed runs.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber - cancelled runs and warnings.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue - check names and config keys.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages and positive indicators.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warning messages and caution indicators.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for check names, keys and other identifiers.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// listItemStyle indents entries of 'conu probe checks'.
	listItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)
)
