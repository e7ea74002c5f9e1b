package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette holds the terminal colors a theme draws with
type Palette struct {
	Success lipgloss.TerminalColor
	Error   lipgloss.TerminalColor
	Primary lipgloss.TerminalColor
	Info    lipgloss.TerminalColor
	Muted   lipgloss.TerminalColor
	Warning lipgloss.TerminalColor
	Accent  lipgloss.TerminalColor
	Default lipgloss.TerminalColor
}

// ansiPalette uses the 16 base terminal colors so user schemes apply
var ansiPalette = Palette{
	Success: lipgloss.AdaptiveColor{Light: "2", Dark: "2"},
	Error:   lipgloss.AdaptiveColor{Light: "1", Dark: "1"},
	Primary: lipgloss.AdaptiveColor{Light: "5", Dark: "5"},
	Info:    lipgloss.AdaptiveColor{Light: "6", Dark: "6"},
	Muted:   lipgloss.AdaptiveColor{Light: "8", Dark: "8"},
	Warning: lipgloss.AdaptiveColor{Light: "3", Dark: "3"},
	Accent:  lipgloss.AdaptiveColor{Light: "4", Dark: "4"},
	Default: lipgloss.AdaptiveColor{Light: "0", Dark: "7"},
}

var plainPalette = Palette{
	Success: lipgloss.NoColor{},
	Error:   lipgloss.NoColor{},
	Primary: lipgloss.NoColor{},
	Info:    lipgloss.NoColor{},
	Muted:   lipgloss.NoColor{},
	Warning: lipgloss.NoColor{},
	Accent:  lipgloss.NoColor{},
	Default: lipgloss.NoColor{},
}

var (
	ColorMuted   lipgloss.TerminalColor
	ColorPrimary lipgloss.TerminalColor
	ColorDefault lipgloss.TerminalColor

	StyleSuccess lipgloss.Style
	StyleError   lipgloss.Style
	StylePrimary lipgloss.Style
	StyleInfo    lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleWarning lipgloss.Style
	StyleAccent  lipgloss.Style
	StyleTitle   lipgloss.Style
	StyleHeader  lipgloss.Style
	StyleBold    lipgloss.Style

	StyleTableHeader lipgloss.Style
	StyleTableRow    lipgloss.Style
	StyleTableRowAlt lipgloss.Style
	StyleTableBorder lipgloss.Style
)

// Status icons
const (
	IconSuccess = "✔"
	IconError   = "✘"
	IconRocket  = "🚀"
	IconInfo    = "ℹ"
	IconWarning = "⚠"
	IconAsset   = "📦"
	IconKey     = "🔑"
	IconTrash   = "🗑"
)

func init() {
	SetTheme("auto")
}

// SetTheme applies a color theme: "auto", "dark", "light" or "none".
// Unknown names behave like "auto".
func SetTheme(theme string) {
	palette := ansiPalette
	switch theme {
	case "light":
		lipgloss.SetHasDarkBackground(false)
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "none":
		palette = plainPalette
	}
	applyPalette(palette)
}

func applyPalette(p Palette) {
	ColorMuted, ColorPrimary, ColorDefault = p.Muted, p.Primary, p.Default

	fg := func(c lipgloss.TerminalColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	StyleSuccess = fg(p.Success).Bold(true)
	StyleError = fg(p.Error).Bold(true)
	StylePrimary = fg(p.Primary).Bold(true)
	StyleInfo = fg(p.Info)
	StyleMuted = fg(p.Muted)
	StyleWarning = fg(p.Warning).Bold(true)
	StyleAccent = fg(p.Accent)
	StyleTitle = StylePrimary.Underline(true)
	StyleHeader = StylePrimary
	StyleBold = lipgloss.NewStyle().Bold(true)

	StyleTableHeader = StylePrimary.Align(lipgloss.Left)
	StyleTableRow = fg(p.Default)
	StyleTableRowAlt = fg(p.Default).Faint(true)
	StyleTableBorder = StyleMuted
}

func withIcon(style lipgloss.Style, icon, msg string) string {
	return style.Render(icon + " " + msg)
}

// FormatSuccess returns a success message with icon
func FormatSuccess(msg string) string { return withIcon(StyleSuccess, IconSuccess, msg) }

// FormatError returns an error message with icon
func FormatError(msg string) string { return withIcon(StyleError, IconError, msg) }

// FormatInfo returns an info message with icon
func FormatInfo(msg string) string { return withIcon(StyleInfo, IconInfo, msg) }

// FormatWarning returns a warning message with icon
func FormatWarning(msg string) string { return withIcon(StyleWarning, IconWarning, msg) }

// FormatRocket marks the start of a longer action
func FormatRocket(msg string) string { return withIcon(StylePrimary, IconRocket, msg) }

// FormatAsset heads asset listings
func FormatAsset(msg string) string { return withIcon(StyleAccent.Bold(true), IconAsset, msg) }

// FormatKey shows an identity
func FormatKey(msg string) string { return withIcon(StylePrimary, IconKey, msg) }

// FormatDeleted reports removed records
func FormatDeleted(msg string) string { return withIcon(StyleWarning, IconTrash, msg) }

// FormatTitle returns a formatted title
func FormatTitle(title string) string {
	return StyleTitle.Render(title)
}

// FormatMuted returns muted/subtle text
func FormatMuted(text string) string {
	return StyleMuted.Render(text)
}
