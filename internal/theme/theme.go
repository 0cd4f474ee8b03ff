// Package theme provides the Lip Gloss color palette and reusable styles
// for the console TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Connection colors.
var (
	ColorConnected  = lipgloss.Color("#22c55e")
	ColorConnecting = lipgloss.Color("#d97706")
	ColorLost       = lipgloss.Color("#dc2626")
	ColorSuspended  = lipgloss.Color("#6b7280")
)

// Notification colors, keyed by the notification type the server sends.
var (
	ColorInfo    = lipgloss.Color("#3b82f6")
	ColorSuccess = lipgloss.Color("#16a34a")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// Render mode colors.
var (
	ColorPreview = lipgloss.Color("#a855f7")
	ColorView    = lipgloss.Color("#06b6d4")
	ColorEdit    = lipgloss.Color("#f59e0b")
	ColorSticky  = lipgloss.Color("#67e8f9")
)

// UI chrome colors.
var (
	ColorBorder = lipgloss.Color("#4b5563")
	ColorDimmed = lipgloss.Color("#6b7280")
	ColorBright = lipgloss.Color("#f9fafb")
	ColorBg     = lipgloss.Color("#111827")
	ColorAccent = lipgloss.Color("#2563eb")
)

// NotificationColor returns the color for a notification type ("info",
// "success", "warning", "danger" or "error").
func NotificationColor(kind string) lipgloss.Color {
	switch kind {
	case "success":
		return ColorSuccess
	case "warning":
		return ColorWarning
	case "danger", "error":
		return ColorDanger
	default:
		return ColorInfo
	}
}

// ModeColor returns the color for a render mode name.
func ModeColor(mode string) lipgloss.Color {
	switch mode {
	case "Preview":
		return ColorPreview
	case "StickyPreview":
		return ColorSticky
	case "View":
		return ColorView
	case "Edit", "Help":
		return ColorEdit
	default:
		return ColorDimmed
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleActiveTab = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright).
		Background(ColorAccent).
		Padding(0, 1)

	StyleTab = lipgloss.NewStyle().
		Foreground(ColorDimmed).
		Padding(0, 1)
)

// Truncate shortens s to max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}
