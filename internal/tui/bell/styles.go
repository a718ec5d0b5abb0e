package bell

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/ecopulse/internal/core/notify"
)

const (
	iconBell   = "\uf0f3" // nf-fa-bell
	iconDot    = "●"
	iconClock  = "\uf017" // nf-fa-clock
	dropdownW  = 56
	maxToasts  = 3
	toastWidth = 44
)

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#7aa2f7"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#565f89"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#16a34a", Dark: "#9ece6a"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#ca8a04", Dark: "#e0af68"}
	colorError   = lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f7768e"}
	colorUnread  = lipgloss.AdaptiveColor{Light: "#eff6ff", Dark: "#1f2335"}
)

var (
	bellStyle  = lipgloss.NewStyle().Bold(true)
	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(colorError).
			Padding(0, 1)

	dropdownStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1).
			Width(dropdownW)
	headerStyle   = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	titleStyle    = lipgloss.NewStyle().Bold(true)
	messageStyle  = lipgloss.NewStyle()
	timeStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	emptyStyle    = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	unreadStyle   = lipgloss.NewStyle().Background(colorUnread)
	selectedStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(colorPrimary).
			PaddingLeft(1)
	itemStyle = lipgloss.NewStyle().PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().Foreground(colorMuted)
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(colorError).
			Padding(0, 1)

	toastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(toastWidth)
)

func kindColor(k notify.Kind) lipgloss.TerminalColor {
	switch k {
	case notify.KindSuccess:
		return colorSuccess
	case notify.KindWarning:
		return colorWarning
	case notify.KindError:
		return colorError
	default:
		return colorPrimary
	}
}

func kindDot(k notify.Kind) string {
	return lipgloss.NewStyle().Foreground(kindColor(k)).Render(iconDot)
}
