package display

import "github.com/charmbracelet/lipgloss"

// Palette. Soft tones that read on both dark and light terminals.
const (
	colorSlate  = lipgloss.Color("#94a3b8")
	colorSky    = lipgloss.Color("#bae6fd")
	colorMint   = lipgloss.Color("#bbf7d0")
	colorAmber  = lipgloss.Color("#fde68a")
	colorCoral  = lipgloss.Color("#fca5a5")
	colorZinc   = lipgloss.Color("#d4d4d8")
	colorMuted  = lipgloss.Color("#a1a1aa")
	colorDim    = lipgloss.Color("#71717a")
	colorRule   = lipgloss.Color("#52525b")
	colorBarBg  = lipgloss.Color("#27272a")
	colorAccent = colorSlate
)

// BannerStyle renders the startup banner and its footer lines.
var BannerStyle = lipgloss.NewStyle().Foreground(colorSlate)

// Scrollback styles.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorMint)
	headingStyle = lipgloss.NewStyle().Foreground(colorMuted).Underline(true)
	bodyStyle    = lipgloss.NewStyle().Foreground(colorZinc)
	hintStyle    = lipgloss.NewStyle().Foreground(colorDim)
	infoStyle    = lipgloss.NewStyle().Foreground(colorSky)
	errorStyle   = lipgloss.NewStyle().Foreground(colorCoral)
	echoStyle    = lipgloss.NewStyle().Foreground(colorMuted)
)

// Status bar and prompt styles.
var (
	barStyle     = lipgloss.NewStyle().Background(colorBarBg).Foreground(colorMuted)
	barTextStyle = lipgloss.NewStyle().Foreground(colorMuted)
	barRuleStyle = lipgloss.NewStyle().Foreground(colorRule)
	busyStyle    = lipgloss.NewStyle().Foreground(colorAmber)
	signedIn     = lipgloss.NewStyle().Foreground(colorMint)
	signInFailed = lipgloss.NewStyle().Foreground(colorCoral)
	promptStyle  = lipgloss.NewStyle().Foreground(colorAccent)
	cursorStyle  = lipgloss.NewStyle().Foreground(colorAccent)
)
