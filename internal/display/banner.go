package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

//go:embed banner.txt
var bannerRaw string

// RenderBanner returns the banner art and tagline centred for the current
// terminal width. To change the art replace banner.txt.
func RenderBanner(tagline string) string {
	art := strings.TrimRight(bannerRaw, "\n")
	if art == "" {
		return ""
	}

	block := BannerStyle.Render(art)
	if tagline != "" {
		block = lipgloss.JoinVertical(lipgloss.Center, block, "", hintStyle.Render(tagline))
	}
	return lipgloss.PlaceHorizontal(termWidth(), lipgloss.Center, block) + "\n"
}

// termWidth returns the current terminal column count, or 80 as fallback.
func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}
