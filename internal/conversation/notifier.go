package conversation

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
)

var _ domain.Notifier = (*CLINotifier)(nil)

var (
	noticeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	urgentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// LineWriter prints one formatted line. display.UI.Printf fits.
type LineWriter func(format string, args ...interface{})

// CLINotifier renders notifications as styled lines.
type CLINotifier struct {
	log   *logger.Logger
	write LineWriter
}

// NewCLINotifier creates a notifier that writes through write, or to
// stdout when write is nil.
func NewCLINotifier(log *logger.Logger, write LineWriter) *CLINotifier {
	if write == nil {
		write = func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stdout, format+"\n", args...)
		}
	}
	return &CLINotifier{log: log, write: write}
}

// Notify shows an ordinary message.
func (n *CLINotifier) Notify(ctx context.Context, message string) error {
	return n.emit(ctx, noticeStyle, "notice", message)
}

// NotifyUrgent shows an error the user should act on.
func (n *CLINotifier) NotifyUrgent(ctx context.Context, message string) error {
	return n.emit(ctx, urgentStyle, "urgent", message)
}

func (n *CLINotifier) emit(ctx context.Context, style lipgloss.Style, kind, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.Debug("%s: %s", kind, message)
	n.write("%s", style.Render(message))
	return nil
}
