// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] keeps a status bar (loading spinner, auth state, result counts)
// and an input line pinned to the bottom of the terminal. Everything else
// is printed into the scrollback above it through the program, so output
// from background goroutines never tears the prompt.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hammamikhairi/culina/internal/domain"
)

const (
	promptText   = "culina> "
	pollInterval = 200 * time.Millisecond
	historySize  = 100
)

// Status is what the status bar shows. It is polled, so the func that
// produces it must be cheap and safe for concurrent use.
type Status struct {
	Loading   bool
	Auth      domain.AuthSession
	Results   int
	Favorites int
	Mine      int
}

// StatusFunc produces the current status.
type StatusFunc func() Status

// UI owns the terminal while Run is active.
//
// Other goroutines may print and read [UI.InputChan] once [UI.WaitReady]
// has returned. Before Run starts (and after it ends) the print helpers
// fall back to stdout.
type UI struct {
	program *tea.Program
	status  StatusFunc
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	done    atomic.Bool
}

// NewUI creates the display. A nil status shows an empty bar.
func NewUI(status StatusFunc) *UI {
	if status == nil {
		status = func() Status { return Status{} }
	}
	return &UI{
		status:  status,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

func (u *UI) live() bool { return u.program != nil && !u.done.Load() }

// Println prints above the prompt.
func (u *UI) Println(a ...interface{}) {
	if u.live() {
		u.program.Println(a...)
		return
	}
	fmt.Println(a...)
}

// Printf prints one formatted line above the prompt.
func (u *UI) Printf(format string, a ...interface{}) {
	if u.live() {
		u.program.Printf(format, a...)
		return
	}
	fmt.Printf(format+"\n", a...)
}

// PrintLines prints pre-rendered lines as one block.
func (u *UI) PrintLines(lines []string) {
	u.Println(strings.Join(lines, "\n"))
}

// PrintInfo prints a confirmation.
func (u *UI) PrintInfo(text string) { u.Println(infoStyle.Render("  " + text)) }

// PrintHint prints a dimmed line.
func (u *UI) PrintHint(text string) { u.Println(hintStyle.Render("  " + text)) }

// PrintUrgent prints an error.
func (u *UI) PrintUrgent(text string) { u.Println(errorStyle.Render("  " + text)) }

// PrintUserInput echoes a submitted command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("culina") + hintStyle.Render("> ") + echoStyle.Render(text))
}

// InputChan yields submitted input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// WaitReady blocks until the event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Quit asks the event loop to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// Run starts the event loop and blocks until quit.
func (u *UI) Run() error {
	u.program = tea.NewProgram(newModel(u))
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Model ────────────────────────────────────────────────────────

type keyMap struct {
	Submit key.Binding
	Prev   key.Binding
	Next   key.Binding
	Clear  key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
	Prev:   key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "previous")),
	Next:   key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "next")),
	Clear:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
	Quit:   key.NewBinding(key.WithKeys("ctrl+c", "ctrl+d"), key.WithHelp("ctrl+c", "quit")),
}

type pollMsg struct{}

type model struct {
	ui      *UI
	input   textinput.Model
	spin    spinner.Model
	current Status
	width   int

	history []string
	cursor  int // index into history while browsing; len(history) when not
	draft   string
}

func newModel(u *UI) model {
	ti := textinput.New()
	// A plain prompt keeps textinput's width math right; styled prompts
	// add invisible bytes to its offset calculations.
	ti.Prompt = promptText
	ti.PromptStyle = promptStyle
	ti.TextStyle = echoStyle
	ti.Cursor.Style = cursorStyle
	ti.Placeholder = "search a dish, or type help"
	ti.CharLimit = 500
	ti.Width = 60
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = busyStyle

	return model{ui: u, input: ti, spin: sp}
}

func (m model) Init() tea.Cmd {
	ready := m.ui.readyCh
	return tea.Batch(
		textinput.Blink,
		m.spin.Tick,
		poll(),
		func() tea.Msg { close(ready); return nil },
		tea.SetWindowTitle("culina"),
	)
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Submit):
			return m.submit()
		case key.Matches(msg, keys.Prev):
			m.recall(-1)
			return m, nil
		case key.Matches(msg, keys.Next):
			m.recall(1)
			return m, nil
		case key.Matches(msg, keys.Clear):
			m.input.Reset()
			m.cursor = len(m.history)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(promptText) {
			m.input.Width = msg.Width - len(promptText) - 1
		}
		return m, nil

	case pollMsg:
		m.current = m.ui.status()
		return m, poll()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) submit() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	m.input.Reset()
	m.draft = ""
	if strings.TrimSpace(line) == "" {
		return m, nil
	}

	if n := len(m.history); n == 0 || m.history[n-1] != line {
		m.history = append(m.history, line)
		if len(m.history) > historySize {
			m.history = m.history[len(m.history)-historySize:]
		}
	}
	m.cursor = len(m.history)

	m.ui.inputCh <- line
	// Echo from a Cmd; printing inside Update would block on the
	// program's own message queue.
	ui := m.ui
	return m, func() tea.Msg {
		ui.PrintUserInput(line)
		return nil
	}
}

// recall moves through earlier input. Moving past the newest entry
// restores what was being typed.
func (m *model) recall(delta int) {
	if len(m.history) == 0 {
		return
	}
	if m.cursor == len(m.history) {
		m.draft = m.input.Value()
	}
	next := m.cursor + delta
	if next < 0 || next > len(m.history) {
		return
	}
	m.cursor = next
	if m.cursor == len(m.history) {
		m.input.SetValue(m.draft)
	} else {
		m.input.SetValue(m.history[m.cursor])
	}
	m.input.CursorEnd()
}

func (m model) View() string {
	return m.renderBar() + "\n\n" + m.input.View()
}

func (m model) renderBar() string {
	s := m.current
	var parts []string

	if s.Loading {
		parts = append(parts, m.spin.View()+busyStyle.Render(" loading"))
	}

	auth := AuthLine(s.Auth)
	switch s.Auth.Status {
	case domain.AuthAuthenticated:
		auth = signedIn.Render(auth)
	case domain.AuthError:
		auth = signInFailed.Render(auth)
	default:
		auth = barTextStyle.Render(auth)
	}
	parts = append(parts, auth,
		barTextStyle.Render(fmt.Sprintf("results %d", s.Results)),
		barTextStyle.Render(fmt.Sprintf("favorites %d", s.Favorites)),
		barTextStyle.Render(fmt.Sprintf("mine %d", s.Mine)),
	)

	w := m.width
	if w <= 0 {
		w = 80
	}
	return barStyle.Width(w).Render(" " + strings.Join(parts, barRuleStyle.Render("  │  ")) + " ")
}
