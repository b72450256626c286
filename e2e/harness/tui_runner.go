package harness

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"

	"github.com/artpar/awsbrowse/internal/source"
	"github.com/artpar/awsbrowse/internal/source/fixture"
	"github.com/artpar/awsbrowse/internal/source/wsfeed"
	"github.com/artpar/awsbrowse/internal/tui/components"
	"github.com/artpar/awsbrowse/internal/tui/views"
)

// idle is how long Settle waits for another message before returning.
const idle = 50 * time.Millisecond

// TUIRunner provides TUI testing capabilities.
type TUIRunner struct {
	harness *E2EHarness
}

// TUISession is a MainView driven the way tea.Program drives it: commands
// run on their own goroutines and their messages are fed back through
// Update on the test goroutine.
type TUISession struct {
	runner *TUIRunner
	model  *views.MainView
	t      *testing.T
	ctx    context.Context
	cancel context.CancelFunc
	src    source.Source
	msgs   chan tea.Msg

	clipboard []string
	quit      bool
	closed    bool
}

// Start starts a session over the harness inventory at 120x40.
func (r *TUIRunner) Start(t *testing.T) *TUISession {
	return r.StartWithSize(t, 120, 40)
}

// StartWithSize starts a session over the harness inventory.
func (r *TUIRunner) StartWithSize(t *testing.T, width, height int) *TUISession {
	t.Helper()
	s := r.newSession(t, r.openFixture(t), width, height, "fixture "+r.harness.InventoryPath())
	s.boot()
	return s
}

// StartWatching starts a session that reloads the inventory file when it
// changes.
func (r *TUIRunner) StartWatching(t *testing.T) *TUISession {
	t.Helper()
	src := r.openFixture(t)
	s := r.newSession(t, src, 120, 40, "fixture "+r.harness.InventoryPath())
	changed, err := src.Watch(s.ctx, logr.Discard(), 20*time.Millisecond)
	if err != nil {
		t.Fatalf("failed to watch inventory: %v", err)
	}
	s.model.SetWatch(changed)
	s.boot()
	return s
}

// StartWithAgent starts a session browsing the harness inventory through a
// websocket agent.
func (r *TUIRunner) StartWithAgent(t *testing.T) *TUISession {
	t.Helper()
	url := r.harness.StartAgent()
	ctx, cancel := context.WithTimeout(context.Background(), r.harness.timeout)
	defer cancel()
	client, err := wsfeed.Dial(ctx, url, wsfeed.DefaultConfig(), logr.Discard())
	if err != nil {
		t.Fatalf("failed to dial agent: %v", err)
	}
	s := r.newSession(t, client, 120, 40, "agent "+url)
	s.boot()
	return s
}

func (r *TUIRunner) openFixture(t *testing.T) *fixture.Source {
	t.Helper()
	src, err := fixture.Open(r.harness.InventoryPath())
	if err != nil {
		t.Fatalf("failed to open inventory: %v", err)
	}
	return src
}

func (r *TUIRunner) newSession(t *testing.T, src source.Source, width, height int, label string) *TUISession {
	ctx, cancel := context.WithCancel(context.Background())
	s := &TUISession{
		runner: r,
		t:      t,
		ctx:    ctx,
		cancel: cancel,
		src:    src,
		msgs:   make(chan tea.Msg, 256),
	}
	s.model = views.NewMainView(ctx, src, components.TableOptions{Logger: logr.Discard()})
	s.model.SetSourceLabel(label)
	s.model.SetClipboard(func(text string) error {
		s.clipboard = append(s.clipboard, text)
		return nil
	})
	s.model.SetSize(width, height)
	t.Cleanup(s.Quit)
	return s
}

// boot runs Init and waits for the first listings.
func (s *TUISession) boot() {
	s.run(s.model.Init())
	s.Settle()
}

// run starts cmd the way tea.Program does.
func (s *TUISession) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		msg := cmd()
		if msg == nil {
			return
		}
		select {
		case s.msgs <- msg:
		case <-s.ctx.Done():
		}
	}()
}

// update feeds one message through the model.
func (s *TUISession) update(msg tea.Msg) {
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, cmd := range msg {
			s.run(cmd)
		}
		return
	case tea.QuitMsg:
		s.quit = true
		return
	case spinner.TickMsg:
		// Animation only.
		return
	}
	updated, cmd := s.model.Update(msg)
	s.model = updated.(*views.MainView)
	s.run(cmd)
}

// Settle processes messages until none arrive for a short while.
func (s *TUISession) Settle() *TUISession {
	for {
		select {
		case msg := <-s.msgs:
			s.update(msg)
		case <-time.After(idle):
			return s
		}
	}
}

// SendKey sends a key press and settles.
func (s *TUISession) SendKey(key string) *TUISession {
	s.update(parseKeyMsg(key))
	return s.Settle()
}

// SendKeys sends multiple key presses.
func (s *TUISession) SendKeys(keys ...string) *TUISession {
	for _, key := range keys {
		s.SendKey(key)
	}
	return s
}

// Type sends a sequence of rune keys.
func (s *TUISession) Type(text string) *TUISession {
	for _, r := range text {
		s.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return s.Settle()
}

// Resize sends a window size message.
func (s *TUISession) Resize(width, height int) *TUISession {
	s.update(tea.WindowSizeMsg{Width: width, Height: height})
	return s.Settle()
}

// Wait pauses for the specified duration, processing messages meanwhile.
func (s *TUISession) Wait(d time.Duration) *TUISession {
	deadline := time.After(d)
	for {
		select {
		case msg := <-s.msgs:
			s.update(msg)
		case <-deadline:
			return s
		}
	}
}

// WaitFor processes messages until cond holds or the harness timeout passes.
func (s *TUISession) WaitFor(cond func(*TUISession) bool) bool {
	deadline := time.After(s.runner.harness.timeout)
	for !cond(s) {
		select {
		case msg := <-s.msgs:
			s.update(msg)
		case <-time.After(idle):
		case <-deadline:
			return false
		}
	}
	return true
}

// WaitForOutput waits for specific text in output.
func (s *TUISession) WaitForOutput(text string) error {
	if s.WaitFor(func(s *TUISession) bool { return strings.Contains(s.Output(), text) }) {
		return nil
	}
	return &TimeoutError{text: text, timeout: s.runner.harness.timeout}
}

// Output returns the current TUI output.
func (s *TUISession) Output() string {
	return s.model.View()
}

// Quit stops every command the session started.
func (s *TUISession) Quit() {
	if s.closed {
		return
	}
	s.closed = true
	s.model.Close()
	s.cancel()
	s.src.Close()
}

// Quitting reports whether the model asked the program to exit.
func (s *TUISession) Quitting() bool {
	return s.quit
}

// Clipboard returns everything copied so far.
func (s *TUISession) Clipboard() []string {
	return s.clipboard
}

// Model returns the underlying MainView for direct assertions.
func (s *TUISession) Model() *views.MainView {
	return s.model
}

// Active returns the table of the selected tab.
func (s *TUISession) Active() *components.ResourceTable {
	return s.model.Active()
}

// ShowingHelp returns true if help overlay is visible.
func (s *TUISession) ShowingHelp() bool {
	return s.model.ShowingHelp()
}

// TimeoutError represents a timeout waiting for output.
type TimeoutError struct {
	text    string
	timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return "timeout after " + e.timeout.String() + " waiting for: " + e.text
}

// parseKeyMsg converts key string to tea.KeyMsg.
func parseKeyMsg(key string) tea.KeyMsg {
	switch strings.ToLower(key) {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "esc", "escape":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	case "ctrl+f":
		return tea.KeyMsg{Type: tea.KeyCtrlF}
	case "ctrl+b":
		return tea.KeyMsg{Type: tea.KeyCtrlB}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	case "pgup":
		return tea.KeyMsg{Type: tea.KeyPgUp}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}
