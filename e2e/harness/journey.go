package harness

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"
)

// Journey represents a user journey test.
type Journey struct {
	t           *testing.T
	name        string
	harness     *E2EHarness
	session     *TUISession
	steps       []*Step
	currentStep int
}

// Step represents a single step in a journey. Actions and assertions run
// in the order they were added.
type Step struct {
	name    string
	actions []func(*TUISession) error
}

// NewJourney creates a new journey test over the default inventory.
func NewJourney(t *testing.T, name string) *Journey {
	return NewJourneyWith(t, name, Config{})
}

// NewJourneyWith creates a new journey test with a custom harness config.
func NewJourneyWith(t *testing.T, name string, cfg Config) *Journey {
	return &Journey{
		t:       t,
		name:    name,
		harness: New(t, cfg),
		steps:   make([]*Step, 0),
	}
}

// Step adds a new step to the journey.
func (j *Journey) Step(name string) *StepBuilder {
	step := &Step{name: name}
	j.steps = append(j.steps, step)
	return &StepBuilder{journey: j, step: step}
}

// Run executes the journey.
func (j *Journey) Run() {
	j.t.Helper()
	j.t.Run(j.name, func(t *testing.T) {
		j.session = j.harness.TUI().Start(t)
		defer j.session.Quit()

		for i, step := range j.steps {
			j.currentStep = i
			t.Logf("Step %d: %s", i+1, step.name)

			for _, action := range step.actions {
				if err := action(j.session); err != nil {
					t.Fatalf("Step %d (%s): %v", i+1, step.name, err)
				}
			}
		}
	})
}

func waitForCondition(s *TUISession, condition func(*State) bool, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		s.Settle()
		if condition(s.CaptureState()) {
			return nil
		}
	}
	return fmt.Errorf("timeout waiting for condition after %v", timeout)
}

// StepBuilder provides a fluent API for building steps.
type StepBuilder struct {
	journey *Journey
	step    *Step
}

func (b *StepBuilder) act(fn func(*TUISession)) *StepBuilder {
	b.step.actions = append(b.step.actions, func(s *TUISession) error {
		fn(s)
		return nil
	})
	return b
}

func (b *StepBuilder) expect(fn func(*testing.T, *TUISession, *State)) *StepBuilder {
	b.step.actions = append(b.step.actions, func(s *TUISession) error {
		fn(s.t, s, s.CaptureState())
		return nil
	})
	return b
}

// SendKey adds a key press action.
func (b *StepBuilder) SendKey(key string) *StepBuilder {
	return b.act(func(s *TUISession) { s.SendKey(key) })
}

// SendKeys adds multiple key press actions.
func (b *StepBuilder) SendKeys(keys ...string) *StepBuilder {
	return b.act(func(s *TUISession) { s.SendKeys(keys...) })
}

// Type adds a typing action.
func (b *StepBuilder) Type(text string) *StepBuilder {
	return b.act(func(s *TUISession) { s.Type(text) })
}

// Resize adds a terminal resize.
func (b *StepBuilder) Resize(width, height int) *StepBuilder {
	return b.act(func(s *TUISession) { s.Resize(width, height) })
}

// Wait adds a pause.
func (b *StepBuilder) Wait(d time.Duration) *StepBuilder {
	return b.act(func(s *TUISession) { s.Wait(d) })
}

// WaitFor waits for condition before the step's next action. A zero
// timeout means the harness timeout.
func (b *StepBuilder) WaitFor(condition func(*State) bool, timeout time.Duration) *StepBuilder {
	if timeout <= 0 {
		timeout = b.journey.harness.timeout
	}
	b.step.actions = append(b.step.actions, func(s *TUISession) error {
		return waitForCondition(s, condition, timeout)
	})
	return b
}

// ExpectTab asserts the title of the active tab.
func (b *StepBuilder) ExpectTab(title string) *StepBuilder {
	return b.expect(func(t *testing.T, _ *TUISession, s *State) {
		t.Helper()
		if s.MainView.ActiveTab != title {
			t.Errorf("Expected tab %q, got %q", title, s.MainView.ActiveTab)
		}
	})
}

// ExpectSelected asserts the id of the selected resource.
func (b *StepBuilder) ExpectSelected(id string) *StepBuilder {
	return b.expect(func(t *testing.T, _ *TUISession, s *State) {
		t.Helper()
		if s.Table.SelectedID != id {
			t.Errorf("Expected selection %q, got %q", id, s.Table.SelectedID)
		}
	})
}

// ExpectExpanded asserts key is expanded.
func (b *StepBuilder) ExpectExpanded(key string) *StepBuilder {
	return b.expect(func(t *testing.T, _ *TUISession, s *State) {
		t.Helper()
		if !slices.Contains(s.Table.Expanded, key) {
			t.Errorf("Expected %q to be expanded, expanded: %v", key, s.Table.Expanded)
		}
	})
}

// ExpectCollapsed asserts key is not expanded.
func (b *StepBuilder) ExpectCollapsed(key string) *StepBuilder {
	return b.expect(func(t *testing.T, _ *TUISession, s *State) {
		t.Helper()
		if slices.Contains(s.Table.Expanded, key) {
			t.Errorf("Expected %q to be collapsed", key)
		}
	})
}

// ExpectRowCount asserts the number of selectable rows.
func (b *StepBuilder) ExpectRowCount(n int) *StepBuilder {
	return b.expect(func(t *testing.T, _ *TUISession, s *State) {
		t.Helper()
		if s.Table.RowCount != n {
			t.Errorf("Expected %d rows, got %d", n, s.Table.RowCount)
		}
	})
}

// ExpectErrorRows asserts the number of error placeholder rows.
func (b *StepBuilder) ExpectErrorRows(n int) *StepBuilder {
	return b.expect(func(t *testing.T, _ *TUISession, s *State) {
		t.Helper()
		if s.Table.ErrorRows != n {
			t.Errorf("Expected %d error rows, got %d", n, s.Table.ErrorRows)
		}
	})
}

// ExpectFilter asserts the committed filter and whether the filter bar is open.
func (b *StepBuilder) ExpectFilter(filter string, editing bool) *StepBuilder {
	return b.expect(func(t *testing.T, _ *TUISession, s *State) {
		t.Helper()
		if s.Table.Filter != filter || s.Table.Filtering != editing {
			t.Errorf("Expected filter %q (editing=%v), got %q (editing=%v)",
				filter, editing, s.Table.Filter, s.Table.Filtering)
		}
	})
}

// ExpectSort asserts the sort key and direction.
func (b *StepBuilder) ExpectSort(key string, desc bool) *StepBuilder {
	return b.expect(func(t *testing.T, _ *TUISession, s *State) {
		t.Helper()
		if s.Table.SortKey != key || s.Table.SortDesc != desc {
			t.Errorf("Expected sort %s (desc=%v), got %s (desc=%v)", key, desc, s.Table.SortKey, s.Table.SortDesc)
		}
	})
}

// ExpectHelp asserts whether the help overlay is shown.
func (b *StepBuilder) ExpectHelp(shown bool) *StepBuilder {
	return b.expect(func(t *testing.T, _ *TUISession, s *State) {
		t.Helper()
		if s.MainView.ShowingHelp != shown {
			t.Errorf("Expected ShowingHelp=%v", shown)
		}
	})
}

// ExpectNotification asserts the status notification contains text.
func (b *StepBuilder) ExpectNotification(text string) *StepBuilder {
	return b.expect(func(t *testing.T, _ *TUISession, s *State) {
		t.Helper()
		if !strings.Contains(s.MainView.Notification, text) {
			t.Errorf("Expected notification containing %q, got %q", text, s.MainView.Notification)
		}
	})
}

// ExpectClipboard asserts the last copied text.
func (b *StepBuilder) ExpectClipboard(text string) *StepBuilder {
	return b.expect(func(t *testing.T, sess *TUISession, _ *State) {
		t.Helper()
		copied := sess.Clipboard()
		if len(copied) == 0 || copied[len(copied)-1] != text {
			t.Errorf("Expected clipboard %q, got %v", text, copied)
		}
	})
}

// ExpectQuit asserts the model asked to exit.
func (b *StepBuilder) ExpectQuit() *StepBuilder {
	return b.expect(func(t *testing.T, _ *TUISession, s *State) {
		t.Helper()
		if !s.MainView.Quitting {
			t.Error("Expected the program to quit")
		}
	})
}

// ExpectOutput asserts the rendered view contains every string.
func (b *StepBuilder) ExpectOutput(expected ...string) *StepBuilder {
	return b.expect(func(t *testing.T, sess *TUISession, _ *State) {
		t.Helper()
		NewAssertions(t).OutputContains(sess.Output(), expected...)
	})
}

// ExpectNoOutput asserts the rendered view contains none of the strings.
func (b *StepBuilder) ExpectNoOutput(unexpected ...string) *StepBuilder {
	return b.expect(func(t *testing.T, sess *TUISession, _ *State) {
		t.Helper()
		NewAssertions(t).OutputNotContains(sess.Output(), unexpected...)
	})
}

// ExpectState adds a custom state assertion.
func (b *StepBuilder) ExpectState(assertion func(*testing.T, *State)) *StepBuilder {
	return b.expect(func(t *testing.T, _ *TUISession, s *State) {
		assertion(t, s)
	})
}

// Step starts a new step (returns to journey to continue chaining).
func (b *StepBuilder) Step(name string) *StepBuilder {
	return b.journey.Step(name)
}

// Run executes the journey (terminal operation).
func (b *StepBuilder) Run() {
	b.journey.Run()
}
