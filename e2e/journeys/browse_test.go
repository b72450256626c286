package journeys

import (
	"testing"

	"github.com/artpar/awsbrowse/e2e/harness"
)

func rows(n int) func(*harness.State) bool {
	return func(s *harness.State) bool { return !s.Table.Loading && s.Table.RowCount == n }
}

// TestJourney_ExpandAndCollapse walks into a bucket and back out.
func TestJourney_ExpandAndCollapse(t *testing.T) {
	harness.NewJourney(t, "Expand and collapse a bucket").
		Step("Buckets are listed").
		ExpectTab("Buckets").
		ExpectRowCount(3).
		ExpectSelected("app-assets").
		ExpectOutput("1 Buckets (3)", "app-assets", "audit-logs", "build-cache").

		Step("Expand the first bucket").
		SendKey("l").
		WaitFor(rows(5), 0).
		ExpectExpanded("app-assets").
		ExpectOutput("├─ ▸ css/", "└─   index.html").

		Step("Move onto a child").
		SendKeys("j", "j").
		ExpectSelected("app-assets/index.html").

		Step("Collapse from the child").
		SendKey("h").
		ExpectCollapsed("app-assets").
		ExpectSelected("app-assets").
		ExpectRowCount(3).
		ExpectNoOutput("index.html").

		Run()
}

// TestJourney_NestedPrefixes expands two levels deep.
func TestJourney_NestedPrefixes(t *testing.T) {
	harness.NewJourney(t, "Nested prefixes").
		Step("Expand bucket then prefix").
		SendKey("l").
		WaitFor(rows(5), 0).
		SendKeys("j", "l").
		WaitFor(rows(6), 0).
		ExpectExpanded("app-assets/css/").
		ExpectOutput("├─ ▾ css/", "│  └─   site.css").

		Step("Yank the nested object").
		SendKey("j").
		ExpectSelected("app-assets/css/site.css").
		SendKey("y").
		ExpectClipboard("app-assets/css/site.css").
		ExpectNotification("Copied").

		Run()
}

// TestJourney_FailedLookup shows a placeholder that cannot be selected.
func TestJourney_FailedLookup(t *testing.T) {
	harness.NewJourney(t, "Failed lookup").
		Step("Expand the denied bucket").
		SendKeys("j", "l").
		WaitFor(func(s *harness.State) bool { return s.Table.ErrorRows == 1 }, 0).
		ExpectRowCount(3).
		ExpectOutput("! AccessDenied").

		Step("The cursor skips the placeholder").
		SendKey("j").
		ExpectSelected("build-cache").
		SendKey("k").
		ExpectSelected("audit-logs").

		Step("Collapse drops the placeholder").
		SendKey("h").
		ExpectErrorRows(0).
		ExpectNoOutput("AccessDenied").

		Run()
}

// TestJourney_FilterAndSort narrows then reorders a listing.
func TestJourney_FilterAndSort(t *testing.T) {
	harness.NewJourney(t, "Filter and sort").
		Step("Open the filter and type").
		SendKey("/").
		Type("ca").
		ExpectFilter("ca", true).
		ExpectRowCount(1).
		ExpectOutput("build-cache").

		Step("Keys go to the filter while typing").
		SendKey("q").
		ExpectState(func(t *testing.T, s *harness.State) {
			if s.MainView.Quitting {
				t.Error("q quit while filtering")
			}
		}).
		SendKey("backspace").

		Step("Commit the filter").
		SendKey("enter").
		ExpectFilter("ca", false).
		ExpectOutput("/ ca").

		Step("Clear the filter").
		SendKey("esc").
		ExpectFilter("", false).
		ExpectRowCount(3).

		Step("Cycle the sort column").
		SendKey("s").
		ExpectSort("region", false).
		ExpectOutput("REGION ▲").
		SendKeys("g", "g").
		ExpectSelected("audit-logs").

		Step("Reverse the sort").
		SendKey("S").
		ExpectSort("region", true).
		SendKeys("g", "g").
		ExpectSelected("build-cache").

		Run()
}

// TestJourney_Tabs switches between kinds.
func TestJourney_Tabs(t *testing.T) {
	harness.NewJourney(t, "Switch tabs").
		Step("Next tab").
		SendKey("tab").
		ExpectTab("Stacks").
		ExpectSelected("network").
		ExpectOutput("STATUS", "UPDATE_COMPLETE").

		Step("Jump by number").
		SendKey("4").
		ExpectTab("Roles").
		ExpectRowCount(2).

		Step("Previous tab wraps").
		SendKeys("1", "shift+tab").
		ExpectTab("Roles").

		Step("Expansion is per tab").
		SendKey("2").
		SendKey("l").
		WaitFor(rows(3), 0).
		SendKey("1").
		ExpectRowCount(3).
		ExpectCollapsed("app-assets").

		Run()
}

// TestJourney_HelpAndQuit opens the help overlay and exits.
func TestJourney_HelpAndQuit(t *testing.T) {
	harness.NewJourney(t, "Help and quit").
		Step("Open help").
		SendKey("?").
		ExpectHelp(true).
		ExpectOutput("awsbrowse keys", "next sort column").

		Step("Keys are swallowed by the overlay").
		SendKey("j").
		ExpectHelp(true).
		ExpectSelected("app-assets").

		Step("Close help").
		SendKey("esc").
		ExpectHelp(false).

		Step("Quit").
		SendKey("q").
		ExpectQuit().

		Run()
}
