package harness

import (
	"github.com/artpar/awsbrowse/internal/browser"
)

// State represents a snapshot of the TUI state for verification.
type State struct {
	MainView *MainViewState
	Table    *TableState
}

// MainViewState captures the main view state.
type MainViewState struct {
	ActiveTab    string
	TabIndex     int
	ShowingHelp  bool
	Notification string
	Quitting     bool
}

// TableState captures the active resource table.
type TableState struct {
	Kind         string
	Loading      bool
	Filtering    bool
	Filter       string
	SortKey      string
	SortDesc     bool
	ItemCount    int
	RowCount     int
	Selected     int
	SelectedID   string
	SelectedName string
	Expanded     []string
	Page         int
	Pages        int
	ErrorRows    int
	ListError    string
}

// CaptureState captures the current state of the TUI session.
func (s *TUISession) CaptureState() *State {
	return &State{
		MainView: s.captureMainViewState(),
		Table:    s.captureTableState(),
	}
}

func (s *TUISession) captureMainViewState() *MainViewState {
	mv := s.model
	state := &MainViewState{
		ShowingHelp:  mv.ShowingHelp(),
		Notification: mv.Notification(),
		Quitting:     s.quit,
	}
	for i, tbl := range mv.Tables() {
		if tbl == mv.Active() {
			state.ActiveTab = tbl.Title()
			state.TabIndex = i
		}
	}
	return state
}

func (s *TUISession) captureTableState() *TableState {
	tbl := s.model.Active()
	if tbl == nil {
		return &TableState{}
	}
	b := tbl.Browser()
	key, dir := b.Sort()

	state := &TableState{
		Kind:      string(tbl.Kind()),
		Loading:   tbl.Loading(),
		Filtering: tbl.Filtering(),
		Filter:    b.Filter(),
		SortKey:   key,
		SortDesc:  dir == browser.SortDesc,
		ItemCount: len(b.Items()),
		RowCount:  b.TotalRows(),
		Selected:  b.Selected(),
		Expanded:  b.ExpandedKeys(),
		Page:      b.PageIndex(),
		Pages:     b.TotalPages(),
	}
	if err := tbl.ListErr(); err != nil {
		state.ListError = err.Error()
	}
	if row, ok := b.SelectedRow(); ok {
		state.SelectedID = row.Item.ID
		state.SelectedName = row.Item.Label()
	}
	for _, row := range b.Rows() {
		if row.Kind == browser.RowError {
			state.ErrorRows++
		}
	}
	return state
}
