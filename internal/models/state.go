package models

import (
	"crypto/rand"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

// UIMode selects which pane layout the UI renders. The core only carries
// the value; it constrains which Tab fields are meaningful.
type UIMode string

const (
	ModeSinglePane UIMode = "single"
	ModeSplitPane  UIMode = "split"
)

// WindowGeometry records window size and position. Advisory only; the core
// never validates it against display bounds.
type WindowGeometry struct {
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	X         int  `json:"x"`
	Y         int  `json:"y"`
	Maximized bool `json:"maximized"`
}

// DefaultGeometry matches the initial window the UI opens with.
func DefaultGeometry() WindowGeometry {
	return WindowGeometry{Width: 1200, Height: 800}
}

// Tab is one browsing context: a current directory, a selection within it,
// and back/forward navigation stacks.
type Tab struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CurrentPath string    `json:"current_path"`
	CreatedAt   time.Time `json:"created_at"`

	// Selection holds entry names within CurrentPath. Cleared whenever
	// CurrentPath changes.
	Selection map[string]bool `json:"selection,omitempty"`

	// History holds paths behind the current one, oldest first. Future
	// holds paths ahead after going back; navigating anywhere new clears it.
	History []string `json:"history,omitempty"`
	Future  []string `json:"future,omitempty"`
}

// NewTabID returns a process-unique, lexically sortable tab identifier.
func NewTabID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewTab creates a tab browsing path, titled after the path's base name.
func NewTab(path string) Tab {
	return Tab{
		ID:          NewTabID(),
		Title:       TabTitle(path),
		CurrentPath: path,
		CreatedAt:   time.Now().UTC(),
		Selection:   make(map[string]bool),
	}
}

// TabTitle derives a display title from a directory path.
func TabTitle(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return path
	}
	return base
}

// Clone returns a deep copy of the tab.
func (t Tab) Clone() Tab {
	out := t
	out.Selection = make(map[string]bool, len(t.Selection))
	for k, v := range t.Selection {
		out.Selection[k] = v
	}
	out.History = append([]string(nil), t.History...)
	out.Future = append([]string(nil), t.Future...)
	return out
}

// AppState is the root aggregate of session state. It is owned exclusively
// by the state store; everyone else sees copies.
type AppState struct {
	Tabs           []Tab          `json:"tabs"`
	ActiveTabIndex int            `json:"active_tab_index"`
	Window         WindowGeometry `json:"window"`
	Mode           UIMode         `json:"ui_mode"`
}

// DefaultState returns a state with a single tab at startPath.
func DefaultState(startPath string) AppState {
	return AppState{
		Tabs:           []Tab{NewTab(startPath)},
		ActiveTabIndex: 0,
		Window:         DefaultGeometry(),
		Mode:           ModeSinglePane,
	}
}

// Clone returns a deep copy safe for concurrent reading.
func (s AppState) Clone() AppState {
	out := s
	out.Tabs = make([]Tab, len(s.Tabs))
	for i, t := range s.Tabs {
		out.Tabs[i] = t.Clone()
	}
	return out
}

// ActiveTab returns the currently active tab. The returned pointer
// aliases the Tabs backing array.
func (s AppState) ActiveTab() *Tab {
	if s.ActiveTabIndex < 0 || s.ActiveTabIndex >= len(s.Tabs) {
		return nil
	}
	return &s.Tabs[s.ActiveTabIndex]
}

// TabByID finds a tab and its index by identifier.
func (s AppState) TabByID(id string) (*Tab, int) {
	for i := range s.Tabs {
		if s.Tabs[i].ID == id {
			return &s.Tabs[i], i
		}
	}
	return nil, -1
}

// Validate checks the structural invariants: at least one tab, and an
// active index within range.
func (s AppState) Validate() error {
	if len(s.Tabs) == 0 {
		return ErrLastTab
	}
	if s.ActiveTabIndex < 0 || s.ActiveTabIndex >= len(s.Tabs) {
		return ErrTabNotFound
	}
	return nil
}
