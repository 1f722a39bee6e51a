package models

import "time"

// EventType defines state-change event types.
type EventType string

const (
	EventTabAdded         EventType = "tab_added"
	EventTabRemoved       EventType = "tab_removed"
	EventTabActivated     EventType = "tab_activated"
	EventTabNavigated     EventType = "tab_navigated"
	EventListingReady     EventType = "listing_ready"
	EventSelectionChanged EventType = "selection_changed"
	EventWindowChanged    EventType = "window_changed"
	EventModeChanged      EventType = "mode_changed"
	EventStateLoaded      EventType = "state_loaded"
	EventSettingsReloaded EventType = "settings_reloaded"
)

// StateChangeEvent describes one applied mutation. It carries enough
// payload for a consumer to react without re-reading the whole state.
type StateChangeEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// TabID and Path identify the affected tab and its directory, where
	// the event concerns one.
	TabID string `json:"tab_id,omitempty"`
	Path  string `json:"path,omitempty"`

	// ActiveTabIndex is the index after the mutation.
	ActiveTabIndex int `json:"active_tab_index"`

	// EntryCount is set on listing events.
	EntryCount int `json:"entry_count,omitempty"`
}
