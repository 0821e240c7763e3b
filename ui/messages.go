package ui

import "github.com/lepinkainen/subsorter/subghz"

// SortEventMsg wraps a progress event received from a running organizer
type SortEventMsg struct {
	Event subghz.Event
}

// EventsClosedMsg is sent once the organizer has closed its event channel
type EventsClosedMsg struct{}
