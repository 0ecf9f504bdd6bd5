package events

import "time"

// RegistrationOpen reports whether the event accepts registrations at
// the given instant. A server-computed registrationInfo.isOpen always
// wins. External events are open as long as they carry a link.
// Internal events honor their optional window and default to open
// inside it. Events with no registration block are closed.
func (e *Event) RegistrationOpen(now time.Time) bool {
	if e.RegistrationInfo != nil && e.RegistrationInfo.IsOpen != nil {
		return *e.RegistrationInfo.IsOpen
	}

	reg := e.Registration
	if reg == nil {
		return false
	}

	switch reg.Mode {
	case ModeExternal:
		return reg.ExternalURL != ""
	case ModeInternal:
		if reg.OpenDate != nil && !reg.OpenDate.IsZero() && now.Before(reg.OpenDate.Time) {
			return false
		}
		if reg.CloseDate != nil && !reg.CloseDate.IsZero() && now.After(reg.CloseDate.Time) {
			return false
		}
		return true
	}
	return false
}

// OpenCount returns how many of the given events are currently open
// for registration. It backs the landing page call to action.
func OpenCount(evts []Event, now time.Time) int {
	open := 0
	for i := range evts {
		if evts[i].RegistrationOpen(now) {
			open++
		}
	}
	return open
}
