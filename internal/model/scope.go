package model

import "strconv"

// Scope is the namespace a configuration, blackout window, or appointment
// query applies to: either one global scope shared by every event type, or
// a scope tied to a single event type.
type Scope struct {
	EventTypeID int64
}

func GlobalScope() Scope {
	return Scope{}
}

func EventScope(eventTypeID int64) Scope {
	return Scope{EventTypeID: eventTypeID}
}

func (s Scope) Global() bool {
	return s.EventTypeID == 0
}

func (s Scope) String() string {
	if s.Global() {
		return "global"
	}
	return "event:" + strconv.FormatInt(s.EventTypeID, 10)
}
