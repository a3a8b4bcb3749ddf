// Package fsm holds the per-connection decode states of the command protocol.
package fsm

import "fmt"

type State string

type Event string

const (
	StateAwaitCommand State = "await-command"
	StateOpenSequence State = "open-sequence"
	StateLineValue    State = "line-value"
	StateColumnValue  State = "column-value"
	StateNoProjects   State = "no-projects"
	StateDocList      State = "doclist"
	StateWindowQuery  State = "window-query"
	StateClosed       State = "closed"
)

const (
	EventOpen       Event = "open"
	EventLine       Event = "line"
	EventColumn     Event = "column"
	EventNoProjects Event = "no-projects"
	EventDocList    Event = "doclist"
	EventWindow     Event = "window"
	EventUnknown    Event = "unknown"
	EventDone       Event = "done"
	EventCancel     Event = "cancel"
	EventEOF        Event = "eof"
	EventFail       Event = "fail"
)

// Transition returns the state reached from current on event.
func Transition(current State, event Event) (State, error) {
	if current != StateClosed && (event == EventEOF || event == EventFail) {
		switch current {
		case StateAwaitCommand, StateOpenSequence, StateLineValue, StateColumnValue,
			StateNoProjects, StateDocList, StateWindowQuery:
			return StateClosed, nil
		}
	}

	switch current {
	case StateAwaitCommand:
		switch event {
		case EventOpen:
			return StateOpenSequence, nil
		case EventLine:
			return StateLineValue, nil
		case EventColumn:
			return StateColumnValue, nil
		case EventNoProjects:
			return StateNoProjects, nil
		case EventDocList:
			return StateDocList, nil
		case EventWindow:
			return StateWindowQuery, nil
		case EventUnknown:
			return StateAwaitCommand, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateOpenSequence:
		switch event {
		case EventDone:
			return StateAwaitCommand, nil
		case EventCancel:
			return StateClosed, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateLineValue, StateColumnValue, StateNoProjects, StateDocList, StateWindowQuery:
		switch event {
		case EventDone:
			return StateAwaitCommand, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateClosed:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
