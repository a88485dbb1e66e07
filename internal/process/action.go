package process

import (
	"github.com/quicknginx/quicknginx/internal/exitcodes"
)

// Action is a control command sent to the nginx binary.
type Action int

const (
	ActionStart Action = iota
	ActionStop
	ActionReload
)

// Actions lists every supported action.
var Actions = []Action{ActionStart, ActionStop, ActionReload}

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionStop:
		return "stop"
	case ActionReload:
		return "reload"
	}
	return "unknown"
}

// Args returns the arguments passed to the nginx binary for a.
func (a Action) Args() []string {
	switch a {
	case ActionStop:
		return []string{"-s", "stop"}
	case ActionReload:
		return []string{"-s", "reload"}
	}
	return nil
}

// ParseAction resolves an action name. Unknown names fail before anything
// is executed.
func ParseAction(name string) (Action, error) {
	for _, a := range Actions {
		if name == a.String() {
			return a, nil
		}
	}
	return 0, exitcodes.InvalidArgsErrorf("Invalid command %q (use start|stop|reload)", name)
}
