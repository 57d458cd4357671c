package plugin

// State is where a plugin is in its enable/disable lifecycle.
type State int

const (
	StateDisabled  State = iota // loaded, not running
	StateEnabling               // Enable in progress
	StateEnabled                // running
	StateDisabling              // Disable in progress
	StateError                  // last Enable failed
)

var stateNames = [...]string{
	StateDisabled:  "disabled",
	StateEnabling:  "enabling",
	StateEnabled:   "enabled",
	StateDisabling: "disabling",
	StateError:     "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Running reports whether the plugin's Enable completed and Disable has
// not started.
func (s State) Running() bool { return s == StateEnabled }
