package components

import "fmt"

// State is a forager's behavioral state.
type State uint8

const (
	StateInHive State = iota
	StateScouting
	StateOnSource
	StateReturning
	StateUnloading
	StateDancing
	StateFollowing
	StateForaging

	numStates
)

// NumStates is the number of behavioral states.
const NumStates = int(numStates)

var stateNames = [NumStates]string{
	"in_hive",
	"scouting",
	"on_source",
	"returning",
	"unloading",
	"dancing",
	"following",
	"foraging",
}

// States returns every state in declaration order.
func States() []State {
	states := make([]State, NumStates)
	for i := range states {
		states[i] = State(i)
	}
	return states
}

// Valid reports whether s is one of the enumerated states.
func (s State) Valid() bool {
	return s < numStates
}

func (s State) String() string {
	if !s.Valid() {
		return fmt.Sprintf("state(%d)", uint8(s))
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown state %d", uint8(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	st, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseState returns the state with the given name.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", name)
}
