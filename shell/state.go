package shell

import "sync"

// State is the lifecycle state of the wrapped shell.
type State int

const (
	// Idle: prompt shown, accepting command lines.
	Idle State = iota
	// SubprocessRunning: a command is executing; keystrokes pass
	// through to the child instead of being line-edited.
	SubprocessRunning
	// Terminated: the child exited. Absorbing; no further I/O.
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SubprocessRunning:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Machine tracks the shell lifecycle state. Every transition raises a
// sticky "changed" flag so the owning loop knows to redraw the prompt.
type Machine struct {
	mu      sync.Mutex
	state   State
	changed bool
}

// NewMachine returns a machine in the Idle state.
func NewMachine() *Machine {
	return &Machine{state: Idle}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// To transitions to next. Terminated is absorbing: once reached, all
// later transitions are ignored. Returns true if the state changed.
func (m *Machine) To(next State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Terminated || m.state == next {
		return false
	}
	m.state = next
	m.changed = true
	return true
}

// TakeChanged reports whether a transition happened since the last call
// and clears the flag.
func (m *Machine) TakeChanged() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.changed
	m.changed = false
	return c
}
