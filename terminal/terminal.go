package terminal

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

var (
	// originalTermState stores the terminal state before entering raw mode
	originalTermState *term.State
	// mutex to protect concurrent access to terminal state
	termMutex sync.Mutex
	// track if we're currently in raw mode
	inRawMode bool
)

// EnterRawMode puts the terminal into raw mode so single keystrokes are
// delivered without echo or line buffering.
// Returns an error if it fails
func EnterRawMode() error {
	termMutex.Lock()
	defer termMutex.Unlock()

	if !inRawMode {
		fd := int(os.Stdin.Fd())
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("failed to enter raw mode: %w", err)
		}
		originalTermState = state
		inRawMode = true
	}
	return nil
}

// ExitRawMode restores the terminal to its original state
func ExitRawMode() {
	termMutex.Lock()
	defer termMutex.Unlock()

	if inRawMode && originalTermState != nil {
		term.Restore(int(os.Stdin.Fd()), originalTermState)
		inRawMode = false
	}
}

// GetTerminalSize returns the current terminal dimensions (width, height)
func GetTerminalSize() (width, height int, err error) {
	return term.GetSize(int(os.Stdin.Fd()))
}

// IsTerminal checks if the given file descriptor is a terminal
func IsTerminal(fd int) bool {
	return term.IsTerminal(fd)
}

// WithRawMode runs the provided function in raw mode.
// Ensures proper cleanup even if the function panics
func WithRawMode(fn func() error) error {
	if err := EnterRawMode(); err != nil {
		return err
	}
	defer ExitRawMode()

	return fn()
}
