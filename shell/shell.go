// Package shell supervises the child shell process: it owns the three
// I/O pipes, injects the completion sentinel after every command, and
// exposes non-blocking reads and writes to the polling loop. All
// shell-visible state transitions happen on the poll path; the only
// background work is a reaper goroutine owning the blocking OS wait.
package shell

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/process"
)

var (
	// ErrCouldNotStart means the shell binary could not be spawned.
	ErrCouldNotStart = errors.New("could not start shell process")
	// ErrShellTerminated means the child has exited; the call cannot
	// be served anymore.
	ErrShellTerminated = errors.New("shell terminated")
	// ErrShellRunning means Stop could not bring the child down.
	ErrShellRunning = errors.New("shell still running")
	// ErrInvalidData means the child produced bytes that are not UTF-8.
	ErrInvalidData = errors.New("invalid UTF-8 from shell")
	// ErrIoTimeout means a write made no progress within the deadline.
	ErrIoTimeout = errors.New("i/o timeout")
	// ErrPipe wraps an OS-level pipe failure.
	ErrPipe = errors.New("pipe error")
)

// pollTimeout bounds one Read poll. Short enough that the main loop
// stays responsive, long enough to avoid busy-spinning.
const pollTimeout = 40 * time.Millisecond

// writeTimeout bounds a single stdin write.
const writeTimeout = 2 * time.Second

// Shell is a supervised child shell process.
type Shell struct {
	*Machine

	cmd    *exec.Cmd
	stdin  *os.File
	stdout *stream
	stderr *stream
	token  string

	mu       sync.Mutex
	pid      int
	exitCode int
	cwd      string
	cmdStart time.Time
	elapsed  time.Duration

	// Byte-level carries: a read may end mid-rune, so undecoded tails
	// stay buffered until the UTF-8 boundary is confirmed.
	outCarry []byte
	errCarry []byte
	// textCarry withholds a partially received sentinel.
	textCarry string

	exited   atomic.Bool
	waitCode atomic.Int32
	done     chan struct{}
}

// Start spawns the shell binary with the given arguments and wires up
// its pipes. A fresh session token is generated per shell so sentinel
// markers from older sessions can never match.
func Start(execPath string, args ...string) (*Shell, error) {
	cmd := exec.Command(execPath, args...)

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotStart, err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotStart, err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotStart, err)
	}

	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		stdinR.Close()
		stdinW.Close()
		stdoutR.Close()
		stdoutW.Close()
		stderrR.Close()
		stderrW.Close()
		return nil, fmt.Errorf("%w: %v", ErrCouldNotStart, err)
	}

	// The child owns its ends now.
	stdinR.Close()
	stdoutW.Close()
	stderrW.Close()

	s := &Shell{
		Machine: NewMachine(),
		cmd:     cmd,
		stdin:   stdinW,
		stdout:  newStream(stdoutR),
		stderr:  newStream(stderrR),
		token:   uuid.NewString(),
		pid:     cmd.Process.Pid,
		done:    make(chan struct{}),
	}

	// Reaper: the one genuinely blocking OS wait lives on its own
	// goroutine; completion is published through an atomic flag and
	// observed by the polling loop.
	go func() {
		_ = cmd.Wait()
		s.waitCode.Store(int32(cmd.ProcessState.ExitCode()))
		s.exited.Store(true)
		close(s.done)
	}()

	return s, nil
}

// Token returns the session token used in sentinel markers.
func (s *Shell) Token() string { return s.token }

// Pid returns the child's process id.
func (s *Shell) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid
}

// ExitCode returns the exit code of the last completed command, or the
// shell's own exit code once it has terminated.
func (s *Shell) ExitCode() int {
	if s.exited.Load() {
		return int(s.waitCode.Load())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode
}

// Elapsed returns how long the last command took.
func (s *Shell) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Cwd returns the child's working directory as reported by the last
// sentinel; before the first command completes it falls back to asking
// the OS about the live process.
func (s *Shell) Cwd() string {
	s.mu.Lock()
	cwd := s.cwd
	pid := s.pid
	s.mu.Unlock()

	if cwd != "" {
		return cwd
	}
	if p, err := process.NewProcess(int32(pid)); err == nil {
		if procCwd, err := p.Cwd(); err == nil && procCwd != "" {
			return procCwd
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return ""
}

// Alive reports whether the child process still exists.
func (s *Shell) Alive() bool {
	if s.exited.Load() {
		return false
	}
	ok, err := process.PidExists(int32(s.Pid()))
	return err == nil && ok
}

// Exec sends a command line to the shell, suffixed with the sentinel
// trailer so completion is always reported, even for multi-statement or
// failing commands. A blank command is a no-op.
func (s *Shell) Exec(command string) error {
	if strings.TrimSpace(command) == "" {
		return nil
	}
	if err := s.Write(command + sentinelTrailer(s.token) + "\n"); err != nil {
		return err
	}

	s.mu.Lock()
	s.cmdStart = time.Now()
	s.mu.Unlock()

	s.To(SubprocessRunning)
	return nil
}

// Write sends raw text to the child's stdin with no sentinel attached.
// Used for keystrokes passed through to a running subprocess.
func (s *Shell) Write(text string) error {
	if s.exited.Load() {
		s.To(Terminated)
		return ErrShellTerminated
	}

	s.stdin.SetWriteDeadline(time.Now().Add(writeTimeout))
	n, err := s.stdin.WriteString(text)
	if err != nil {
		if os.IsTimeout(err) && n == 0 {
			return ErrIoTimeout
		}
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) {
			return ErrShellTerminated
		}
		return fmt.Errorf("%w: %v", ErrPipe, err)
	}
	return nil
}

// Read polls both output pipes with a short timeout and returns whatever
// arrived, sentinel stripped. A read may deliver a fragment of the
// sentinel; the fragment is withheld until the rest arrives. When a full
// sentinel is recognized the exit code, cwd and pid are recorded and the
// state returns to Idle. Non-UTF-8 bytes come back replaced with U+FFFD
// together with ErrInvalidData; the text around them is still delivered.
func (s *Shell) Read() (stdout, stderr string, err error) {
	if s.exited.Load() {
		s.To(Terminated)
	}

	// Both pipes are always drained and scanned: an error on one must
	// not discard output or a sentinel carried by the other.
	outText, outErr := s.drain(s.stdout, &s.outCarry)
	errText, errErr := s.drain(s.stderr, &s.errCarry)

	s.mu.Lock()
	text := s.textCarry + outText
	clean, carry, meta, found := scanSentinel(text, s.token)
	s.textCarry = carry
	if found {
		s.pid = meta.PID
		s.exitCode = meta.ExitCode
		s.cwd = meta.Cwd
		if !s.cmdStart.IsZero() {
			s.elapsed = time.Since(s.cmdStart)
		}
	}
	s.mu.Unlock()

	if found {
		s.To(Idle)
	}

	err = outErr
	if err == nil {
		err = errErr
	}

	if clean == "" && errText == "" && err == nil && s.State() == Terminated && s.stdout.closed() && s.stderr.closed() {
		return "", "", ErrShellTerminated
	}
	return clean, errText, err
}

// drain pulls available bytes off one stream, prepends the carried
// partial rune and decodes only the complete UTF-8 prefix.
func (s *Shell) drain(st *stream, carry *[]byte) (string, error) {
	data := st.poll(pollTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(data) == 0 && len(*carry) == 0 {
		return "", nil
	}

	buf := append(*carry, data...)
	complete, rest := splitCompleteUTF8(buf)
	*carry = rest

	if !utf8.Valid(complete) {
		// Binary output is sanitized, never dropped: the sentinel is
		// plain ASCII and must survive whatever surrounds it, or the
		// completion would be lost.
		return strings.ToValidUTF8(string(complete), "�"), ErrInvalidData
	}
	return string(complete), nil
}

// Raise delivers a signal to the child process. Raising a signal on an
// already-terminated child is an error, not a panic.
func (s *Shell) Raise(sig syscall.Signal) error {
	if s.exited.Load() {
		return ErrShellTerminated
	}
	if err := s.cmd.Process.Signal(sig); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return ErrShellTerminated
		}
		return fmt.Errorf("%w: %v", ErrPipe, err)
	}
	return nil
}

// Kill forcefully terminates the child. It is idempotent and retries
// until the reaper confirms the exit.
func (s *Shell) Kill() error {
	deadline := time.Now().Add(2 * time.Second)
	for {
		if s.exited.Load() {
			s.To(Terminated)
			return nil
		}
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("%w: %v", ErrPipe, err)
		}
		if time.Now().After(deadline) {
			return ErrShellRunning
		}
		select {
		case <-s.done:
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// Stop shuts the child down and reaps it, returning its exit status.
// Closing stdin asks the shell to exit on its own; a kill follows if it
// does not. ErrShellRunning is returned when even that fails.
func (s *Shell) Stop() (int, error) {
	s.stdin.Close()
	if !s.exited.Load() {
		select {
		case <-s.done:
		case <-time.After(time.Second):
			if err := s.Kill(); err != nil {
				return 0, ErrShellRunning
			}
		}
	}

	s.To(Terminated)
	return int(s.waitCode.Load()), nil
}
