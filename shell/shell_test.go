//go:build !windows

package shell

import (
	"errors"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drainUntil polls Read until cond is satisfied or the deadline passes,
// accumulating output along the way.
func drainUntil(t *testing.T, s *Shell, cond func() bool) (string, string) {
	t.Helper()

	var stdout, stderr strings.Builder
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		out, errOut, err := s.Read()
		stdout.WriteString(out)
		stderr.WriteString(errOut)
		if err != nil || cond() {
			return stdout.String(), stderr.String()
		}
	}
	t.Fatalf("condition not reached before deadline; stdout=%q stderr=%q",
		stdout.String(), stderr.String())
	return "", ""
}

func TestStartFailure(t *testing.T) {
	_, err := Start("/nonexistent/shell/binary")
	assert.ErrorIs(t, err, ErrCouldNotStart)
}

func TestExecEchoRoundTrip(t *testing.T) {
	s, err := Start("sh")
	require.NoError(t, err)
	defer s.Stop()

	require.NoError(t, s.Exec("echo 4"))
	assert.Equal(t, SubprocessRunning, s.State())

	stdout, stderr := drainUntil(t, s, func() bool { return s.State() == Idle })
	assert.Equal(t, "4\n", stdout)
	assert.Empty(t, stderr)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 0, s.ExitCode())
	assert.NotEmpty(t, s.Cwd())
}

func TestExecFailingCommandReportsExitCode(t *testing.T) {
	s, err := Start("sh")
	require.NoError(t, err)
	defer s.Stop()

	require.NoError(t, s.Exec("false"))
	drainUntil(t, s, func() bool { return s.State() == Idle })
	assert.Equal(t, 1, s.ExitCode())
}

func TestExecBlankCommandIsNoop(t *testing.T) {
	s, err := Start("sh")
	require.NoError(t, err)
	defer s.Stop()

	require.NoError(t, s.Exec("   "))
	assert.Equal(t, Idle, s.State())
}

func TestSentinelNeverSurfaces(t *testing.T) {
	s, err := Start("sh")
	require.NoError(t, err)
	defer s.Stop()

	require.NoError(t, s.Exec("echo before; echo after"))
	stdout, _ := drainUntil(t, s, func() bool { return s.State() == Idle })
	assert.Equal(t, "before\nafter\n", stdout)
	assert.NotContains(t, stdout, "\x02")
	assert.NotContains(t, stdout, "\x03")
	assert.NotContains(t, stdout, s.Token())
}

func TestStderrSeparate(t *testing.T) {
	s, err := Start("sh")
	require.NoError(t, err)
	defer s.Stop()

	require.NoError(t, s.Exec("echo oops >&2"))
	stdout, stderr := drainUntil(t, s, func() bool { return s.State() == Idle })
	assert.Empty(t, stdout)
	assert.Equal(t, "oops\n", stderr)
}

func TestExitTerminatesShell(t *testing.T) {
	s, err := Start("sh")
	require.NoError(t, err)

	require.NoError(t, s.Exec("exit 5"))
	drainUntil(t, s, func() bool { return s.State() == Terminated })
	assert.Equal(t, Terminated, s.State())

	code, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, 5, code)

	// Terminated is absorbing; further writes fail, never block.
	assert.ErrorIs(t, s.Write("echo nope\n"), ErrShellTerminated)
	assert.ErrorIs(t, s.Exec("echo nope"), ErrShellTerminated)
}

func TestKillIsIdempotent(t *testing.T) {
	s, err := Start("sh")
	require.NoError(t, err)

	require.NoError(t, s.Kill())
	require.NoError(t, s.Kill())
	assert.Equal(t, Terminated, s.State())

	assert.ErrorIs(t, s.Raise(syscall.SIGINT), ErrShellTerminated)
}

func TestRaiseSignalOnLiveChild(t *testing.T) {
	s, err := Start("sh")
	require.NoError(t, err)
	defer s.Stop()

	require.NoError(t, s.Raise(syscall.SIGCONT))
}

func TestStateChangedFlag(t *testing.T) {
	s, err := Start("sh")
	require.NoError(t, err)
	defer s.Stop()

	assert.False(t, s.TakeChanged())
	require.NoError(t, s.Exec("echo x"))
	assert.True(t, s.TakeChanged())
	assert.False(t, s.TakeChanged())

	drainUntil(t, s, func() bool { return s.State() == Idle })
	assert.True(t, s.TakeChanged())
}

func TestMachineTerminatedAbsorbing(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, Idle, m.State())

	assert.True(t, m.To(SubprocessRunning))
	assert.True(t, m.To(Terminated))
	assert.False(t, m.To(Idle))
	assert.Equal(t, Terminated, m.State())
}

// pipelessShell builds a shell over hand-fed streams so Read paths can
// be driven with exact byte sequences.
func pipelessShell() *Shell {
	return &Shell{
		Machine: NewMachine(),
		stdout:  &stream{ch: make(chan []byte, 8)},
		stderr:  &stream{ch: make(chan []byte, 8)},
		token:   testToken,
		done:    make(chan struct{}),
	}
}

func TestReadRecoversSentinelAmongInvalidBytes(t *testing.T) {
	s := pipelessShell()
	s.To(SubprocessRunning)

	// Binary garbage and the completion marker coalesced into one chunk.
	s.stdout.ch <- []byte("ok\xfe\xff\x02123;0;/home;" + testToken + "\x03")

	out, errOut, err := s.Read()
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 0, s.ExitCode())
	assert.Equal(t, "/home", s.Cwd())
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "�")
	assert.NotContains(t, out, "\x02")
	assert.Empty(t, errOut)
}

func TestReadKeepsStdoutWhenStderrInvalid(t *testing.T) {
	s := pipelessShell()
	s.stdout.ch <- []byte("hello\n")
	s.stderr.ch <- []byte{0xff, 0xfe}

	out, errOut, err := s.Read()
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.Equal(t, "hello\n", out)
	assert.Contains(t, errOut, "�")
}

func TestExecBinaryOutputStillCompletes(t *testing.T) {
	s, err := Start("sh")
	require.NoError(t, err)
	defer s.Stop()

	require.NoError(t, s.Exec("head -c 200000 /bin/sh"))

	deadline := time.Now().Add(5 * time.Second)
	for s.State() == SubprocessRunning {
		if !time.Now().Before(deadline) {
			t.Fatalf("state stuck at %s after reading binary output", s.State())
		}
		_, _, err := s.Read()
		if err != nil && !errors.Is(err, ErrInvalidData) {
			t.Fatalf("unexpected read error: %v", err)
		}
	}

	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 0, s.ExitCode())
}

func TestAlive(t *testing.T) {
	s, err := Start("sh")
	require.NoError(t, err)

	assert.True(t, s.Alive())
	require.NoError(t, s.Kill())
	assert.False(t, s.Alive())
}
