package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cyrsh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.History.Size)
	assert.NotEmpty(t, cfg.Prompt.Format)
}

func TestLoadMalformedYAMLIsError(t *testing.T) {
	path := writeConfig(t, "alias: [a: b\n  broken")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
lang: uk
alias:
  - лл: ls -la
  - пвд: pwd
shell:
  exec: /bin/dash
  args: ["-i"]
prompt:
  format: "${USER} ${WRKDIR} "
  break: false
  min_duration: 5s
  rc_err: "[${RC_CODE}]"
output:
  translate: true
history:
  size: 42
  file: /tmp/hist
log_file: /tmp/cyrsh.log
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "uk", cfg.Lang)
	assert.Equal(t, "/bin/dash", cfg.Shell.Exec)
	assert.Equal(t, []string{"-i"}, cfg.Shell.Args)
	assert.True(t, cfg.Output.Translate)
	assert.Equal(t, 42, cfg.History.Size)
	assert.Equal(t, "/tmp/hist", cfg.History.File)
	assert.Equal(t, "/tmp/cyrsh.log", cfg.LogFile)
	assert.False(t, cfg.Prompt.Break)

	aliases := cfg.Aliases()
	assert.Equal(t, "ls -la", aliases["лл"])
	assert.Equal(t, "pwd", aliases["пвд"])

	d, err := cfg.MinDuration()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)
}

func TestLoadBadMinDuration(t *testing.T) {
	path := writeConfig(t, "prompt:\n  min_duration: soon\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDetermineShell(t *testing.T) {
	cfg := Default()

	// Explicit flag wins.
	exec, args, err := DetermineShell("/bin/zsh", cfg)
	require.NoError(t, err)
	assert.Equal(t, "/bin/zsh", exec)
	assert.Empty(t, args)

	// Then the config file.
	cfg.Shell.Exec = "/bin/dash"
	cfg.Shell.Args = []string{"-i"}
	exec, args, err = DetermineShell("", cfg)
	require.NoError(t, err)
	assert.Equal(t, "/bin/dash", exec)
	assert.Equal(t, []string{"-i"}, args)

	// Then $SHELL.
	cfg.Shell.Exec = ""
	t.Setenv("SHELL", "/bin/sh")
	exec, _, err = DetermineShell("", cfg)
	require.NoError(t, err)
	assert.Equal(t, "/bin/sh", exec)

	// Nothing at all is an error.
	t.Setenv("SHELL", "")
	_, _, err = DetermineShell("", cfg)
	assert.Error(t, err)
}
