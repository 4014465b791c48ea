// Package config loads the cyrsh YAML configuration. A missing file is
// not an error: built-in defaults apply. A file that exists but does
// not parse is fatal, reported to the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the whole configuration file.
type Config struct {
	// Alias is a list of single-pair maps in the file; see Aliases()
	// for the flattened table.
	Alias   []map[string]string `yaml:"alias"`
	Shell   ShellConfig         `yaml:"shell"`
	Prompt  PromptConfig        `yaml:"prompt"`
	Output  OutputConfig        `yaml:"output"`
	History HistoryConfig       `yaml:"history"`
	Lang    string              `yaml:"lang"`
	// LogFile overrides the default session log location.
	LogFile string `yaml:"log_file"`
}

type ShellConfig struct {
	Exec string   `yaml:"exec"`
	Args []string `yaml:"args"`
}

type PromptConfig struct {
	Format string `yaml:"format"`
	// Break prints the input cap on its own line below the prompt bar.
	Break bool `yaml:"break"`
	// MinDuration gates the ${CMD_TIME} token: faster commands show
	// nothing. Duration string, e.g. "2s".
	MinDuration string    `yaml:"min_duration"`
	RcOk        string    `yaml:"rc_ok"`
	RcErr       string    `yaml:"rc_err"`
	Git         GitConfig `yaml:"git"`
}

type GitConfig struct {
	// Branch and Commit are fmt patterns for the ${GIT_BRANCH} and
	// ${GIT_COMMIT} tokens; empty disables the token.
	Branch string `yaml:"branch"`
	Commit string `yaml:"commit"`
}

type OutputConfig struct {
	// Translate converts shell output back to Cyrillic for display.
	Translate bool `yaml:"translate"`
}

type HistoryConfig struct {
	Size int    `yaml:"size"`
	File string `yaml:"file"`
}

// Default returns the built-in configuration used when no file exists.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Shell: ShellConfig{},
		Prompt: PromptConfig{
			Format:      "${BOLD_GREEN}${USER}@${HOSTNAME}${RESET} ${BOLD_YELLOW}${WRKDIR}${RESET} ${RC}${CMD_TIME}",
			Break:       true,
			MinDuration: "2s",
			RcOk:        "",
			RcErr:       "${BOLD_RED}[${RC_CODE}]${RESET}",
		},
		History: HistoryConfig{
			Size: 500,
			File: filepath.Join(home, ".cyrsh_history"),
		},
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cyrsh.yaml"
	}
	return filepath.Join(home, ".cyrsh.yaml")
}

// Load reads the configuration at path. When path is empty the default
// location is tried. A missing file falls back to Default(); malformed
// YAML is an error the caller treats as fatal.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("malformed config %s: %w", path, err)
	}
	if _, err := cfg.MinDuration(); err != nil {
		return nil, fmt.Errorf("malformed config %s: %w", path, err)
	}
	return cfg, nil
}

// Aliases flattens the alias list into a lookup table. Later entries
// win on duplicate names.
func (c *Config) Aliases() map[string]string {
	out := make(map[string]string, len(c.Alias))
	for _, pair := range c.Alias {
		for name, replacement := range pair {
			out[name] = replacement
		}
	}
	return out
}

// MinDuration parses the prompt.min_duration key.
func (c *Config) MinDuration() (time.Duration, error) {
	if c.Prompt.MinDuration == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Prompt.MinDuration)
	if err != nil {
		return 0, fmt.Errorf("invalid prompt.min_duration: %w", err)
	}
	return d, nil
}

// DetermineShell picks the shell binary: the explicit flag wins, then
// the config file, then $SHELL. An empty result means cyrsh cannot run.
func DetermineShell(flagValue string, cfg *Config) (string, []string, error) {
	if flagValue != "" {
		return flagValue, nil, nil
	}
	if cfg.Shell.Exec != "" {
		return cfg.Shell.Exec, cfg.Shell.Args, nil
	}
	if env := os.Getenv("SHELL"); env != "" {
		return env, nil, nil
	}
	return "", nil, fmt.Errorf("cannot determine a shell: no -s flag, no shell.exec in config, no $SHELL")
}
