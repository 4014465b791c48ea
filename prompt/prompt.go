// Package prompt renders the prompt line from a template with
// substitution tokens, colors and optional git information. All state
// it displays is queried from the core (cwd, exit code, elapsed time);
// this package only formats.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cyrsh/colors"
	"cyrsh/config"
)

// State is the session snapshot a prompt is rendered from.
type State struct {
	User     string
	Hostname string
	Wrkdir   string
	Lang     string
	ExitCode int
	Elapsed  time.Duration
}

// Renderer expands a prompt template against a State.
type Renderer struct {
	cfg         config.PromptConfig
	minDuration time.Duration
}

// NewRenderer builds a renderer for the given prompt configuration.
func NewRenderer(cfg config.PromptConfig, minDuration time.Duration) *Renderer {
	return &Renderer{cfg: cfg, minDuration: minDuration}
}

var tokenRe = regexp.MustCompile(`\$\{([A-Z_0-9]+)\}`)

// Render produces the prompt, including the trailing "$ " input cap.
// With prompt.break the cap moves to its own line.
func (r *Renderer) Render(st State) string {
	line := r.expand(r.cfg.Format, st)

	if r.cfg.Break {
		return line + colors.Reset + "\r\n$ "
	}
	return line + colors.Reset + "$ "
}

// expand substitutes every ${TOKEN} in template. Unknown tokens expand
// to nothing.
func (r *Renderer) expand(template string, st State) string {
	return tokenRe.ReplaceAllStringFunc(template, func(m string) string {
		token := m[2 : len(m)-1]
		return r.token(token, st)
	})
}

func (r *Renderer) token(name string, st State) string {
	switch name {
	case "USER":
		return st.User
	case "HOSTNAME":
		return st.Hostname
	case "WRKDIR":
		return shortenHome(st.Wrkdir)
	case "LANG":
		return st.Lang
	case "RC_CODE":
		return strconv.Itoa(st.ExitCode)
	case "RC":
		if st.ExitCode == 0 {
			return r.expand(r.cfg.RcOk, st)
		}
		return r.expand(r.cfg.RcErr, st)
	case "CMD_TIME":
		if r.minDuration > 0 && st.Elapsed < r.minDuration {
			return ""
		}
		if st.Elapsed == 0 {
			return ""
		}
		return st.Elapsed.Round(time.Millisecond).String()
	case "GIT_BRANCH":
		if r.cfg.Git.Branch == "" {
			return ""
		}
		branch, _ := gitInfo(st.Wrkdir)
		if branch == "" {
			return ""
		}
		return fmt.Sprintf(r.cfg.Git.Branch, branch)
	case "GIT_COMMIT":
		if r.cfg.Git.Commit == "" {
			return ""
		}
		_, commit := gitInfo(st.Wrkdir)
		if commit == "" {
			return ""
		}
		return fmt.Sprintf(r.cfg.Git.Commit, commit)
	}
	return colors.Lookup(name)
}

// shortenHome replaces the home directory prefix with ~.
func shortenHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(os.PathSeparator)) {
		return "~" + path[len(home):]
	}
	return path
}

// gitInfo reads branch and short commit from .git metadata, walking up
// from dir. No git binary is spawned: the prompt renders on every
// redraw and must stay cheap.
func gitInfo(dir string) (branch, commit string) {
	gitDir := findGitDir(dir)
	if gitDir == "" {
		return "", ""
	}

	head, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return "", ""
	}
	ref := strings.TrimSpace(string(head))

	if rest, ok := strings.CutPrefix(ref, "ref: "); ok {
		branch = strings.TrimPrefix(rest, "refs/heads/")
		if data, err := os.ReadFile(filepath.Join(gitDir, rest)); err == nil {
			commit = shortHash(string(data))
		}
		return branch, commit
	}

	// Detached HEAD: the file holds the hash itself.
	return "", shortHash(ref)
}

func findGitDir(dir string) string {
	for dir != "" {
		candidate := filepath.Join(dir, ".git")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
	return ""
}

func shortHash(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
