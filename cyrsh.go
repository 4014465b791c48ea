package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"strings"
	"syscall"

	"cyrsh/colors"
	"cyrsh/config"
	"cyrsh/history"
	"cyrsh/input"
	"cyrsh/logging"
	"cyrsh/parser"
	"cyrsh/prompt"
	"cyrsh/shell"
	"cyrsh/terminal"
	"cyrsh/translit"
)

// Session owns everything one interactive run needs: the configuration,
// the line reducer, the history ring, the child-shell supervisor, the
// transliterator and the prompt renderer. All state is threaded through
// here; nothing is package-global.
type Session struct {
	cfg      *config.Config
	tr       translit.Transliterator
	sh       *shell.Shell
	reducer  *input.Reducer
	hist     *history.Ring
	renderer *prompt.Renderer

	histFile string
	// inputPrefix is the last line of the rendered prompt, reprinted on
	// every buffer redraw. Empty while a subprocess runs.
	inputPrefix string
	// keyCarry holds an incomplete escape sequence or UTF-8 rune from
	// the previous stdin read.
	keyCarry []byte
	// lastCmd is the most recent line sent to the shell, logged with
	// its exit code once the sentinel comes back.
	lastCmd  string
	lastExit int
}

// NewSession wires a session from loaded configuration, a transliterator
// and an already-started shell.
func NewSession(cfg *config.Config, tr translit.Transliterator, sh *shell.Shell) *Session {
	size := cfg.History.Size
	if size <= 0 {
		size = history.DefaultCapacity
	}
	hist := history.NewRing(size)
	if cfg.History.File != "" {
		if err := hist.Load(cfg.History.File); err != nil {
			logging.LogError(err)
		}
	}

	minDur, _ := cfg.MinDuration()
	return &Session{
		cfg:      cfg,
		tr:       tr,
		sh:       sh,
		reducer:  input.NewReducer(hist, cfg.Aliases()),
		hist:     hist,
		renderer: prompt.NewRenderer(cfg.Prompt, minDur),
		histFile: cfg.History.File,
	}
}

// Run is the interactive read-eval loop. It returns the exit code the
// process should mirror: the last shell exit code, or the shell's own
// exit status once it terminates.
func (s *Session) Run() (int, error) {
	if !terminal.IsTerminal(int(os.Stdin.Fd())) {
		return 255, fmt.Errorf("stdin is not a terminal; pass the command as arguments instead")
	}
	if err := terminal.WithRawMode(s.loop); err != nil {
		return 255, err
	}
	return s.lastExit, nil
}

func (s *Session) loop() error {
	// Ctrl-C arrives as a byte in raw mode; this catches signals sent
	// to cyrsh itself and forwards them to the child.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	keys := readKeys()

	s.printPrompt()
	for {
		select {
		case sig := <-sigs:
			if sig == syscall.SIGTERM {
				logging.LogAlert("SIGTERM received, shutting down")
				s.sh.Stop()
				return nil
			}
			if s.sh.State() == shell.SubprocessRunning {
				s.sh.Raise(syscall.SIGINT)
			}
		default:
		}

		eof := s.pumpInput(keys)

		// Read polls with its own short timeout, pacing the loop.
		if done := s.pumpOutput(); done {
			break
		}

		if s.sh.TakeChanged() && s.sh.State() == shell.Idle {
			s.lastExit = s.sh.ExitCode()
			if s.lastCmd != "" {
				logging.LogCommand(s.lastCmd, s.lastExit)
				s.lastCmd = ""
			}
			s.printPrompt()
		}

		if eof {
			fmt.Print("\r\n")
			code, err := s.sh.Stop()
			if err == nil {
				s.lastExit = code
			}
			break
		}
	}
	return nil
}

// RunOnce executes a single already-joined command line and returns the
// exit code to mirror. Used for positional-argument invocation.
func (s *Session) RunOnce(line string) int {
	latin, err := parser.Translate(line, s.tr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cyrsh: %v\n", err)
		logging.LogError(err)
		return 255
	}
	if err := s.sh.Exec(latin); err != nil {
		fmt.Fprintf(os.Stderr, "cyrsh: %v\n", err)
		logging.LogError(err)
		return 255
	}

	for s.sh.State() == shell.SubprocessRunning {
		out, errOut, err := s.sh.Read()
		if errors.Is(err, shell.ErrShellTerminated) {
			break
		}
		if err != nil {
			logging.LogError(err)
		}
		fmt.Print(s.display(out))
		fmt.Fprint(os.Stderr, s.display(errOut))
	}

	code := s.sh.ExitCode()
	logging.LogCommand(latin, code)
	s.sh.Stop()
	return code
}

// pumpInput drains whatever stdin bytes are pending, decodes them into
// events and applies each against the reducer. Returns true on EOF.
func (s *Session) pumpInput(keys <-chan []byte) bool {
	for {
		select {
		case data, ok := <-keys:
			if !ok {
				return true
			}
			events, rest := input.Decode(append(s.keyCarry, data...))
			s.keyCarry = rest
			for _, ev := range events {
				s.apply(s.reducer.Reduce(ev, s.sh.State()))
			}
		default:
			return false
		}
	}
}

// apply carries out one reducer action.
func (s *Session) apply(act input.Action) {
	switch act.Type {
	case input.ActionNone:
		s.redrawLine()

	case input.ActionSubmit:
		fmt.Print("\r\n")
		if s.histFile != "" {
			// At(0) is the raw line the reducer just pushed.
			if err := history.Append(s.histFile, s.hist.At(0)); err != nil {
				logging.LogError(err)
			}
		}
		latin, err := parser.Translate(act.Line, s.tr)
		if err != nil {
			s.printError(err)
			s.printPrompt()
			return
		}
		if err := s.sh.Exec(latin); err != nil {
			s.printError(err)
			s.printPrompt()
			return
		}
		s.lastCmd = latin
		s.inputPrefix = ""

	case input.ActionForward:
		fmt.Print("\r\n")
		if err := s.sh.Write(s.tr.ToLatin(act.Line) + "\n"); err != nil {
			s.printError(err)
		}

	case input.ActionBuiltin:
		fmt.Print("\r\n")
		s.runBuiltin(act.Name, act.Args)
		s.printPrompt()

	case input.ActionAbort:
		fmt.Print("^C\r\n")
		s.printPrompt()

	case input.ActionInterrupt:
		fmt.Print("\r\n")
		if err := s.sh.Raise(syscall.SIGINT); err != nil {
			s.printError(err)
		}

	case input.ActionError:
		fmt.Print("\r\n")
		s.printError(act.Err)
		s.printPrompt()
	}
}

// pumpOutput reads whatever the shell produced and prints it. Returns
// true once the shell is gone and fully drained.
func (s *Session) pumpOutput() bool {
	out, errOut, err := s.sh.Read()
	if errors.Is(err, shell.ErrShellTerminated) {
		s.lastExit, _ = s.sh.Stop()
		return true
	}
	if err != nil {
		// Sanitized output still arrives alongside the error.
		logging.LogError(err)
	}
	if out != "" {
		fmt.Print(rawNewlines(s.display(out)))
	}
	if errOut != "" {
		fmt.Fprint(os.Stderr, rawNewlines(s.display(errOut)))
	}
	if (out != "" || errOut != "") && s.sh.State() == shell.SubprocessRunning {
		s.redrawLine()
	}
	return false
}

// display optionally converts shell output back to Cyrillic.
func (s *Session) display(text string) string {
	if text == "" || !s.cfg.Output.Translate {
		return text
	}
	return s.tr.ToCyrillic(text)
}

func (s *Session) runBuiltin(name string, args []string) {
	switch name {
	case "clear":
		fmt.Print("\033[H\033[2J")

	case "history":
		if len(args) > 0 && args[0] == "clear" {
			s.hist.Reset()
			if s.histFile != "" {
				if err := history.Clear(s.histFile); err != nil {
					s.printError(err)
				}
			}
			return
		}
		// Oldest first; the printed index is what !N recalls.
		for i := s.hist.Len() - 1; i >= 0; i-- {
			fmt.Printf(" %3d  %s\r\n", i, s.hist.At(i))
		}
	}
}

// printPrompt renders and prints a fresh prompt from current shell
// state, then remembers its input line for redraws.
func (s *Session) printPrompt() {
	rendered := s.renderer.Render(s.promptState())
	if i := strings.LastIndexByte(rendered, '\n'); i >= 0 {
		s.inputPrefix = rendered[i+1:]
	} else {
		s.inputPrefix = rendered
	}
	fmt.Print(rendered)
	s.redrawLine()
}

func (s *Session) promptState() prompt.State {
	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	hostname, _ := os.Hostname()

	wrkdir := s.sh.Cwd()
	if wrkdir == "" {
		wrkdir, _ = os.Getwd()
	}

	return prompt.State{
		User:     username,
		Hostname: hostname,
		Wrkdir:   wrkdir,
		Lang:     s.tr.Language().String(),
		ExitCode: s.sh.ExitCode(),
		Elapsed:  s.sh.Elapsed(),
	}
}

// redrawLine repaints the input line in place: clear, prefix, buffer,
// then the cursor walked back into position.
func (s *Session) redrawLine() {
	line := s.reducer.Line()
	prefix := s.inputPrefix
	if s.reducer.Searching() {
		prefix = fmt.Sprintf("(reverse-i-search)`%s': ", s.reducer.SearchPattern())
	}

	// A buffer wider than the terminal would wrap and break the
	// in-place repaint; show only what fits on the row.
	if width, _, err := terminal.GetTerminalSize(); err == nil && width > 0 {
		if max := width - len([]rune(prefix)) - 1; max >= 0 && len([]rune(line)) > max {
			line = string([]rune(line)[:max])
		}
	}

	fmt.Print("\r\033[K" + prefix + line)
	if back := len([]rune(line)) - s.reducer.Cursor(); back > 0 {
		fmt.Printf("\033[%dD", back)
	}
}

func (s *Session) printError(err error) {
	fmt.Printf("%scyrsh: %v%s\r\n", colors.BoldRed, err, colors.Reset)
	logging.LogError(err)
}

// rawNewlines rewrites bare LF as CRLF for printing in raw mode.
func rawNewlines(text string) string {
	if !strings.Contains(text, "\n") {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\n", "\r\n")
}

// readKeys pumps stdin reads into a channel so the main loop can poll
// input without blocking. The channel closes on EOF.
func readKeys() <-chan []byte {
	ch := make(chan []byte, 8)
	go func() {
		defer close(ch)
		for {
			buf := make([]byte, 256)
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				ch <- buf[:n]
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}
