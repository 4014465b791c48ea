package input

import (
	"fmt"
	"strconv"
	"strings"

	"cyrsh/history"
	"cyrsh/shell"
)

// ActionType tells the owning loop what a reduced event asks for.
type ActionType int

const (
	// ActionNone: buffer state changed (or not); nothing to execute.
	ActionNone ActionType = iota
	// ActionSubmit: a command line is ready for parsing, aliasing and
	// transliteration, then execution.
	ActionSubmit
	// ActionForward: literal text for the running subprocess, to be
	// transliterated in text mode and written through as-is.
	ActionForward
	// ActionBuiltin: an intercepted built-in (clear, history).
	ActionBuiltin
	// ActionAbort: the current line was aborted (Ctrl-C while idle).
	ActionAbort
	// ActionInterrupt: Ctrl-C while a subprocess runs; the owner
	// should raise SIGINT on the child.
	ActionInterrupt
	// ActionError: the event produced a user-visible error (bad !N).
	ActionError
)

// Action is the reducer's output for one event.
type Action struct {
	Type ActionType
	Line string   // ActionSubmit / ActionForward
	Name string   // ActionBuiltin
	Args []string // ActionBuiltin
	Err  error    // ActionError
}

// Reducer owns the line-editing buffer, the history cursor and the
// optional reverse-search sub-mode. Invariant: 0 <= cursor <= len(buf).
type Reducer struct {
	buf    []rune
	cursor int

	hist *history.Ring
	// histIdx 0 means "not browsing": the live buffer is showing.
	// histIdx n>0 shows hist.At(n-1).
	histIdx int
	// live saves the in-progress line while browsing history.
	live []rune

	aliases map[string]string

	// Reverse-search sub-mode; nil when inactive.
	search *searchState
}

type searchState struct {
	pattern string
	next    int // next history index to search from
}

// NewReducer creates a reducer over the given history ring and alias
// table. The alias table may be nil.
func NewReducer(hist *history.Ring, aliases map[string]string) *Reducer {
	if hist == nil {
		hist = history.NewRing(history.DefaultCapacity)
	}
	return &Reducer{hist: hist, aliases: aliases}
}

// Line returns the current buffer contents.
func (r *Reducer) Line() string { return string(r.buf) }

// Cursor returns the cursor position in runes.
func (r *Reducer) Cursor() int { return r.cursor }

// History exposes the underlying ring (for the history built-in).
func (r *Reducer) History() *history.Ring { return r.hist }

// Searching reports whether reverse-search mode is active.
func (r *Reducer) Searching() bool { return r.search != nil }

// SearchPattern returns the active reverse-search pattern.
func (r *Reducer) SearchPattern() string {
	if r.search == nil {
		return ""
	}
	return r.search.pattern
}

// Reduce applies one event against the buffer given the current shell
// state and returns the resulting action.
func (r *Reducer) Reduce(ev Event, st shell.State) Action {
	switch ev.Kind {
	case KindRune:
		r.insert(ev.Rune)
	case KindBackspace:
		r.backspace()
	case KindArrowLeft:
		if r.cursor > 0 {
			r.cursor--
		}
	case KindArrowRight:
		if r.cursor < len(r.buf) {
			r.cursor++
		}
	case KindArrowUp:
		r.historyUp()
	case KindArrowDown:
		r.historyDown()
	case KindCtrl:
		return r.reduceCtrl(ev.Ctrl, st)
	case KindEnter:
		return r.reduceEnter(st)
	}
	return Action{Type: ActionNone}
}

func (r *Reducer) insert(ch rune) {
	r.search = nil
	r.buf = append(r.buf[:r.cursor], append([]rune{ch}, r.buf[r.cursor:]...)...)
	r.cursor++
}

func (r *Reducer) backspace() {
	// Editing the buffer leaves reverse-search, same as insert.
	r.search = nil
	if r.cursor == 0 {
		return
	}
	r.buf = append(r.buf[:r.cursor-1], r.buf[r.cursor:]...)
	r.cursor--
}

// historyUp walks toward older entries, saving the live buffer on the
// first step. The index saturates at the oldest entry.
func (r *Reducer) historyUp() {
	if r.histIdx >= r.hist.Len() {
		return
	}
	if r.histIdx == 0 {
		r.live = append([]rune(nil), r.buf...)
	}
	r.histIdx++
	r.setBuffer(r.hist.At(r.histIdx - 1))
}

// historyDown walks back toward the live buffer.
func (r *Reducer) historyDown() {
	if r.histIdx == 0 {
		return
	}
	r.histIdx--
	if r.histIdx == 0 {
		r.buf = append([]rune(nil), r.live...)
		r.cursor = len(r.buf)
		return
	}
	r.setBuffer(r.hist.At(r.histIdx - 1))
}

func (r *Reducer) setBuffer(line string) {
	r.buf = []rune(line)
	r.cursor = len(r.buf)
}

// clear resets the buffer, cursor, history index and search mode.
func (r *Reducer) clear() {
	r.buf = r.buf[:0]
	r.cursor = 0
	r.histIdx = 0
	r.live = nil
	r.search = nil
}

func (r *Reducer) reduceCtrl(code byte, st shell.State) Action {
	switch code {
	case CtrlA:
		r.cursor = 0
	case CtrlE:
		r.cursor = len(r.buf)
	case CtrlC:
		r.clear()
		if st == shell.SubprocessRunning {
			return Action{Type: ActionInterrupt}
		}
		return Action{Type: ActionAbort}
	case CtrlR:
		r.reverseSearch()
	case CtrlG:
		if r.search != nil {
			r.clear()
		}
	}
	return Action{Type: ActionNone}
}

// reverseSearch enters or continues the reverse-search sub-mode. The
// first invocation seeds the pattern from the buffer; each further one
// advances toward older entries. No match leaves the buffer unchanged.
func (r *Reducer) reverseSearch() {
	if r.search == nil {
		r.search = &searchState{pattern: string(r.buf)}
	}
	idx := r.hist.Search(r.search.pattern, r.search.next)
	if idx < 0 {
		return
	}
	r.setBuffer(r.hist.At(idx))
	r.search.next = idx + 1
}

func (r *Reducer) reduceEnter(st shell.State) Action {
	line := string(r.buf)
	r.clear()

	switch st {
	case shell.Terminated:
		return Action{Type: ActionNone}

	case shell.SubprocessRunning:
		// Literal input for the running subprocess; no alias or
		// history processing.
		return Action{Type: ActionForward, Line: line}
	}

	if strings.TrimSpace(line) == "" {
		return Action{Type: ActionNone}
	}

	raw := line

	// !N recalls history entry N, counted from most recent = 0.
	if resolved, ok, err := r.recallHistory(line); ok {
		if err != nil {
			return Action{Type: ActionError, Err: err}
		}
		line = resolved
	}

	line = r.resolveAlias(line)
	r.hist.Push(raw)

	// Built-ins are handled locally, never sent to the shell.
	fields := strings.Fields(line)
	if len(fields) > 0 {
		switch fields[0] {
		case "clear", "history":
			return Action{Type: ActionBuiltin, Name: fields[0], Args: fields[1:]}
		}
	}

	return Action{Type: ActionSubmit, Line: line}
}

// recallHistory resolves "!N" syntax. ok reports whether the line was a
// recall at all.
func (r *Reducer) recallHistory(line string) (resolved string, ok bool, err error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "!") {
		return line, false, nil
	}
	n, convErr := strconv.Atoi(trimmed[1:])
	if convErr != nil {
		return "", true, fmt.Errorf("invalid history recall: %s", trimmed)
	}
	if n < 0 || n >= r.hist.Len() {
		return "", true, fmt.Errorf("no history entry %d", n)
	}
	return r.hist.At(n), true, nil
}

// resolveAlias substitutes argv[0] when it names an alias.
func (r *Reducer) resolveAlias(line string) string {
	if len(r.aliases) == 0 {
		return line
	}
	fields := strings.SplitN(strings.TrimSpace(line), " ", 2)
	replacement, ok := r.aliases[fields[0]]
	if !ok {
		return line
	}
	if len(fields) == 1 {
		return replacement
	}
	return replacement + " " + fields[1]
}
