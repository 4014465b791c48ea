// Package parser splits a raw input line into quoted (literal) and
// unquoted (shell-expression) regions and transliterates only the
// executable parts. Quote and command-substitution nesting is tracked
// with an explicit stack of context frames; an unbalanced construct at
// end of input is reported as ErrMissingToken and no partial command
// ever reaches the shell.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"cyrsh/translit"
)

// ErrMissingToken reports an unterminated quote or expression, or a
// closing token with no matching opener.
var ErrMissingToken = errors.New("missing token")

// frame is one nesting level of the scanner state.
type frame struct {
	// escaped marks a quoted block whose content is copied verbatim.
	escaped bool
	// quote is the rune that opened the block (0 inside an expression).
	quote rune
	// expression marks a $( ... ) substitution. Its content is
	// executable shell and is transliterated even when the frame sits
	// inside an outer quoted block.
	expression bool
}

// Translate transliterates the executable regions of line using tr,
// leaving quoted literals untouched. Content of $( ... ) substitutions
// is always transliterated, even inside quotes.
func Translate(line string, tr translit.Transliterator) (string, error) {
	runes := []rune(line)
	var out strings.Builder
	out.Grow(len(line))

	var stack []frame
	// pending accumulates a run of runes sharing one mode until the
	// mode flips, then it is flushed in one piece.
	var pending []rune
	backslash := false

	top := func() *frame {
		if len(stack) == 0 {
			return nil
		}
		return &stack[len(stack)-1]
	}
	literal := func() bool {
		f := top()
		return f != nil && f.escaped
	}
	flush := func(wasLiteral bool) {
		if len(pending) == 0 {
			return
		}
		if wasLiteral {
			out.WriteString(string(pending))
		} else {
			out.WriteString(tr.ToLatin(string(pending)))
		}
		pending = pending[:0]
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if backslash {
			pending = append(pending, r)
			backslash = false
			continue
		}

		switch {
		case r == '\\':
			backslash = true
			pending = append(pending, r)

		case r == '$' && i+1 < len(runes) && runes[i+1] == '(':
			// Substitution marker: opens an expression anywhere, even
			// inside a quoted block. The marker itself is not translated.
			flush(literal())
			out.WriteString("$(")
			stack = append(stack, frame{expression: true})
			i++

		case r == '(' && !literal():
			// Bare parenthesis outside quotes is an expression opener.
			flush(false)
			out.WriteRune('(')
			stack = append(stack, frame{expression: true})

		case r == ')':
			if f := top(); f != nil && f.expression {
				flush(false)
				out.WriteRune(')')
				stack = stack[:len(stack)-1]
				break
			}
			if literal() {
				pending = append(pending, r)
				break
			}
			return "", fmt.Errorf("%w: ')' with no matching '$('", ErrMissingToken)

		case r == '"' || r == '\'':
			f := top()
			if f != nil && f.escaped && f.quote == r {
				// Closing quote of the current literal block.
				flush(true)
				out.WriteRune(r)
				stack = stack[:len(stack)-1]
				break
			}
			if f != nil && f.escaped {
				// A different quote inside a literal block is content.
				pending = append(pending, r)
				break
			}
			flush(false)
			out.WriteRune(r)
			stack = append(stack, frame{escaped: true, quote: r})

		default:
			pending = append(pending, r)
		}
	}

	if backslash {
		return "", fmt.Errorf("%w: trailing backslash", ErrMissingToken)
	}
	if len(stack) != 0 {
		f := stack[len(stack)-1]
		if f.expression {
			return "", fmt.Errorf("%w: unterminated '$('", ErrMissingToken)
		}
		return "", fmt.Errorf("%w: unterminated %q", ErrMissingToken, f.quote)
	}

	flush(false)
	return out.String(), nil
}
