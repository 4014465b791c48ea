// Package input turns raw terminal bytes into discrete events and
// reduces them against a line-editing buffer with history navigation
// and reverse search.
package input

import "unicode/utf8"

// Kind classifies a terminal input event.
type Kind int

const (
	KindRune Kind = iota
	KindEnter
	KindBackspace
	KindArrowUp
	KindArrowDown
	KindArrowLeft
	KindArrowRight
	KindCtrl
)

// Control codes the reducer reacts to.
const (
	CtrlA = 0x01
	CtrlC = 0x03
	CtrlE = 0x05
	CtrlG = 0x07
	CtrlR = 0x12
)

// Event is one discrete terminal input: a literal rune, a named key or
// a control code.
type Event struct {
	Kind Kind
	Rune rune
	Ctrl byte
}

// Decode parses raw bytes read from a terminal in raw mode into events.
// An incomplete trailing escape sequence or UTF-8 rune is returned as
// rest so the caller can retry once more bytes arrive.
func Decode(buf []byte) (events []Event, rest []byte) {
	i := 0
	for i < len(buf) {
		b := buf[i]

		switch {
		case b == 0x1b:
			// CSI escape sequence: ESC [ final.
			if i+1 >= len(buf) {
				return events, buf[i:]
			}
			if buf[i+1] != '[' {
				// Bare ESC: ignored.
				i++
				continue
			}
			if i+2 >= len(buf) {
				return events, buf[i:]
			}
			switch buf[i+2] {
			case 'A':
				events = append(events, Event{Kind: KindArrowUp})
			case 'B':
				events = append(events, Event{Kind: KindArrowDown})
			case 'C':
				events = append(events, Event{Kind: KindArrowRight})
			case 'D':
				events = append(events, Event{Kind: KindArrowLeft})
			}
			// Unrecognized finals are dropped.
			i += 3

		case b == '\r' || b == '\n':
			events = append(events, Event{Kind: KindEnter})
			i++

		case b == 0x7f || b == 0x08:
			events = append(events, Event{Kind: KindBackspace})
			i++

		case b < 0x20:
			events = append(events, Event{Kind: KindCtrl, Ctrl: b})
			i++

		default:
			r, size := utf8.DecodeRune(buf[i:])
			if r == utf8.RuneError && size == 1 && !utf8.FullRune(buf[i:]) {
				// Rune split across reads; wait for the remainder.
				return events, buf[i:]
			}
			events = append(events, Event{Kind: KindRune, Rune: r})
			i += size
		}
	}
	return events, nil
}
