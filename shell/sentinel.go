package shell

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Sentinel wire format, shared with the child shell. Every executed
// command is suffixed with a printf that reports completion:
//
//	\x02<pid>;<exit_code>;<cwd>;<session_token>\x03
//
// The start/end markers are STX and ETX so ordinary command output
// cannot collide with them.
const (
	sentinelStart = '\x02'
	sentinelEnd   = '\x03'
)

// sentinelTrailer builds the shell fragment appended to each command.
// printf is used instead of echo: octal escapes in the format string are
// portable across POSIX shells.
func sentinelTrailer(token string) string {
	return fmt.Sprintf(`; printf '\002%%s;%%s;%%s;%%s\003' "$$" "$?" "$PWD" '%s'`, token)
}

// completion is the metadata carried by one sentinel.
type completion struct {
	PID      int
	ExitCode int
	Cwd      string
}

// scanSentinel looks for a complete sentinel belonging to token in text.
// The scan anchors on the terminator ";<token>\x03": the token makes it
// unique, so stray STX/ETX bytes in binary command output can never
// shadow the real marker. It returns the text with the sentinel removed,
// the parsed metadata, and whether a complete sentinel was found. A
// trailing start marker whose end marker has not arrived yet is returned
// as the carry so the caller can retry once more data is in.
func scanSentinel(text, token string) (clean, carry string, meta *completion, found bool) {
	terminator := ";" + token + string(sentinelEnd)

	tIdx := strings.Index(text, terminator)
	if tIdx < 0 {
		// Possibly a sentinel still streaming in: withhold the tail
		// from the last unclosed start marker onward.
		if start := strings.LastIndexByte(text, byte(sentinelStart)); start >= 0 &&
			!strings.ContainsRune(text[start:], sentinelEnd) {
			return text[:start], text[start:], nil, false
		}
		return text, "", nil, false
	}
	tEnd := tIdx + len(terminator)

	start := strings.LastIndexByte(text[:tIdx], byte(sentinelStart))
	ok := start >= 0
	if ok {
		meta, ok = parseSentinel(text[start+1 : tIdx])
	}
	if !ok {
		// A terminator with no parseable metadata in front is not a
		// sentinel of ours: pass it through and keep scanning after it.
		rest, restCarry, restMeta, restFound := scanSentinel(text[tEnd:], token)
		return text[:tEnd] + rest, restCarry, restMeta, restFound
	}

	// True command output is everything around the metadata.
	return text[:start] + text[tEnd:], "", meta, true
}

// parseSentinel decodes the "pid;exit;cwd" metadata between the start
// marker and the terminator. The cwd may itself contain semicolons, so
// the pid and exit code are taken from the front and the cwd is whatever
// remains.
func parseSentinel(payload string) (*completion, bool) {
	parts := strings.SplitN(payload, ";", 3)
	if len(parts) != 3 {
		return nil, false
	}

	pid, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, false
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, false
	}

	return &completion{PID: pid, ExitCode: code, Cwd: parts[2]}, true
}

// splitCompleteUTF8 splits buf into its longest decodable prefix and an
// incomplete trailing rune sequence. Reads may end mid-rune; the caller
// keeps the remainder at the byte level until the boundary is confirmed
// rather than decoding a torn sequence.
func splitCompleteUTF8(buf []byte) (complete, rest []byte) {
	if len(buf) == 0 || utf8.Valid(buf) {
		return buf, nil
	}

	// Only the last few bytes can be an incomplete sequence; anything
	// older is genuinely invalid and is passed on as-is (decoding will
	// yield U+FFFD, surfaced by the caller as an InvalidData error).
	max := utf8.UTFMax - 1
	if max > len(buf) {
		max = len(buf)
	}
	for i := 1; i <= max; i++ {
		cut := len(buf) - i
		if utf8.RuneStart(buf[cut]) {
			if utf8.Valid(buf[:cut]) && !utf8.FullRune(buf[cut:]) {
				return buf[:cut], buf[cut:]
			}
			break
		}
	}
	return buf, nil
}
