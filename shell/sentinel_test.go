package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "f81d4fae-7dec-11d0-a765-00a0c91e6bf6"

func TestScanSentinelComplete(t *testing.T) {
	text := "4\n\x02123;0;/home/user;" + testToken + "\x03"

	clean, carry, meta, found := scanSentinel(text, testToken)
	require.True(t, found)
	assert.Equal(t, "4\n", clean)
	assert.Empty(t, carry)
	assert.Equal(t, 123, meta.PID)
	assert.Equal(t, 0, meta.ExitCode)
	assert.Equal(t, "/home/user", meta.Cwd)
}

func TestScanSentinelSplitAcrossReads(t *testing.T) {
	// First read ends mid-sentinel: the fragment is withheld.
	clean, carry, _, found := scanSentinel("output\x02123;0;/ho", testToken)
	assert.False(t, found)
	assert.Equal(t, "output", clean)
	assert.Equal(t, "\x02123;0;/ho", carry)

	// Second read completes it.
	clean, carry, meta, found := scanSentinel(carry+"me;"+testToken+"\x03", testToken)
	require.True(t, found)
	assert.Empty(t, clean)
	assert.Empty(t, carry)
	assert.Equal(t, "/home", meta.Cwd)
}

func TestScanSentinelNoMarker(t *testing.T) {
	clean, carry, meta, found := scanSentinel("plain output\n", testToken)
	assert.False(t, found)
	assert.Nil(t, meta)
	assert.Empty(t, carry)
	assert.Equal(t, "plain output\n", clean)
}

func TestScanSentinelForeignMarkerPassesThrough(t *testing.T) {
	// An STX/ETX pair with the wrong token is ordinary output.
	text := "a\x02not;a;sentinel;wrong-token\x03b"
	clean, carry, _, found := scanSentinel(text, testToken)
	assert.False(t, found)
	assert.Empty(t, carry)
	assert.Equal(t, text, clean)
}

func TestScanSentinelStrayStartMarkerBeforeSentinel(t *testing.T) {
	// Binary output may drop a bare STX byte right before the real
	// sentinel; the scan must anchor on the token, not the first STX.
	text := "bin\x02ary\x0299;3;/tmp;" + testToken + "\x03"

	clean, carry, meta, found := scanSentinel(text, testToken)
	require.True(t, found)
	assert.Equal(t, "bin\x02ary", clean)
	assert.Empty(t, carry)
	assert.Equal(t, 99, meta.PID)
	assert.Equal(t, 3, meta.ExitCode)
	assert.Equal(t, "/tmp", meta.Cwd)
}

func TestScanSentinelCwdWithSemicolons(t *testing.T) {
	text := "\x0242;7;/tmp/odd;dir;" + testToken + "\x03"
	clean, _, meta, found := scanSentinel(text, testToken)
	require.True(t, found)
	assert.Empty(t, clean)
	assert.Equal(t, 42, meta.PID)
	assert.Equal(t, 7, meta.ExitCode)
	assert.Equal(t, "/tmp/odd;dir", meta.Cwd)
}

func TestSplitCompleteUTF8(t *testing.T) {
	// "ш" is 0xD1 0x88; a read boundary can fall between the bytes.
	full := []byte("4\nш")

	complete, rest := splitCompleteUTF8(full[:3])
	assert.Equal(t, []byte("4\n"), complete)
	assert.Equal(t, []byte{0xD1}, rest)

	complete, rest = splitCompleteUTF8(append(rest, full[3]))
	assert.Equal(t, []byte("ш"), complete)
	assert.Nil(t, rest)
}

func TestSplitCompleteUTF8InvalidMidStream(t *testing.T) {
	// A lone continuation byte in the middle is invalid, not a torn
	// boundary; it must not be held back forever.
	buf := []byte{'a', 0x88, 'b'}
	complete, rest := splitCompleteUTF8(buf)
	assert.Equal(t, buf, complete)
	assert.Nil(t, rest)
}

func TestSentinelTrailerShape(t *testing.T) {
	trailer := sentinelTrailer(testToken)
	assert.Contains(t, trailer, `printf`)
	assert.Contains(t, trailer, testToken)
	assert.Contains(t, trailer, `\002`)
	assert.Contains(t, trailer, `\003`)
}
