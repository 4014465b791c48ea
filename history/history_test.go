package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingNewestFirst(t *testing.T) {
	r := NewRing(10)
	r.Push("pwd")
	r.Push("ls -l")

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, "ls -l", r.At(0))
	assert.Equal(t, "pwd", r.At(1))
	assert.Equal(t, "", r.At(2))
	assert.Equal(t, "", r.At(-1))
}

func TestRingEvictsOldest(t *testing.T) {
	const capacity = 5
	r := NewRing(capacity)
	for i := 0; i <= capacity; i++ {
		r.Push(fmt.Sprintf("cmd-%d", i))
	}

	assert.Equal(t, capacity, r.Len())
	assert.Equal(t, "cmd-5", r.At(0))
	// cmd-0 evicted; oldest survivor is cmd-1.
	assert.Equal(t, "cmd-1", r.At(capacity-1))
}

func TestRingReset(t *testing.T) {
	r := NewRing(5)
	r.Push("ls")
	r.Push("pwd")
	r.Reset()

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, "", r.At(0))

	r.Push("df")
	assert.Equal(t, "df", r.At(0))
}

func TestRingSkipsBlanksAndDuplicates(t *testing.T) {
	r := NewRing(10)
	r.Push("")
	r.Push("   ")
	r.Push("ls")
	r.Push("ls")

	assert.Equal(t, 1, r.Len())
}

func TestRingSearch(t *testing.T) {
	r := NewRing(10)
	r.Push("ifconfig eth0")
	r.Push("pwd")
	r.Push("ls")

	idx := r.Search("ifc", 0)
	assert.Equal(t, 2, idx)
	assert.Equal(t, "ifconfig eth0", r.At(idx))

	// Nothing older than the match itself.
	assert.Equal(t, -1, r.Search("ifc", idx+1))
	assert.Equal(t, -1, r.Search("nope", 0))
	assert.Equal(t, -1, r.Search("", 0))
}

func TestLoadAndAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")

	require.NoError(t, Append(path, "pwd"))
	require.NoError(t, Append(path, "ls -l"))
	require.NoError(t, Append(path, ""))

	r := NewRing(10)
	require.NoError(t, r.Load(path))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, "ls -l", r.At(0))
	assert.Equal(t, "pwd", r.At(1))
}

func TestLoadMissingFile(t *testing.T) {
	r := NewRing(10)
	assert.NoError(t, r.Load(filepath.Join(t.TempDir(), "absent")))
	assert.Equal(t, 0, r.Len())
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	require.NoError(t, Append(path, "pwd"))
	require.NoError(t, Clear(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	assert.NoError(t, Clear(filepath.Join(t.TempDir(), "absent")))
}
