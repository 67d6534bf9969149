package procenv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironSeparatorsFirst(t *testing.T) {
	entries := Environ()
	require.GreaterOrEqual(t, len(entries), 2)
	assert.Equal(t, "NAILGUN_FILESEPARATOR="+string(os.PathSeparator), entries[0])
	assert.Equal(t, "NAILGUN_PATHSEPARATOR="+string(os.PathListSeparator), entries[1])
}

func TestEnvironIncludesProcessTable(t *testing.T) {
	t.Setenv("PROCENV_TEST_MARKER", "present")
	entries := Environ()
	assert.Contains(t, entries, "PROCENV_TEST_MARKER=present")
	for _, entry := range entries {
		assert.True(t, strings.Contains(entry, "="), "entry %q missing separator", entry)
	}
}

func TestEnvironDeterministicWithinRun(t *testing.T) {
	assert.Equal(t, Environ(), Environ())
}

func TestWorkdirAbsolute(t *testing.T) {
	wd, err := Workdir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(wd), "workdir %q not absolute", wd)
}
