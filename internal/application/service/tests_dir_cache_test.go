package service

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestsDirCache(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/tests/conftest.py", nil, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/tests/unit/test_a.py", nil, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/lib/util.py", nil, 0o644))

	cache := NewTestsDirCache(fs, "conftest.py")

	assert.True(t, cache.IsTestsFile("/proj/tests/unit/test_a.py"))
	assert.True(t, cache.IsTestsFile("/proj/tests/test_b.py"))
	assert.False(t, cache.IsTestsFile("/proj/lib/util.py"))

	_, cached := cache.tests["/proj/tests/unit"]
	assert.True(t, cached, "visited directories are remembered")
	_, cached = cache.nonTests["/proj/lib"]
	assert.True(t, cached)
	_, cached = cache.nonTests["/"]
	assert.True(t, cached)

	// removing the sentinel does not change cached answers
	require.NoError(t, fs.Remove("/proj/tests/conftest.py"))
	assert.True(t, cache.IsTestsFile("/proj/tests/unit/test_a.py"))
}

func TestTestsDirCache_CustomSentinel(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/qa/.polarion", nil, 0o644))

	cache := NewTestsDirCache(fs, ".polarion")
	assert.True(t, cache.IsTestsDir("/proj/qa/deep/er"))
	assert.False(t, cache.IsTestsDir("/proj"))
}
