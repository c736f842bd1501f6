package service

import (
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// TestsDirCache classifies directories as tests directories: a directory is
// one when it or any ancestor holds the sentinel file. Results are cached for
// every directory visited on the way up.
type TestsDirCache struct {
	fs       afero.Fs
	sentinel string

	mu       sync.Mutex
	tests    map[string]struct{}
	nonTests map[string]struct{}
}

// NewTestsDirCache creates an empty cache over fs.
func NewTestsDirCache(fs afero.Fs, sentinel string) *TestsDirCache {
	return &TestsDirCache{
		fs:       fs,
		sentinel: sentinel,
		tests:    make(map[string]struct{}),
		nonTests: make(map[string]struct{}),
	}
}

// IsTestsFile reports whether path lies inside a tests directory.
func (c *TestsDirCache) IsTestsFile(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return c.IsTestsDir(filepath.Dir(abs))
}

// IsTestsDir reports whether dir is a tests directory.
func (c *TestsDirCache) IsTestsDir(dir string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var visited []string
	for {
		if _, ok := c.tests[dir]; ok {
			c.remember(c.tests, visited)
			return true
		}
		if _, ok := c.nonTests[dir]; ok {
			c.remember(c.nonTests, visited)
			return false
		}
		visited = append(visited, dir)
		if exists, _ := afero.Exists(c.fs, filepath.Join(dir, c.sentinel)); exists {
			c.remember(c.tests, visited)
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			c.remember(c.nonTests, visited)
			return false
		}
		dir = parent
	}
}

func (c *TestsDirCache) remember(set map[string]struct{}, dirs []string) {
	for _, d := range dirs {
		set[d] = struct{}{}
	}
}
