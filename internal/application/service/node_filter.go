package service

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

const filterMatchTimeout = time.Second

// NodeFilter decides which nodeids are checked. A whitelist match always
// wins; otherwise a blacklist match excludes the node.
type NodeFilter struct {
	whitelist *regexp2.Regexp
	blacklist *regexp2.Regexp
}

// NewNodeFilter compiles the alternation of each pattern list. A list that
// fails to compile is ignored.
func NewNodeFilter(whitelist, blacklist []string) *NodeFilter {
	return &NodeFilter{
		whitelist: compileAlternation(whitelist),
		blacklist: compileAlternation(blacklist),
	}
}

func compileAlternation(patterns []string) *regexp2.Regexp {
	if len(patterns) == 0 {
		return nil
	}
	re, err := regexp2.Compile("("+strings.Join(patterns, ")|(")+")", regexp2.None)
	if err != nil {
		return nil
	}
	re.MatchTimeout = filterMatchTimeout
	return re
}

func search(re *regexp2.Regexp, s string) bool {
	if re == nil {
		return false
	}
	ok, err := re.MatchString(s)
	return err == nil && ok
}

// ShouldProcess reports whether nodeID passes the filter.
func (f *NodeFilter) ShouldProcess(nodeID string) bool {
	if f == nil {
		return true
	}
	if search(f.whitelist, nodeID) {
		return true
	}
	return !search(f.blacklist, nodeID)
}
