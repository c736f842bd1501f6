package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeFilter_ShouldProcess(t *testing.T) {
	tests := []struct {
		name      string
		whitelist []string
		blacklist []string
		nodeID    string
		want      bool
	}{
		{name: "no patterns", nodeID: "t.py::test_a", want: true},
		{name: "blacklisted", blacklist: []string{"test_skip"}, nodeID: "t.py::test_skip_me", want: false},
		{name: "not blacklisted", blacklist: []string{"test_skip"}, nodeID: "t.py::test_run", want: true},
		{
			name:      "whitelist wins over blacklist",
			whitelist: []string{"test_skip_but_keep"},
			blacklist: []string{"test_skip"},
			nodeID:    "t.py::test_skip_but_keep",
			want:      true,
		},
		{
			name:      "whitelist miss falls through to blacklist",
			whitelist: []string{"other"},
			blacklist: []string{"t\\.py"},
			nodeID:    "t.py::test_a",
			want:      false,
		},
		{
			name:      "alternation of patterns",
			blacklist: []string{"^nope", "cfme/tests/infra"},
			nodeID:    "cfme/tests/infra/test_x.py::test_a",
			want:      false,
		},
		{
			name:      "lookahead syntax",
			blacklist: []string{"test_(?!keep)"},
			nodeID:    "t.py::test_drop",
			want:      false,
		},
		{
			name:      "uncompilable list is ignored",
			blacklist: []string{"("},
			nodeID:    "t.py::test_a",
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewNodeFilter(tt.whitelist, tt.blacklist)
			assert.Equal(t, tt.want, f.ShouldProcess(tt.nodeID))
		})
	}
}

func TestNodeFilter_Nil(t *testing.T) {
	var f *NodeFilter
	assert.True(t, f.ShouldProcess("anything"))
}
