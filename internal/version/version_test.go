package version

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionInfo(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		commit    string
		buildTime string
		want      VersionInfo
	}{
		{
			name: "empty values use defaults",
			want: VersionInfo{Version: DefaultVersion, Commit: DefaultCommit, BuildTime: DefaultBuildTime},
		},
		{
			name:      "all values set",
			version:   "v1.0.0",
			commit:    "abc123",
			buildTime: "2025-01-01T00:00:00Z",
			want:      VersionInfo{Version: "v1.0.0", Commit: "abc123", BuildTime: "2025-01-01T00:00:00Z"},
		},
		{
			name:   "only commit",
			commit: "def456",
			want:   VersionInfo{Version: DefaultVersion, Commit: "def456", BuildTime: DefaultBuildTime},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetBuildVars(tt.version, tt.commit, tt.buildTime)
			defer ResetBuildVars()

			assert.Equal(t, tt.want, *NewVersionInfo())
		})
	}
}

func TestVersionInfo_Formats(t *testing.T) {
	info := &VersionInfo{Version: "v1.2.3", Commit: "abc", BuildTime: "2025-06-15T10:30:00Z"}

	assert.Equal(t, "v1.2.3", info.FormatShort())
	assert.Equal(t, "polarionlint\nVersion: v1.2.3\nCommit: abc\nBuilt: 2025-06-15T10:30:00Z\n", info.FormatFull())

	var short, full bytes.Buffer
	require.NoError(t, info.Write(&short, true))
	require.NoError(t, info.Write(&full, false))
	assert.Equal(t, "v1.2.3\n", short.String())
	assert.Equal(t, info.FormatFull(), full.String())
}

func TestVersionInfo_IsDevelopment(t *testing.T) {
	ResetBuildVars()
	assert.True(t, GetVersion().IsDevelopment())

	SetBuildVars("v1.0.0", "", "")
	defer ResetBuildVars()
	assert.False(t, GetVersion().IsDevelopment())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("write failed") }

func TestVersionInfo_WriteErrors(t *testing.T) {
	info := NewVersionInfo()
	assert.Error(t, info.WriteShort(failingWriter{}))
	assert.Error(t, info.WriteFull(failingWriter{}))
}
