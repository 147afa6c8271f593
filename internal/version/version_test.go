package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo_String(t *testing.T) {
	tests := []struct {
		name     string
		info     Info
		expected string
	}{
		{
			name:     "dev build",
			info:     Info{Version: "dev", GoVersion: "go1.25.0", Platform: "linux/amd64"},
			expected: "fika-prep dev (go1.25.0, linux/amd64)",
		},
		{
			name: "release build",
			info: Info{
				Version:   "v0.3.0",
				GitCommit: "0123456789abcdef",
				BuildDate: "2026-10-01",
				GoVersion: "go1.25.0",
				Platform:  "darwin/arm64",
			},
			expected: "fika-prep v0.3.0 (go1.25.0, darwin/arm64) commit 0123456 built 2026-10-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.info.String())
		})
	}
}

func TestGetVersion_UsesLdflags(t *testing.T) {
	previous := Version
	t.Cleanup(func() { Version = previous })

	Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", GetVersion())
	assert.Equal(t, "v1.2.3", Get().Version)
}
