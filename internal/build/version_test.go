package build

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionFormat(t *testing.T) {
	t.Parallel()

	version := Version()
	require.Regexp(t, `^\d+\.\d+\.\d+(-[0-9a-z-.]+)?$`, version)
}

func TestTags(t *testing.T) {
	t.Parallel()

	// RawTags is set via ldflags; with none set, Tags must be empty.
	if RawTags == "" {
		require.Nil(t, Tags())
	} else {
		require.NotEmpty(t, Tags())
	}
}
