package devenv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	plain, err := ResolvePath("data/guildexp.db")
	require.NoError(t, err)
	require.Equal(t, "data/guildexp.db", plain)

	root, err := GetWorkspaceRoot()
	require.NoError(t, err)

	resolved, err := ResolvePath("<dev_state>/guildexp.db")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "dev", ".state", "guildexp.db"), resolved)
}
