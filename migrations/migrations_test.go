package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFS_ContainsOrderedGooseFiles(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.Equal(t, []string{"00001_documents.sql", "00002_auth_limiter.sql"}, files)

	for _, f := range files {
		b, err := fs.ReadFile(FS, f)
		require.NoError(t, err)
		require.True(t, strings.Contains(string(b), "-- +goose Up"), f)
		require.True(t, strings.Contains(string(b), "-- +goose Down"), f)
	}
}
