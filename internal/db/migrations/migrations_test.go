package migrations

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDriverURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@localhost:5432/db?sslmode=disable", driverURL("postgres://u:p@localhost:5432/db?sslmode=disable"))
	require.Equal(t, "pgx5://localhost/db", driverURL("postgresql://localhost/db"))
	require.Equal(t, "pgx5://localhost/db", driverURL("pgx5://localhost/db"))
}

func TestEmbeddedFilesPresent(t *testing.T) {
	entries, err := files.ReadDir(".")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Contains(t, names, "000001_init.up.sql")
	require.Contains(t, names, "000001_init.down.sql")
}
