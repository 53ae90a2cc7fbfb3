package configpkg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	content := "DB_DRIVER=memory\nSERVER_ADDRESS=127.0.0.1:9000\nLOCK_TIMEOUT=250ms\nGO_ENV=development\n"
	err := os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600)
	require.NoError(t, err)

	t.Setenv("SERVER_ADDRESS", "127.0.0.1:9100")

	got, err := Load(dir)
	require.NoError(t, err)

	want := Config{
		DBDriver:      DriverMemory,
		ServerAddress: "127.0.0.1:9100",
		LockTimeout:   250 * time.Millisecond,
		Environement:  "development",
	}
	require.Equal(t, want, got)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
}
