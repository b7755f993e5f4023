package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/remo/pkg/db"
	"github.com/urmzd/remo/pkg/device"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestStart_WithoutToken(t *testing.T) {
	t.Setenv("REMO_TOKEN", "")
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "remo.db")

	rt, err := Start(ctx, Options{ConfigPath: writeConfig(t, `log_level = "warn"`), DBPath: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	assert.IsType(t, &device.NullController{}, rt.Controller)
	assert.False(t, rt.Controller.IsConnected())
	assert.Equal(t, "0.0.0.0:8080", rt.APIAddress(""))
	assert.Equal(t, ":9090", rt.APIAddress(":9090"))
}

func TestStart_StoresToken(t *testing.T) {
	t.Setenv("REMO_TOKEN", "")
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "remo.db")
	cfgPath := writeConfig(t, `[api]
address = "127.0.0.1:8123"`)

	rt, err := Start(ctx, Options{ConfigPath: cfgPath, DBPath: dbPath})
	require.NoError(t, err)
	token, err := rt.token(ctx, "secret")
	require.NoError(t, err)
	assert.Equal(t, "secret", token)
	assert.Equal(t, "127.0.0.1:8123", rt.APIAddress(""))
	require.NoError(t, rt.Close())

	database, err := db.Setup(ctx, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	stored, err := database.ActiveConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "secret", stored.Token())
}

func TestStart_StoresAddress(t *testing.T) {
	t.Setenv("REMO_TOKEN", "")
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "remo.db")
	cfgPath := writeConfig(t, "")

	rt, err := Start(ctx, Options{ConfigPath: cfgPath, DBPath: dbPath, Addr: "127.0.0.1:9000"})
	require.NoError(t, err)
	require.NoError(t, rt.Close())

	rt, err = Start(ctx, Options{ConfigPath: cfgPath, DBPath: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	assert.Equal(t, "127.0.0.1:9000", rt.APIAddress(""))

	_, err = Start(ctx, Options{ConfigPath: cfgPath, DBPath: filepath.Join(t.TempDir(), "x.db"), Addr: "bad"})
	assert.Error(t, err)
}

func TestStart_MissingConfig(t *testing.T) {
	_, err := Start(context.Background(), Options{ConfigPath: filepath.Join(t.TempDir(), "nope.toml")})
	assert.Error(t, err)
}
