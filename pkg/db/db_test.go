package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Setup(context.Background(), filepath.Join(t.TempDir(), "remo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestSetup_MigratesAndBootstraps(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	v, err := d.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)

	cfg, err := d.ActiveConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Profile.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.APIAddress())
	assert.Equal(t, 60*time.Second, cfg.PollInterval())
	assert.Empty(t, cfg.Token())

	// A second run changes nothing.
	require.NoError(t, d.Migrate(ctx))
	require.NoError(t, d.Bootstrap(ctx))
	profiles, err := d.Profiles().List(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestProfiles_SetActive(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	p := &Profile{Name: "cabin", Timezone: "Asia/Tokyo"}
	require.NoError(t, d.Profiles().Create(ctx, p))
	require.NoError(t, d.Profiles().SetActive(ctx, p.ID))

	active, err := d.Profiles().GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cabin", active.Name)
	assert.Equal(t, "Asia/Tokyo", active.Timezone)
	assert.Equal(t, 60*time.Second, active.PollInterval)

	assert.ErrorIs(t, d.Profiles().SetActive(ctx, 999), ErrProfileNotFound)
	assert.ErrorIs(t, d.Profiles().Delete(ctx, 999), ErrProfileNotFound)
}

func TestAccounts(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	cfg, err := d.ActiveConfig(ctx)
	require.NoError(t, err)
	id := cfg.Profile.ID

	_, err = d.Accounts().Get(ctx, id)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, d.Accounts().Save(ctx, &Account{ProfileID: id, Token: "t1"}))
	require.NoError(t, d.Accounts().Save(ctx, &Account{ProfileID: id, Token: "t2", Nickname: "me"}))

	cfg, err = d.ActiveConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t2", cfg.Token())
	assert.Equal(t, "me", cfg.Account.Nickname)
}

func TestClimateStates(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	store := d.ClimateStates(1)

	_, err := store.Get(ctx, "ac-1")
	assert.ErrorIs(t, err, ErrClimateStateNotFound)

	require.NoError(t, store.Save(ctx, "ac-1", []byte(`{"mode_target_temp_idx":{"cool":1}}`)))
	require.NoError(t, store.Save(ctx, "ac-1", []byte(`{"mode_target_temp_idx":{"cool":2}}`)))

	data, err := store.Get(ctx, "ac-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode_target_temp_idx":{"cool":2}}`, string(data))

	require.NoError(t, store.Delete(ctx, "ac-1"))
	assert.ErrorIs(t, store.Delete(ctx, "ac-1"), ErrClimateStateNotFound)
}

func TestDeviceNames(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	names := d.DeviceNames(1)

	require.NoError(t, names.Set(ctx, "ac-1", "Bedroom AC"))
	require.NoError(t, names.Set(ctx, "tv-1", "TV"))
	require.NoError(t, names.Set(ctx, "tv-1", ""))

	got, err := names.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ac-1": "Bedroom AC"}, got)
}

func TestAPIServers(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	a, err := d.APIServers().Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", a.Address())

	require.NoError(t, d.APIServers().Save(ctx, 1, ":9090"))
	a, err = d.APIServers().Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", a.Address())

	require.NoError(t, d.APIServers().Save(ctx, 1, "127.0.0.1:8123"))
	a, err = d.APIServers().Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8123", a.Address())

	assert.Error(t, d.APIServers().Save(ctx, 1, "nonsense"))
	assert.Error(t, d.APIServers().Save(ctx, 1, "host:0"))

	_, err = d.APIServers().Get(ctx, 42)
	assert.ErrorIs(t, err, ErrAPIServerNotFound)
}
