package secrets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/markb/driveshelf/internal/auth"
)

func setupVaultStore(t *testing.T) *VaultStore {
	t.Helper()
	keyring.MockInit()
	store := NewVaultStore(NewKeyringVault())
	t.Cleanup(func() {
		_ = store.DeleteCredentials()
	})
	return store
}

func TestVaultRoundTrip(t *testing.T) {
	keyring.MockInit()
	v := NewKeyringVault()

	require.NoError(t, v.Set("k", "v"))
	got, err := v.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, v.Delete("k"))
	_, err = v.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is a no-op
	assert.NoError(t, v.Delete("k"))
}

func TestVaultAvailable(t *testing.T) {
	keyring.MockInit()
	assert.True(t, NewKeyringVault().Available())
}

func TestVaultStoreCredentials(t *testing.T) {
	store := setupVaultStore(t)

	creds, err := store.Credentials()
	require.NoError(t, err)
	assert.Nil(t, creds)

	require.NoError(t, store.SaveCredentials(&auth.Credentials{ClientID: "cid", ClientSecret: "sec"}))
	creds, err = store.Credentials()
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "cid", creds.ClientID)
	assert.Equal(t, "sec", creds.ClientSecret)

	require.NoError(t, store.DeleteCredentials())
	creds, err = store.Credentials()
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestVaultStoreSaveTokensRequiresCredentials(t *testing.T) {
	store := setupVaultStore(t)

	err := store.SaveTokens("AT1", "RT1", 3600)
	assert.ErrorIs(t, err, auth.ErrNotConfigured)
}

func TestVaultStoreTokenRoundTrip(t *testing.T) {
	store := setupVaultStore(t)
	require.NoError(t, store.SaveCredentials(&auth.Credentials{ClientID: "cid", ClientSecret: "sec"}))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	require.NoError(t, store.SaveTokens("AT1", "RT1", 3600))
	require.NoError(t, store.SaveAccountEmail("user@example.com"))

	ts, err := store.Tokens()
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, "AT1", ts.AccessToken)
	assert.Equal(t, "RT1", ts.RefreshToken)
	assert.Equal(t, base.Add(time.Hour).Unix(), ts.ExpiresAt.Unix())
	assert.Equal(t, "user@example.com", ts.AccountEmail)
}

func TestVaultStorePreservesRefreshToken(t *testing.T) {
	store := setupVaultStore(t)
	require.NoError(t, store.SaveCredentials(&auth.Credentials{ClientID: "cid", ClientSecret: "sec"}))
	require.NoError(t, store.SaveTokens("AT1", "RT1", 3600))

	// A refresh response without a refresh token or lifetime
	require.NoError(t, store.SaveTokens("AT2", "", 0))

	ts, err := store.Tokens()
	require.NoError(t, err)
	assert.Equal(t, "AT2", ts.AccessToken)
	assert.Equal(t, "RT1", ts.RefreshToken)
	assert.True(t, ts.ExpiresAt.IsZero())
}

func TestVaultStoreClearTokens(t *testing.T) {
	store := setupVaultStore(t)
	require.NoError(t, store.SaveCredentials(&auth.Credentials{ClientID: "cid", ClientSecret: "sec"}))
	require.NoError(t, store.SaveTokens("AT1", "RT1", 3600))

	require.NoError(t, store.ClearTokens())

	ts, err := store.Tokens()
	require.NoError(t, err)
	assert.Nil(t, ts)

	// Credentials survive a token clear
	creds, err := store.Credentials()
	require.NoError(t, err)
	require.NotNil(t, creds)
}
