package credentials_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"invoicedesk/internal/credentials"
)

func storePath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "nested", "credentials.json")
}

func TestStore_RoundTrip(t *testing.T) {
	path := storePath(t)
	store := credentials.NewStore(path, "correct horse battery staple")

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok, "empty store")

	require.NoError(t, store.Save("  sk_test_51HxYzAbCdEfGh1234  "))

	secret, ok, err := store.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sk_test_51HxYzAbCdEfGh1234", secret)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk_test_51HxYzAbCdEfGh1234", "secret is not stored in clear")

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	store := credentials.NewStore(storePath(t), "passphrase")

	require.NoError(t, store.Save("sk_test_first_key_0001"))
	require.NoError(t, store.Save("rk_test_second_key_0002"))

	secret, ok, err := store.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "rk_test_second_key_0002", secret)
}

func TestStore_WrongPassphrase(t *testing.T) {
	path := storePath(t)
	require.NoError(t, credentials.NewStore(path, "right").Save("sk_test_secret_value"))

	_, ok, err := credentials.NewStore(path, "wrong").Load()
	assert.False(t, ok)
	assert.ErrorIs(t, err, credentials.ErrDecrypt)
}

func TestStore_EncryptionUnavailable(t *testing.T) {
	store := credentials.NewStore(storePath(t), "")

	assert.False(t, store.Available())
	assert.ErrorIs(t, store.Save("sk_test_secret_value"), credentials.ErrEncryptionUnavailable)

	_, _, err := store.Load()
	assert.ErrorIs(t, err, credentials.ErrEncryptionUnavailable)
}

func TestStore_Clear(t *testing.T) {
	path := storePath(t)
	store := credentials.NewStore(path, "passphrase")

	require.NoError(t, store.Clear(), "clearing an empty store")

	require.NoError(t, store.Save("sk_test_secret_value"))
	require.NoError(t, store.Clear())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_RejectsEmptySecret(t *testing.T) {
	store := credentials.NewStore(storePath(t), "passphrase")
	assert.ErrorIs(t, store.Save("   "), credentials.ErrEmptySecret)
}

func TestStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, ok, err := credentials.NewStore(path, "passphrase").Load()
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", ""},
		{"sk_test_51HxYzAbCdEfGh1234", "sk_test_...1234"},
		{"sk_live_abcd", "************"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, credentials.MaskKey(tt.key), "key %q", tt.key)
	}
}
