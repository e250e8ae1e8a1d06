package tokenstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundtrip(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "token.json"))

	require.False(t, store.Exists())
	require.Equal(t, "", store.Get())

	err := store.Set("1.i+hEh7FkvCjr/eBk")
	require.NoError(t, err)

	require.True(t, store.Exists())
	require.Equal(t, "1.i+hEh7FkvCjr/eBk", store.Get())
}

func TestSetCreatesParentDirectories(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "nested", "deeper", "token.json"))

	require.NoError(t, store.Set("1.i+hEh7FkvCjr/eBk"))
	require.Equal(t, "1.i+hEh7FkvCjr/eBk", store.Get())
}

func TestUndersizedRecordIsNotTrusted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"gbcsrf":"x"}`), 0600))

	store := New(path)
	require.False(t, store.Exists())
}

func TestCorruptRecordReadsAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json at all ............"), 0600))

	store := New(path)
	require.Equal(t, "", store.Get())
}

func TestClear(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "token.json"))

	// clearing an absent record is fine
	require.NoError(t, store.Clear())

	require.NoError(t, store.Set("1.i+hEh7FkvCjr/eBk"))
	require.NoError(t, store.Clear())
	require.False(t, store.Exists())
	require.Equal(t, "", store.Get())
}
