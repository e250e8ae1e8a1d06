package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	SolverURL string `json:"solver_url"`
	StationID int    `json:"station_id"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gasbuddy.json5")
	err := os.WriteFile(path, []byte(`{
	// json5 comments are allowed
	solver_url: "http://localhost:8191/v1",
	station_id: 205033,
}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8191/v1", cfg.SolverURL)
	require.Equal(t, 205033, cfg.StationID)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(
		filepath.Join(dir, "gasbuddy.json5"),
		[]byte(`{solver_url: "http://localhost:8191/v1", station_id: 205033}`),
		0600,
	)
	require.NoError(t, err)
	err = os.WriteFile(
		filepath.Join(dir, "gasbuddy.local.json5"),
		[]byte(`{station_id: 197274}`),
		0600,
	)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "gasbuddy.json5"))
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8191/v1", cfg.SolverURL)
	require.Equal(t, 197274, cfg.StationID)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "gasbuddy.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
