package config_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"hackersnooze/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := config.NewManagerWithFs(fs, "/data")

	settings, err := m.Load()
	require.NoError(t, err)
	require.Equal(t, config.DefaultSettings("/data"), settings)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()

	custom := config.Settings{
		APIBaseURL:            "http://localhost:9999",
		RequestTimeoutSeconds: 5,
		DatabasePath:          "/data/other.db",
		LogPath:               "/data/other.log",
	}
	require.NoError(t, config.NewManagerWithFs(fs, "/data").Save(custom))

	// A fresh manager over the same fs reads the saved settings back.
	settings, err := config.NewManagerWithFs(fs, "/data").Load()
	require.NoError(t, err)
	require.Equal(t, custom, settings)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/config.json", []byte("{not json"), 0644))

	_, err := config.NewManagerWithFs(fs, "/data").Load()
	require.Error(t, err)
}

func TestLoadCachesAfterFirstRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := config.NewManagerWithFs(fs, "/data")

	first, err := m.Load()
	require.NoError(t, err)

	// Changing the file after the first read does not affect the cached view.
	require.NoError(t, afero.WriteFile(fs, "/data/config.json", []byte(`{"apiBaseUrl":"http://changed"}`), 0644))

	second, err := m.Load()
	require.NoError(t, err)
	require.Equal(t, first, second)
}
