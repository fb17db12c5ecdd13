package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg := LoadFrom("")

	require.Len(t, cfg.Feeds, 1)
	assert.Equal(t, "reddit", cfg.Feeds[0].Scanner)
	assert.Equal(t, 100, cfg.Feeds[0].Limit)
	assert.Equal(t, "KR", cfg.Spotify.Market)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
	assert.Equal(t, []string{"reddit.com", "redd.it"}, cfg.Extractor.SelfDomains)
}

func TestLoadFromFileKeepsUnsetDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
database:
  path: /tmp/other.db
scheduler:
  timezone: Asia/Seoul
feeds:
  - name: test
    url: https://example.org/new.json
    allowedFlairs: [News]
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg := LoadFrom(path)

	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, "https://api.spotify.com/v1", cfg.Spotify.APIURL)
	require.Len(t, cfg.Feeds, 1)
	assert.Equal(t, "reddit", cfg.Feeds[0].Scanner)
	assert.Equal(t, "day", cfg.Feeds[0].Window)
	assert.Equal(t, []string{"News"}, cfg.Feeds[0].AllowedFlairs)
	assert.Equal(t, "Asia/Seoul", cfg.Scheduler.Location().String())
}

func TestLoadFromBrokenFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feeds: [unterminated"), 0o600))

	cfg := LoadFrom(path)
	assert.Equal(t, "./khiphop.db", cfg.Database.Path)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(spotifyClientIDEnv, "id")
	t.Setenv(spotifySecretEnv, "secret")
	t.Setenv(openAIAPIKeyEnv, "sk-test")
	t.Setenv(databasePathEnv, "/data/k.db")

	cfg := LoadFrom("")

	assert.True(t, cfg.Spotify.Enabled())
	assert.Equal(t, "sk-test", cfg.ChatGPT.APIKey)
	assert.Equal(t, "/data/k.db", cfg.Database.Path)
	assert.False(t, cfg.WordPress.Enabled())
}
