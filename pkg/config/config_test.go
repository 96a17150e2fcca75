package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 200, config.Crawl.ConversationPageSize)
	assert.Equal(t, 200, config.Crawl.AttachmentPageSize)
	assert.Equal(t, []string{"user"}, config.Crawl.PeerKinds)
	assert.Equal(t, 100*time.Millisecond, config.Download.Delay)
	assert.Equal(t, "./photos", config.Output.BaseDirectory)
	assert.False(t, config.Download.ContinueOnError)
	assert.NoError(t, config.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VKSCRAPER_TOKEN", "env-token")
	t.Setenv("VKSCRAPER_DELAY_MS", "3000")
	t.Setenv("VKSCRAPER_PEER_KINDS", "user, chat")
	t.Setenv("VKSCRAPER_OUTPUT_DIR", "/tmp/vk")
	t.Setenv("VKSCRAPER_REQUESTS_PER_SECOND", "0")
	t.Setenv("VKSCRAPER_CONTINUE_ON_ERROR", "true")
	t.Setenv("VKSCRAPER_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "env-token", config.VK.AccessToken)
	assert.Equal(t, 3*time.Second, config.Download.Delay)
	assert.Equal(t, []string{"user", "chat"}, config.Crawl.PeerKinds)
	assert.Equal(t, "/tmp/vk", config.Output.BaseDirectory)
	assert.Equal(t, 0, config.VK.RequestsPerSecond)
	assert.True(t, config.Download.ContinueOnError)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvLegacyToken(t *testing.T) {
	t.Setenv("VKSCRAPER_TOKEN", "")
	t.Setenv("token", "legacy")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())
	assert.Equal(t, "legacy", config.VK.AccessToken)

	// The prefixed variable wins when both are set
	t.Setenv("VKSCRAPER_TOKEN", "prefixed")
	require.NoError(t, config.LoadFromEnv())
	assert.Equal(t, "prefixed", config.VK.AccessToken)
}

func TestLoadFromEnvInvalidDelay(t *testing.T) {
	t.Setenv("VKSCRAPER_DELAY_MS", "soon")

	config := DefaultConfig()
	assert.Error(t, config.LoadFromEnv())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "page size too large", mutate: func(c *Config) { c.Crawl.ConversationPageSize = 201 }, wantError: true},
		{name: "zero attachment page size", mutate: func(c *Config) { c.Crawl.AttachmentPageSize = 0 }, wantError: true},
		{name: "unknown peer kind", mutate: func(c *Config) { c.Crawl.PeerKinds = []string{"email"} }, wantError: true},
		{name: "no peer kinds", mutate: func(c *Config) { c.Crawl.PeerKinds = nil }, wantError: true},
		{name: "negative delay", mutate: func(c *Config) { c.Download.Delay = -time.Second }, wantError: true},
		{name: "zero delay", mutate: func(c *Config) { c.Download.Delay = 0 }},
		{name: "zero timeout", mutate: func(c *Config) { c.Download.Timeout = 0 }, wantError: true},
		{name: "missing output", mutate: func(c *Config) { c.Output.BaseDirectory = "" }, wantError: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	config := DefaultConfig()
	assert.Error(t, config.ValidateCredentials())

	config.VK.AccessToken = "abc"
	assert.NoError(t, config.ValidateCredentials())
}

func TestLoadFromFileAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	original := DefaultConfig()
	original.Download.Delay = 3 * time.Second
	original.Crawl.PeerKinds = []string{"user", "group"}
	require.NoError(t, original.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 3*time.Second, loaded.Download.Delay)
	assert.Equal(t, []string{"user", "group"}, loaded.Crawl.PeerKinds)
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crawl: [unterminated"), 0644))

	config := DefaultConfig()
	assert.Error(t, config.LoadFromFile(path))
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  base_directory: /from/file\ndownload:\n  delay: 2s\n"), 0644))

	t.Setenv("HOME", dir)
	t.Setenv("VKSCRAPER_OUTPUT_DIR", "/from/env")

	config, err := Load(path, map[string]interface{}{
		"delay": 5 * time.Second,
		"token": "flag-token",
	})
	require.NoError(t, err)

	assert.Equal(t, "/from/env", config.Output.BaseDirectory)
	assert.Equal(t, 5*time.Second, config.Download.Delay)
	assert.Equal(t, "flag-token", config.VK.AccessToken)
}

func TestLoadRejectsInvalidResult(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := Load("", map[string]interface{}{"log-level": "shouting"})
	assert.Error(t, err)
}
