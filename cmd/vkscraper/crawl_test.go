package main

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vkscraper/pkg/auth"
	"vkscraper/pkg/config"
)

func TestCrawlFlagsOnlyChanged(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addCrawlFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--delay", "2s", "--peer-kinds", "user,chat", "--continue-on-error"}))

	flags := crawlFlags(cmd)
	assert.Equal(t, 2*time.Second, flags["delay"])
	assert.Equal(t, []string{"user", "chat"}, flags["peer-kinds"])
	assert.Equal(t, true, flags["continue-on-error"])
	assert.NotContains(t, flags, "token")
	assert.NotContains(t, flags, "requests-per-second")

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(flags)
	assert.Equal(t, 2*time.Second, cfg.Download.Delay)
	assert.Equal(t, 3, cfg.VK.RequestsPerSecond)
}

func TestResolveTokenKeepsConfiguredToken(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.VK.AccessToken = "from-env"

	source, err := resolveToken(cfg, "", func() (*auth.Manager, error) {
		t.Fatal("credential store should not be opened")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "configuration", source)
	assert.Equal(t, "from-env", cfg.VK.AccessToken)
}

func TestResolveTokenFromStore(t *testing.T) {
	manager, store := auth.NewMockManager()
	require.NoError(t, store.Store(&auth.Account{Name: auth.DefaultAccount, AccessToken: "stored", LastModified: time.Now()}))
	require.NoError(t, store.Store(&auth.Account{Name: "work", AccessToken: "work-token", LastModified: time.Now()}))
	newManager := func() (*auth.Manager, error) { return manager, nil }

	cfg := config.DefaultConfig()
	source, err := resolveToken(cfg, "", newManager)
	require.NoError(t, err)
	assert.Equal(t, "account default", source)
	assert.Equal(t, "stored", cfg.VK.AccessToken)

	// An explicit account beats a configured token
	cfg.VK.AccessToken = "from-env"
	_, err = resolveToken(cfg, "work", newManager)
	require.NoError(t, err)
	assert.Equal(t, "work-token", cfg.VK.AccessToken)
}

func TestResolveTokenMissing(t *testing.T) {
	manager, _ := auth.NewMockManager()

	_, err := resolveToken(config.DefaultConfig(), "", func() (*auth.Manager, error) { return manager, nil })
	assert.ErrorIs(t, err, auth.ErrCredentialsNotFound)

	_, err = resolveToken(config.DefaultConfig(), "", func() (*auth.Manager, error) { return nil, errors.New("no home") })
	assert.ErrorContains(t, err, "no home")
}

func TestApplyOutputMode(t *testing.T) {
	t.Cleanup(func() {
		useTUI, verbose, logLevel = false, false, ""
	})

	cfg := config.DefaultConfig()
	applyOutputMode(cfg)
	assert.Equal(t, "error", cfg.Logging.Level)

	verbose = true
	cfg = config.DefaultConfig()
	applyOutputMode(cfg)
	assert.Equal(t, "info", cfg.Logging.Level)

	useTUI = true
	cfg = config.DefaultConfig()
	applyOutputMode(cfg)
	assert.True(t, cfg.Logging.DisableConsole)
}
