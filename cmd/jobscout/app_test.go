package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppConfig_Defaults(t *testing.T) {
	cfg, err := loadAppConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 30*time.Minute, cfg.ScrapeInterval())
	assert.Equal(t, 24*time.Hour, cfg.Lookback())
	assert.True(t, cfg.IndeedEnabled)
	assert.True(t, cfg.LinkedInEnabled)
}

func TestLoadAppConfig_FileMergedOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `{
		"scrape_interval_minutes": 60,
		"linkedin_enabled": true,
		"indeed_enabled": true,
		"smtp_host": "mail.example.com"
	}`)

	cfg, err := loadAppConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 60*time.Minute, cfg.ScrapeInterval())
	assert.Equal(t, "mail.example.com", cfg.SMTPHost)
	// Unset fields come from defaults
	assert.Equal(t, 5*time.Minute, cfg.NotifyInterval())
	assert.Equal(t, 90*24*time.Hour, cfg.PostingRetention())
}

func TestLoadAppConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `{"database_url": "postgres://file/db", "indeed_enabled": true}`)
	t.Setenv("DATABASE_URL", "postgres://env/db")

	cfg, err := loadAppConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
}

func TestLoadAppConfig_InvalidValues(t *testing.T) {
	path := writeConfigFile(t, `{"scrape_interval_minutes": -5, "indeed_enabled": true}`)

	_, err := loadAppConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scrape_interval_minutes")
}

func TestBuildRegistry_Toggles(t *testing.T) {
	cfg, err := loadAppConfig("")
	require.NoError(t, err)

	registry, err := buildRegistry(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"indeed", "linkedin"}, registry.Names())

	cfg.LinkedInEnabled = false
	registry, err = buildRegistry(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"indeed"}, registry.Names())

	cfg.IndeedEnabled = false
	_, err = buildRegistry(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no job board sources enabled")
}
