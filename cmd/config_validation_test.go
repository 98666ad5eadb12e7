package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validTestConfig() map[string]any {
	return map[string]any{
		"settings.airtable.api_key":           "key-123",
		"settings.airtable.base_id":           "appBASE",
		"settings.airtable.table":             "Files",
		"settings.drive.credential_file":      "service-account.json",
		"settings.server.public_url":          "https://bridge.example.com",
		"settings.staging.dir":                "/var/lib/bridge/staging",
		"settings.staging.retention_sec":      300,
		"settings.staging.sweep_interval_sec": 60,
	}
}

func getterFor(cfg map[string]any) configGetter {
	return func(key string) any { return cfg[key] }
}

func TestValidateStartupConfig(t *testing.T) {
	t.Parallel()

	t.Run("nil getter", func(t *testing.T) {
		t.Parallel()
		require.Error(t, validateStartupConfigWithGetter(nil))
	})

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, validateStartupConfigWithGetter(getterFor(validTestConfig())))
	})

	t.Run("missing required keys are all reported", func(t *testing.T) {
		t.Parallel()

		cfg := validTestConfig()
		delete(cfg, "settings.airtable.api_key")
		delete(cfg, "settings.drive.credential_file")

		err := validateStartupConfigWithGetter(getterFor(cfg))
		require.Error(t, err)
		require.Contains(t, err.Error(), "settings.airtable.api_key is required")
		require.Contains(t, err.Error(), "settings.drive.credential_file is required")
	})

	t.Run("blank string counts as missing", func(t *testing.T) {
		t.Parallel()

		cfg := validTestConfig()
		cfg["settings.airtable.base_id"] = "   "

		err := validateStartupConfigWithGetter(getterFor(cfg))
		require.Error(t, err)
		require.Contains(t, err.Error(), "settings.airtable.base_id is required")
	})

	t.Run("relative public url rejected", func(t *testing.T) {
		t.Parallel()

		cfg := validTestConfig()
		cfg["settings.server.public_url"] = "bridge.example.com/api"

		err := validateStartupConfigWithGetter(getterFor(cfg))
		require.Error(t, err)
		require.Contains(t, err.Error(), "absolute http(s) url")
	})

	t.Run("retention below minimum", func(t *testing.T) {
		t.Parallel()

		cfg := validTestConfig()
		cfg["settings.staging.retention_sec"] = 0

		err := validateStartupConfigWithGetter(getterFor(cfg))
		require.Error(t, err)
		require.Contains(t, err.Error(), "settings.staging.retention_sec must be >= 1")
	})

	t.Run("retention wrong type", func(t *testing.T) {
		t.Parallel()

		cfg := validTestConfig()
		cfg["settings.staging.retention_sec"] = "five minutes"

		err := validateStartupConfigWithGetter(getterFor(cfg))
		require.Error(t, err)
		require.Contains(t, err.Error(), "settings.staging.retention_sec must be an integer")
	})

	t.Run("absent optional ints pass", func(t *testing.T) {
		t.Parallel()

		cfg := validTestConfig()
		delete(cfg, "settings.staging.retention_sec")
		delete(cfg, "settings.staging.sweep_interval_sec")

		require.NoError(t, validateStartupConfigWithGetter(getterFor(cfg)))
	})

	t.Run("minio disabled skips minio keys", func(t *testing.T) {
		t.Parallel()

		cfg := validTestConfig()
		cfg["settings.minio.enabled"] = false

		require.NoError(t, validateStartupConfigWithGetter(getterFor(cfg)))
	})

	t.Run("minio enabled requires endpoint and bucket", func(t *testing.T) {
		t.Parallel()

		cfg := validTestConfig()
		cfg["settings.minio.enabled"] = true

		err := validateStartupConfigWithGetter(getterFor(cfg))
		require.Error(t, err)
		require.Contains(t, err.Error(), "settings.minio.endpoint is required")
		require.Contains(t, err.Error(), "settings.minio.bucket is required")
	})
}
