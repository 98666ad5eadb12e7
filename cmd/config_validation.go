package cmd

import (
	"fmt"
	"net/url"
	"strings"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
)

// configGetter retrieves raw configuration values by dotted key path.
type configGetter func(key string) any

// validateStartupConfig validates startup configuration from the shared config source.
// It returns an error when any configured value is missing or malformed.
func validateStartupConfig() error {
	return validateStartupConfigWithGetter(func(key string) any {
		return gconfig.S.Get(key)
	})
}

// validateStartupConfigWithGetter validates startup configuration via a key-value getter.
func validateStartupConfigWithGetter(get configGetter) error {
	if get == nil {
		return errors.New("config getter is nil")
	}

	validationErrs := make([]string, 0)

	validateAirtableConfig(get, &validationErrs)
	validateDriveConfig(get, &validationErrs)
	validateServerConfig(get, &validationErrs)
	validateStagingConfig(get, &validationErrs)
	validateMinioConfig(get, &validationErrs)

	if len(validationErrs) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n - %s", strings.Join(validationErrs, "\n - "))
}

// validateAirtableConfig checks the record-database credentials.
func validateAirtableConfig(get configGetter, errs *[]string) {
	validateRequiredString(get, "settings.airtable.api_key", errs)
	validateRequiredString(get, "settings.airtable.base_id", errs)
	validateRequiredString(get, "settings.airtable.table", errs)
}

// validateDriveConfig checks the storage-service credentials.
func validateDriveConfig(get configGetter, errs *[]string) {
	validateRequiredString(get, "settings.drive.credential_file", errs)
}

// validateServerConfig checks the public serving settings.
func validateServerConfig(get configGetter, errs *[]string) {
	validateRequiredString(get, "settings.server.public_url", errs)
	validateOptionalURL(get, "settings.server.public_url", errs)
}

// validateStagingConfig checks the staging directory settings.
func validateStagingConfig(get configGetter, errs *[]string) {
	validateRequiredString(get, "settings.staging.dir", errs)
	validateOptionalIntMin(get, "settings.staging.retention_sec", 1, errs)
	validateOptionalIntMin(get, "settings.staging.sweep_interval_sec", 1, errs)
}

// validateMinioConfig checks the attachment-mirror settings when enabled.
func validateMinioConfig(get configGetter, errs *[]string) {
	enabled, ok := get("settings.minio.enabled").(bool)
	if !ok || !enabled {
		return
	}

	validateRequiredString(get, "settings.minio.endpoint", errs)
	validateRequiredString(get, "settings.minio.bucket", errs)
}

func validateRequiredString(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
		return
	}

	*errs = append(*errs, fmt.Sprintf("%s is required", key))
}

func validateOptionalIntMin(get configGetter, key string, minVal int, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	val, ok := raw.(int)
	if !ok {
		*errs = append(*errs, fmt.Sprintf("%s must be an integer", key))
		return
	}
	if val < minVal {
		*errs = append(*errs, fmt.Sprintf("%s must be >= %d", key, minVal))
	}
}

func validateOptionalURL(get configGetter, key string, errs *[]string) {
	raw, ok := get(key).(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		*errs = append(*errs, fmt.Sprintf("%s must be an absolute http(s) url", key))
	}
}
