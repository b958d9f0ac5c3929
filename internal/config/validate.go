package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Validate reports every problem in cfg at once.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Server.Addr == "" {
		add("server.addr must be set")
	}
	if c.Server.CookieName == "" {
		add("server.cookie_name must be set")
	}
	if c.Server.SessionSecret == "" {
		add("server.session_secret must be set")
	}
	if c.Server.SessionTTL <= 0 {
		add("server.session_ttl must be positive")
	}

	switch c.Storage.Driver {
	case DriverMemory:
		if c.Storage.Latency < 0 {
			add("storage.latency must not be negative")
		}
	case DriverSQLite:
		if c.Storage.Path == "" {
			add("storage.path must be set for the sqlite driver")
		}
	default:
		add("storage.driver must be one of %s, %s (got %q)", DriverMemory, DriverSQLite, c.Storage.Driver)
	}

	switch c.Auth.Mode {
	case AuthModeMock, AuthModeVerified:
	default:
		add("auth.mode must be one of %s, %s (got %q)", AuthModeMock, AuthModeVerified, c.Auth.Mode)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		add("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	switch c.Uploads.Driver {
	case UploadsMock:
	case UploadsDisk:
		if c.Uploads.Dir == "" {
			add("uploads.dir must be set for the disk driver")
		}
		if !strings.HasPrefix(c.Uploads.BaseURL, "/") || !strings.HasSuffix(c.Uploads.BaseURL, "/") {
			add("uploads.base_url must start and end with /")
		}
	default:
		add("uploads.driver must be one of %s, %s (got %q)", UploadsMock, UploadsDisk, c.Uploads.Driver)
	}
	if c.Uploads.MaxBytes <= 0 {
		add("uploads.max_bytes must be positive")
	}

	if c.Editor.HistoryDebounce < 0 {
		add("editor.history_debounce must not be negative")
	}
	if c.Editor.WordsPerMinute <= 0 {
		add("editor.words_per_minute must be positive")
	}
	if c.Editor.WorkspaceIdle <= 0 {
		add("editor.workspace_idle must be positive")
	}
	if c.Editor.MaxWorkspaces <= 0 {
		add("editor.max_workspaces must be positive")
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		add("log.format must be console or json (got %q)", c.Log.Format)
	}

	return errors.Join(errs...)
}
