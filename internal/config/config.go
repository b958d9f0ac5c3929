// Package config loads the site configuration from a YAML file and the
// environment.
package config

import "time"

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"

	AuthModeMock     = "mock"
	AuthModeVerified = "verified"

	UploadsMock = "mock"
	UploadsDisk = "disk"
)

type Config struct {
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
	Auth    Auth    `yaml:"auth"`
	Uploads Uploads `yaml:"uploads"`
	Editor  Editor  `yaml:"editor"`
	Log     Log     `yaml:"log"`
	Site    Site    `yaml:"site"`
}

type Server struct {
	Addr              string        `yaml:"addr"`
	CookieName        string        `yaml:"cookie_name"`
	SessionSecret     string        `yaml:"session_secret"`
	SessionTTL        time.Duration `yaml:"session_ttl"`
	SecureCookies     bool          `yaml:"secure_cookies"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type Storage struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	// Latency delays every memory-store call to imitate a remote database.
	Latency time.Duration `yaml:"latency"`
	Seed    bool          `yaml:"seed"`
}

type Auth struct {
	Mode       string `yaml:"mode"`
	BcryptCost int    `yaml:"bcrypt_cost"`
}

type Uploads struct {
	Driver   string        `yaml:"driver"`
	Dir      string        `yaml:"dir"`
	BaseURL  string        `yaml:"base_url"`
	MaxBytes int64         `yaml:"max_bytes"`
	Latency  time.Duration `yaml:"latency"`
}

type Editor struct {
	HistoryDebounce time.Duration `yaml:"history_debounce"`
	WordsPerMinute  int           `yaml:"words_per_minute"`
	// WorkspaceIdle discards an open editor nobody has touched for this long.
	WorkspaceIdle time.Duration `yaml:"workspace_idle"`
	// MaxWorkspaces caps the open editors of one session.
	MaxWorkspaces int `yaml:"max_workspaces"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Site struct {
	Name         string `yaml:"name"`
	Tagline      string `yaml:"tagline"`
	ContactEmail string `yaml:"contact_email"`
}

// DevSessionSecret signs cookies when no secret is configured. It is public
// and must be replaced outside development.
const DevSessionSecret = "highrise-development-secret-change-me"

// Default returns the configuration used when no file is given: the mock
// store seeded with fixtures and mock authentication.
func Default() Config {
	return Config{
		Server: Server{
			Addr:              ":8080",
			CookieName:        "session_id",
			SessionSecret:     DevSessionSecret,
			SessionTTL:        24 * time.Hour,
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Storage: Storage{
			Driver: DriverMemory,
			Path:   "data/highrise.db",
			Seed:   true,
		},
		Auth: Auth{
			Mode:       AuthModeMock,
			BcryptCost: 10,
		},
		Uploads: Uploads{
			Driver:   UploadsMock,
			Dir:      "data/uploads",
			BaseURL:  "/uploads/",
			MaxBytes: 5 << 20,
		},
		Editor: Editor{
			HistoryDebounce: 500 * time.Millisecond,
			WordsPerMinute:  200,
			WorkspaceIdle:   2 * time.Hour,
			MaxWorkspaces:   5,
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
		Site: Site{
			Name:         "HighriseBI",
			Tagline:      "Data analytics, reporting, and community engagement for SMEs",
			ContactEmail: "hello@highrisebi.com",
		},
	}
}
