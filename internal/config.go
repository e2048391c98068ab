package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Notification modes.
const (
	NotifyModeBell    = "bell"
	NotifyModeCommand = "command"
	NotifyModeSilent  = "silent"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Exports ExportsConfig     `yaml:"exports"`
	Auth    AuthConfig        `yaml:"auth"`
	Timer   TimerConfig       `yaml:"timer"`
	Notes   NotesConfig       `yaml:"notes"`
	Notify  NotifyConfig      `yaml:"notify"`
	Events  EventsConfig      `yaml:"events"`
	TUI     TUIConfig         `yaml:"tui"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Timer.Validate(); err != nil {
		return err
	}
	if err := c.Notes.Validate(); err != nil {
		return err
	}
	if err := c.Notify.Validate(); err != nil {
		return err
	}
	return c.Events.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds the key-value database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ExportsConfig holds the directory note exports are written to.
// An empty Dir disables exporting and the export watcher.
type ExportsConfig struct {
	Dir string `yaml:"dir"`
}

// Enabled reports whether an export directory is configured.
func (c *ExportsConfig) Enabled() bool {
	return c.Dir != ""
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// TimerConfig holds the tick scheduler configuration.
type TimerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

// Validate validates the timer configuration.
func (c *TimerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TickInterval, validation.Required, validation.Min(10*time.Millisecond)),
	)
}

// NotesConfig holds note autosave configuration.
type NotesConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the notes configuration.
func (c *NotesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Required, validation.Min(time.Millisecond)),
	)
}

// NotifyConfig selects how a mode change is announced.
//
// Mode is one of "bell" (default, terminal bell), "command" (run Command,
// e.g. a sound player) or "silent".
type NotifyConfig struct {
	Mode    string        `yaml:"mode"`
	Command string        `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the notify configuration.
func (c *NotifyConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = NotifyModeBell
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.In(NotifyModeBell, NotifyModeCommand, NotifyModeSilent)),
		validation.Field(&c.Command, validation.When(c.Mode == NotifyModeCommand, validation.Required)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// EventsConfig holds SSE configuration.
type EventsConfig struct {
	// TickThrottle limits how often timer.tick is streamed to clients.
	TickThrottle time.Duration `yaml:"tick_throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TickThrottle, validation.Required, validation.Min(time.Millisecond)),
	)
}

// TUIConfig holds terminal host configuration. The terminal owns stdout and
// stderr while the TUI runs, so logs are appended to LogFile.
type TUIConfig struct {
	LogFile string `yaml:"log_file"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./pomodoro.db",
		},
		Exports: ExportsConfig{
			Dir: "./exports",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Timer: TimerConfig{
			TickInterval: time.Second,
		},
		Notes: NotesConfig{
			Debounce: time.Second,
		},
		Notify: NotifyConfig{
			Mode:    NotifyModeBell,
			Timeout: 5 * time.Second,
		},
		Events: EventsConfig{
			TickThrottle: time.Second,
		},
		TUI: TUIConfig{
			LogFile: "./pomodoro-tui.log",
		},
	}
}
