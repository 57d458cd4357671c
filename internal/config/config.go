package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/adhocore/gronx"

	"github.com/dshills/piston/internal/event"
	"github.com/dshills/piston/internal/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PISTON_"

// Config is the complete runtime configuration.
type Config struct {
	Server   ServerConfig   `toml:"server" yaml:"server" envPrefix:"SERVER_"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging" envPrefix:"LOG_"`
	Commands CommandsConfig `toml:"commands" yaml:"commands" envPrefix:"COMMANDS_"`
	Events   EventsConfig   `toml:"events" yaml:"events" envPrefix:"EVENTS_"`
	Plugins  PluginsConfig  `toml:"plugins" yaml:"plugins" envPrefix:"PLUGINS_"`
	Schedule ScheduleConfig `toml:"schedule" yaml:"schedule"`
}

// ServerConfig describes the simulated host.
type ServerConfig struct {
	Name   string   `toml:"name" yaml:"name" env:"NAME"`
	MOTD   string   `toml:"motd" yaml:"motd" env:"MOTD"`
	Worlds []string `toml:"worlds" yaml:"worlds" env:"WORLDS" envSeparator:","`
}

// LoggingConfig mirrors logging.Config in file form.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level" env:"LEVEL"`
	Format string `toml:"format" yaml:"format" env:"FORMAT"`
	Prefix string `toml:"prefix" yaml:"prefix" env:"PREFIX"`
}

// CommandsConfig configures the command registry.
type CommandsConfig struct {
	Prefix string `toml:"prefix" yaml:"prefix" env:"PREFIX"`
}

// EventsConfig configures the event bus.
type EventsConfig struct {
	AsyncWorkers   int      `toml:"async_workers" yaml:"async_workers" env:"ASYNC_WORKERS"`
	AsyncQueueSize int      `toml:"async_queue_size" yaml:"async_queue_size" env:"ASYNC_QUEUE_SIZE"`
	DrainTimeout   Duration `toml:"drain_timeout" yaml:"drain_timeout" env:"DRAIN_TIMEOUT"`

	// SlowListener logs a warning for listener calls running longer.
	// Zero turns the warning off.
	SlowListener Duration `toml:"slow_listener" yaml:"slow_listener" env:"SLOW_LISTENER"`

	// Suppress lists key patterns ("player.move", "schedule.**") whose
	// events are never dispatched.
	Suppress []string `toml:"suppress" yaml:"suppress" env:"SUPPRESS" envSeparator:","`
}

// PluginsConfig configures script plugins.
type PluginsConfig struct {
	Dir      string   `toml:"dir" yaml:"dir" env:"DIR"`
	Watch    bool     `toml:"watch" yaml:"watch" env:"WATCH"`
	Disabled []string `toml:"disabled" yaml:"disabled" env:"DISABLED" envSeparator:","`
}

// ScheduleConfig lists cron jobs. Jobs are file-only.
type ScheduleConfig struct {
	Jobs []JobConfig `toml:"jobs" yaml:"jobs"`
}

// JobConfig fires a scheduled event whenever Expression matches.
type JobConfig struct {
	Name       string `toml:"name" yaml:"name"`
	Expression string `toml:"expression" yaml:"expression"`
	Data       string `toml:"data" yaml:"data"`
}

// Duration is a time.Duration written as a string such as "5s" in files
// and the environment.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Name:   "piston",
			MOTD:   "Welcome to piston",
			Worlds: []string{"world", "world_nether", "world_the_end"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Prefix: "piston",
		},
		Commands: CommandsConfig{
			Prefix: "/",
		},
		Events: EventsConfig{
			AsyncWorkers:   4,
			AsyncQueueSize: 1024,
			DrainTimeout:   Duration(5 * time.Second),
		},
		Plugins: PluginsConfig{
			Dir:   "plugins",
			Watch: true,
		},
	}
}

// Validate checks every setting and returns the first failure as a
// *ValidationError.
func (c *Config) Validate() error {
	fail := func(path, msg string, v any) error {
		return &ValidationError{Key: path, Problem: msg, Value: v}
	}

	if strings.TrimSpace(c.Server.Name) == "" {
		return fail("server.name", "must not be empty", c.Server.Name)
	}
	if len(c.Server.Worlds) == 0 {
		return fail("server.worlds", "must list at least one world", c.Server.Worlds)
	}
	for _, w := range c.Server.Worlds {
		if strings.TrimSpace(w) == "" {
			return fail("server.worlds", "must not hold an empty name", c.Server.Worlds)
		}
	}

	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, strings.ToLower(c.Logging.Level)) {
		return fail("logging.level", "must be debug, info, warn or error", c.Logging.Level)
	}
	if f := strings.ToLower(c.Logging.Format); f != "console" && f != "json" {
		return fail("logging.format", "must be console or json", c.Logging.Format)
	}

	if strings.ContainsFunc(c.Commands.Prefix, func(r rune) bool { return r == ' ' || r == '\t' }) {
		return fail("commands.prefix", "must not contain whitespace", c.Commands.Prefix)
	}

	if c.Events.AsyncWorkers < 1 {
		return fail("events.async_workers", "must be at least 1", c.Events.AsyncWorkers)
	}
	if c.Events.AsyncQueueSize < 1 {
		return fail("events.async_queue_size", "must be at least 1", c.Events.AsyncQueueSize)
	}
	if c.Events.DrainTimeout < 0 {
		return fail("events.drain_timeout", "must not be negative", c.Events.DrainTimeout)
	}
	if c.Events.SlowListener < 0 {
		return fail("events.slow_listener", "must not be negative", c.Events.SlowListener)
	}

	seen := make(map[string]bool, len(c.Schedule.Jobs))
	for i, j := range c.Schedule.Jobs {
		path := fmt.Sprintf("schedule.jobs[%d]", i)
		if j.Name == "" {
			return fail(path+".name", "must not be empty", j.Name)
		}
		if seen[j.Name] {
			return fail(path+".name", "duplicate job name", j.Name)
		}
		seen[j.Name] = true
		if !gronx.IsValid(j.Expression) {
			return fail(path+".expression", "invalid cron expression", j.Expression)
		}
	}
	return nil
}

// LoggerConfig converts the logging section for logging.New.
func (c *Config) LoggerConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = logging.ParseLevel(c.Logging.Level)
	lc.Prefix = c.Logging.Prefix
	if strings.EqualFold(c.Logging.Format, "json") {
		lc.Format = logging.FormatJSON
	} else {
		lc.Format = logging.FormatConsole
	}
	return lc
}

// BusOptions converts the events section for event.NewBus.
func (c *Config) BusOptions() []event.BusOption {
	return []event.BusOption{
		event.WithAsyncWorkerCount(c.Events.AsyncWorkers),
		event.WithAsyncQueueSize(c.Events.AsyncQueueSize),
		event.WithSlowListener(c.Events.SlowListener.Std()),
	}
}

// BusFilter returns the filter implementing events.suppress, nil when
// nothing is suppressed.
func (c *Config) BusFilter() event.FilterFunc {
	if len(c.Events.Suppress) == 0 {
		return nil
	}
	return event.FilterNot(event.FilterByPattern(c.Events.Suppress...))
}

// PluginDisabled reports whether name is listed in plugins.disabled.
func (c *Config) PluginDisabled(name string) bool {
	return slices.ContainsFunc(c.Plugins.Disabled, func(d string) bool {
		return strings.EqualFold(d, name)
	})
}
