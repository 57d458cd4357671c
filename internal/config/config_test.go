package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dshills/piston/internal/event/events"
	"github.com/dshills/piston/internal/logging"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "piston.toml",
			content: `
[server]
name = "test"
worlds = ["alpha", "beta"]

[logging]
level = "debug"

[events]
async_workers = 8
drain_timeout = "2s"

[[schedule.jobs]]
name = "tick"
expression = "* * * * *"
data = "hello"
`,
		},
		{
			name: "yaml",
			file: "piston.yml",
			content: `
server:
  name: test
  worlds: [alpha, beta]
logging:
  level: debug
events:
  async_workers: 8
  drain_timeout: 2s
schedule:
  jobs:
    - name: tick
      expression: "* * * * *"
      data: hello
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.LoadFile(writeFile(t, tt.file, tt.content)); err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if cfg.Server.Name != "test" || !slices.Equal(cfg.Server.Worlds, []string{"alpha", "beta"}) {
				t.Errorf("server = %+v", cfg.Server)
			}
			if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
				t.Errorf("logging = %+v, want debug level with default format", cfg.Logging)
			}
			if cfg.Events.AsyncWorkers != 8 || cfg.Events.AsyncQueueSize != 1024 {
				t.Errorf("events = %+v", cfg.Events)
			}
			if cfg.Events.DrainTimeout.Std() != 2*time.Second {
				t.Errorf("drain timeout = %v", cfg.Events.DrainTimeout.Std())
			}
			if len(cfg.Schedule.Jobs) != 1 || cfg.Schedule.Jobs[0].Data != "hello" {
				t.Errorf("jobs = %+v", cfg.Schedule.Jobs)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Run("unsupported extension", func(t *testing.T) {
		cfg := Default()
		err := cfg.LoadFile(writeFile(t, "piston.ini", "x=1"))
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("error = %v, want ErrUnsupportedFormat", err)
		}
	})
	t.Run("toml syntax", func(t *testing.T) {
		cfg := Default()
		err := cfg.LoadFile(writeFile(t, "piston.toml", "[server\nname = 1"))
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("error = %v, want *ParseError", err)
		}
		if perr.Line == 0 {
			t.Error("ParseError should carry a line")
		}
	})
	t.Run("unknown toml key", func(t *testing.T) {
		cfg := Default()
		err := cfg.LoadFile(writeFile(t, "piston.toml", "[server]\nnmae = \"x\"\n"))
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("error = %v, want *ParseError", err)
		}
	})
	t.Run("unknown yaml key", func(t *testing.T) {
		cfg := Default()
		err := cfg.LoadFile(writeFile(t, "piston.yaml", "server:\n  nmae: x\n"))
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("error = %v, want *ParseError", err)
		}
	})
	t.Run("empty yaml keeps defaults", func(t *testing.T) {
		cfg := Default()
		if err := cfg.LoadFile(writeFile(t, "piston.yaml", "")); err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
		if cfg.Server.Name != "piston" {
			t.Errorf("server.name = %q", cfg.Server.Name)
		}
	})
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Name != "piston" {
		t.Errorf("server.name = %q", cfg.Server.Name)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(env.Options{
		Prefix: EnvPrefix,
		Environment: map[string]string{
			"PISTON_LOG_LEVEL":            "error",
			"PISTON_SERVER_WORLDS":        "one,two",
			"PISTON_EVENTS_ASYNC_WORKERS": "2",
			"PISTON_EVENTS_DRAIN_TIMEOUT": "750ms",
			"PISTON_PLUGINS_WATCH":        "false",
			"PISTON_PLUGINS_DISABLED":     "noisy,Broken",
			"PISTON_COMMANDS_PREFIX":      "!",
			"UNRELATED_SERVER_NAME":       "ignored",
		},
	})
	if err != nil {
		t.Fatalf("applyEnv() error = %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "console" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if !slices.Equal(cfg.Server.Worlds, []string{"one", "two"}) || cfg.Server.Name != "piston" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Events.AsyncWorkers != 2 || cfg.Events.DrainTimeout.Std() != 750*time.Millisecond {
		t.Errorf("events = %+v", cfg.Events)
	}
	if cfg.Plugins.Watch || !cfg.PluginDisabled("broken") || cfg.PluginDisabled("other") {
		t.Errorf("plugins = %+v", cfg.Plugins)
	}
	if cfg.Commands.Prefix != "!" {
		t.Errorf("prefix = %q", cfg.Commands.Prefix)
	}

	bad := Default()
	err = bad.applyEnv(env.Options{
		Prefix:      EnvPrefix,
		Environment: map[string]string{"PISTON_EVENTS_ASYNC_WORKERS": "many"},
	})
	if err == nil {
		t.Error("applyEnv() accepted a non-numeric worker count")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"empty server name", func(c *Config) { c.Server.Name = " " }, "server.name"},
		{"no worlds", func(c *Config) { c.Server.Worlds = nil }, "server.worlds"},
		{"blank world", func(c *Config) { c.Server.Worlds = []string{"a", ""} }, "server.worlds"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"spaced prefix", func(c *Config) { c.Commands.Prefix = "/ " }, "commands.prefix"},
		{"no workers", func(c *Config) { c.Events.AsyncWorkers = 0 }, "events.async_workers"},
		{"no queue", func(c *Config) { c.Events.AsyncQueueSize = 0 }, "events.async_queue_size"},
		{"negative drain", func(c *Config) { c.Events.DrainTimeout = -1 }, "events.drain_timeout"},
		{"negative slow listener", func(c *Config) { c.Events.SlowListener = -1 }, "events.slow_listener"},
		{"unnamed job", func(c *Config) {
			c.Schedule.Jobs = []JobConfig{{Expression: "* * * * *"}}
		}, "schedule.jobs[0].name"},
		{"duplicate job", func(c *Config) {
			c.Schedule.Jobs = []JobConfig{{Name: "a", Expression: "@hourly"}, {Name: "a", Expression: "@daily"}}
		}, "schedule.jobs[1].name"},
		{"bad cron", func(c *Config) {
			c.Schedule.Jobs = []JobConfig{{Name: "a", Expression: "every tuesday"}}
		}, "schedule.jobs[0].expression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("Validate() = %v, want ErrValidationFailed", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Key != tt.path {
				t.Errorf("Validate() = %v, want path %s", err, tt.path)
			}
		})
	}
}

func TestLoggerConfig(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "warn"
	cfg.Logging.Format = "JSON"
	lc := cfg.LoggerConfig()
	if lc.Level != logging.LevelWarn || lc.Format != logging.FormatJSON || lc.Prefix != "piston" {
		t.Errorf("LoggerConfig() = %+v", lc)
	}
	if len(cfg.BusOptions()) != 2 {
		t.Error("BusOptions() should carry worker count and queue size")
	}
}

func TestBusFilter(t *testing.T) {
	cfg := Default()
	if cfg.BusFilter() != nil {
		t.Fatal("no suppress patterns should mean no filter")
	}
	cfg.Events.Suppress = []string{"player.move", "schedule.**"}
	f := cfg.BusFilter()

	tests := []struct {
		key  string
		want bool
	}{
		{"player.move", false},
		{"player.chat", true},
		{"schedule", false},
		{"schedule.backup", false},
		{"custom", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := f(events.NewSimple(tt.key, nil)); got != tt.want {
				t.Errorf("filter(%s) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
