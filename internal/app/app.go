// Package app wires the command router, the event bus and the plugin
// system into a console host and manages its lifecycle.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/piston/internal/command"
	"github.com/dshills/piston/internal/config"
	"github.com/dshills/piston/internal/event"
	"github.com/dshills/piston/internal/logging"
	"github.com/dshills/piston/internal/platform"
	"github.com/dshills/piston/internal/plugin"
	"github.com/dshills/piston/internal/plugin/lua"
	"github.com/dshills/piston/internal/schedule"
)

// maxSuggestions bounds the "Did you mean" list for unknown commands.
const maxSuggestions = 3

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty uses defaults and the
	// environment only.
	ConfigPath string

	// Config, when set, is used instead of loading ConfigPath.
	Config *config.Config

	// LogLevel overrides the configured log level.
	LogLevel string

	// PluginDir overrides the configured plugin directory.
	PluginDir string

	// Output receives console messages. Defaults to os.Stdout.
	Output io.Writer

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer
}

// Application is the central coordinator for all piston components.
type Application struct {
	cfg *config.Config
	log *logging.Logger
	out io.Writer

	server    *platform.Server
	console   *platform.Console
	commands  *command.Registry
	events    *event.Bus
	plugins   *plugin.Manager
	scheduler *schedule.Scheduler
	reloader  *lua.Reloader

	running  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates an Application with every component initialized but not
// running.
func New(opts Options) (*Application, error) {
	app := &Application{
		out:  opts.Output,
		stop: make(chan struct{}),
	}
	if app.out == nil {
		app.out = os.Stdout
	}
	if err := app.bootstrap(opts); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap(opts Options) error {
	// 1. Config
	cfg := opts.Config
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return &InitError{Component: "config", Err: err}
		}
	} else {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return &InitError{Component: "config", Err: err}
		}
		cfg = loaded
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.PluginDir != "" {
		cfg.Plugins.Dir = opts.PluginDir
	}
	app.cfg = cfg

	// 2. Logger
	lc := cfg.LoggerConfig()
	if opts.LogOutput != nil {
		lc.Output = opts.LogOutput
	}
	app.log = logging.New(lc)

	// 3. Platform
	app.server = platform.NewServer()
	for _, name := range cfg.Server.Worlds {
		app.server.AddWorld(platform.NewWorld(name))
	}
	app.console = platform.NewConsole(app.out)

	// 4. Command router and event bus
	app.commands = command.NewRegistry(
		command.WithPrefix(cfg.Commands.Prefix),
		command.WithPlatform(app.server),
		command.WithLogger(app.log),
	)
	app.events = event.NewBus(append(cfg.BusOptions(), event.WithLogger(app.log))...)
	if f := cfg.BusFilter(); f != nil {
		app.events.AddFilter(f)
	}

	// 5. Built-ins
	if err := app.commands.Register(&builtins{app: app}); err != nil {
		return &InitError{Component: "builtin commands", Err: err}
	}
	if err := app.commands.Register(&simulation{app: app}); err != nil {
		return &InitError{Component: "simulation commands", Err: err}
	}
	if _, err := app.events.Register(&hostListeners{app: app}); err != nil {
		return &InitError{Component: "host listeners", Err: err}
	}

	// 6. Plugins
	app.plugins = plugin.NewManager(plugin.Services{
		Commands: app.commands,
		Events:   app.events,
		Server:   app.server,
		Logger:   app.log,
	}, plugin.WithDisabled(cfg.PluginDisabled))

	scripts, err := lua.LoadDir(cfg.Plugins.Dir)
	if err != nil {
		app.log.Err(err, "some scripts failed to load")
	}
	for _, s := range scripts {
		if err := app.plugins.Add(s); err != nil {
			app.log.Err(err, "add plugin %s", s.Name())
		}
	}
	if cfg.Plugins.Watch {
		app.reloader = lua.NewReloader(cfg.Plugins.Dir, app.plugins, lua.WithReloadLogger(app.log))
	}

	// 7. Scheduler
	app.scheduler = schedule.New(app.events, schedule.WithLogger(app.log))
	for _, job := range schedule.JobsFromConfig(cfg.Schedule.Jobs) {
		if err := app.scheduler.Add(job); err != nil {
			return &InitError{Component: "scheduler", Err: err}
		}
	}
	return nil
}

// Config returns the effective configuration.
func (app *Application) Config() *config.Config { return app.cfg }

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger { return app.log }

// Server returns the player and world roster.
func (app *Application) Server() *platform.Server { return app.server }

// Console returns the console sender.
func (app *Application) Console() *platform.Console { return app.console }

// Commands returns the command router.
func (app *Application) Commands() *command.Registry { return app.commands }

// Events returns the event bus.
func (app *Application) Events() *event.Bus { return app.events }

// Plugins returns the plugin manager.
func (app *Application) Plugins() *plugin.Manager { return app.plugins }

// Scheduler returns the cron scheduler.
func (app *Application) Scheduler() *schedule.Scheduler { return app.scheduler }

// Exec runs one console line. It reports whether a command handled it.
func (app *Application) Exec(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}
	if app.commands.Execute(ctx, app.console, line) {
		return true
	}
	app.console.SendMessage(`Unknown command. Type "help" for help.`)
	if label, _, _ := strings.Cut(strings.TrimSpace(line), " "); label != "" {
		if near := app.commands.Suggest(app.console, label, maxSuggestions); len(near) > 0 {
			prefix := app.commands.Prefix()
			for i := range near {
				near[i] = prefix + near[i]
			}
			app.console.SendMessage("Did you mean: " + strings.Join(near, ", ") + "?")
		}
	}
	return false
}

// Complete returns console completions for line.
func (app *Application) Complete(line string) []string {
	return app.commands.Complete(app.console, line)
}

// Stop asks a running application to shut down.
func (app *Application) Stop() {
	app.stopOnce.Do(func() { close(app.stop) })
}

// Running reports whether Run is active.
func (app *Application) Running() bool { return app.running.Load() }

// Run enables plugins and runs the scheduler, the plugin reloader and
// the console until ctx is done, Stop is called or in reaches EOF. A nil
// in runs headless. Shutdown happens before Run returns.
func (app *Application) Run(ctx context.Context, in LineReader) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := app.plugins.EnableAll(ctx); err != nil {
		app.log.Err(err, "plugin startup")
	}
	app.log.Info("%s ready with %d plugins, %d commands", app.cfg.Server.Name,
		app.plugins.CountEnabled(), len(app.commands.Descriptors()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.scheduler.Run(gctx)
	})
	if app.reloader != nil {
		g.Go(func() error {
			if err := app.reloader.Run(gctx); err != nil {
				app.log.Err(err, "plugin reloader stopped")
			}
			return nil
		})
	}
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-app.stop:
		}
		cancel()
		if in != nil {
			_ = in.Close()
		}
		return nil
	})
	if in != nil {
		g.Go(func() error {
			defer cancel()
			return app.readLoop(gctx, in)
		})
	}

	err := g.Wait()
	return errors.Join(err, app.Shutdown())
}

// Shutdown disables every plugin and drains asynchronous events within
// the configured drain timeout.
func (app *Application) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.Events.DrainTimeout.Std())
	defer cancel()

	app.log.Info("shutting down")
	var errs []error
	if err := app.plugins.DisableAll(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := app.events.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// scriptPath returns where the named script plugin lives.
func (app *Application) scriptPath(name string) string {
	return filepath.Join(app.cfg.Plugins.Dir, name+lua.Extension)
}
