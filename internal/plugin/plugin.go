package plugin

import (
	"context"

	"github.com/dshills/piston/internal/command"
	"github.com/dshills/piston/internal/event"
	"github.com/dshills/piston/internal/logging"
	"github.com/dshills/piston/internal/platform"
)

// Plugin is an extension module with a start/stop lifecycle.
type Plugin interface {
	// Name identifies the plugin. It must be unique within a Manager.
	Name() string

	// Version is informational.
	Version() string

	// Enable registers the plugin's commands and listeners through pc.
	// Returning an error rolls back everything registered so far.
	Enable(ctx context.Context, pc *Context) error

	// Disable releases plugin resources. Registrations made through the
	// Context are removed by the manager afterwards.
	Disable(ctx context.Context, pc *Context) error
}

// Services are the shared collaborators handed to every plugin.
type Services struct {
	Commands *command.Registry
	Events   *event.Bus
	Server   *platform.Server
	Logger   *logging.Logger
}

// Info describes a plugin for listings.
type Info struct {
	Name     string
	Version  string
	State    State
	Err      error
	Commands int
	Handlers int
}
