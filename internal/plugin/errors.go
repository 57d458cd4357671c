package plugin

import "errors"

// Plugin system errors.
var (
	// ErrPluginNotFound is returned when a plugin is not known to the manager.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrNilPlugin is returned when adding a nil plugin.
	ErrNilPlugin = errors.New("plugin is nil")

	// ErrInvalidName is returned for a plugin with an empty or blank name.
	ErrInvalidName = errors.New("invalid plugin name")

	// ErrAlreadyAdded is returned when a plugin name is already taken.
	ErrAlreadyAdded = errors.New("plugin is already added")

	// ErrAlreadyEnabled is returned when enabling an enabled plugin.
	ErrAlreadyEnabled = errors.New("plugin is already enabled")

	// ErrNotEnabled is returned when disabling a plugin that is not enabled.
	ErrNotEnabled = errors.New("plugin is not enabled")

	// ErrPluginDisabled is returned when enabling a plugin the configuration
	// has turned off.
	ErrPluginDisabled = errors.New("plugin is disabled by configuration")
)
