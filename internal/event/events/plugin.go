package events

import (
	"fmt"

	"github.com/dshills/piston/internal/event"
)

// Plugin event keys.
const (
	// TagPlugin is carried by every plugin lifecycle event.
	TagPlugin event.Key = "plugin"

	// KeyPluginEnable is fired after a plugin has been enabled.
	KeyPluginEnable event.Key = "plugin.enable"

	// KeyPluginDisable is fired before a plugin's registrations are removed.
	KeyPluginDisable event.Key = "plugin.disable"
)

// PluginEnable is fired after a plugin has been enabled.
type PluginEnable struct {
	event.Base

	// Plugin is the plugin name.
	Plugin string

	// Version is the plugin version.
	Version string
}

// NewPluginEnable creates an enable event.
func NewPluginEnable(name, version string) *PluginEnable {
	return &PluginEnable{
		Base:    event.NewNamedBase(KeyPluginEnable, "PluginEnableEvent"),
		Plugin:  name,
		Version: version,
	}
}

// EventTags implements event.Tagged.
func (e *PluginEnable) EventTags() []event.Key { return []event.Key{TagPlugin} }

// String implements fmt.Stringer.
func (e *PluginEnable) String() string {
	return fmt.Sprintf("%s{plugin=%s, version=%s}", e.EventName(), e.Plugin, e.Version)
}

// PluginDisable is fired before a plugin's registrations are removed.
type PluginDisable struct {
	event.Base

	// Plugin is the plugin name.
	Plugin string

	// Version is the plugin version.
	Version string
}

// NewPluginDisable creates a disable event.
func NewPluginDisable(name, version string) *PluginDisable {
	return &PluginDisable{
		Base:    event.NewNamedBase(KeyPluginDisable, "PluginDisableEvent"),
		Plugin:  name,
		Version: version,
	}
}

// EventTags implements event.Tagged.
func (e *PluginDisable) EventTags() []event.Key { return []event.Key{TagPlugin} }

// String implements fmt.Stringer.
func (e *PluginDisable) String() string {
	return fmt.Sprintf("%s{plugin=%s, version=%s}", e.EventName(), e.Plugin, e.Version)
}
