// Package plugin manages the lifecycle of extension modules.
//
// A Plugin receives a per-plugin Context when enabled. Every command
// handler and event listener registered through that Context is tracked,
// so disabling the plugin removes all of them without the plugin having to
// remember what it registered. The Manager fires PluginEnable after a
// successful Enable and PluginDisable before tearing a plugin down.
//
// Plugins share one Services value instead of reaching for globals:
//
//	svc := plugin.Services{Commands: reg, Events: bus, Server: srv, Logger: log}
//	mgr := plugin.NewManager(svc)
//	mgr.Add(myPlugin)
//	mgr.EnableAll(ctx)
package plugin
