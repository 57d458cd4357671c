// Package lua runs plugins written in Lua.
//
// Each script gets its own sandboxed interpreter (no io, os, debug or
// module loading) and a global "piston" table bound to its plugin
// Context:
//
//	piston.command{name = "heal", args = {{name = "player", complete = "online_player"}},
//	    run = function(sender, args) sender:send("healed " .. args.player) end}
//	piston.on("player.chat", function(e) e.message = e.message:upper() end, {priority = "high"})
//	piston.fire("custom.ping", {n = 1})
//	piston.log("loaded")
//
// A script may define a global on_disable function, called before the
// plugin's registrations are removed. Reloader watches a plugin directory
// and swaps scripts in the Manager as their files change.
package lua
