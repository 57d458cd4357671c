// Package platform holds the host-side models a server bridge hands to the
// command router and event bus: players, the console sender, worlds and
// an in-memory roster.
//
// A real host adapts its native objects to these shapes. The console host
// in cmd/piston uses them directly to simulate players.
//
//	srv := platform.NewServer()
//	srv.AddWorld(platform.NewWorld("world"))
//	p := platform.NewPlayer("Alex", platform.WithPermissions("piston.heal"))
//	srv.Connect(p)
package platform
