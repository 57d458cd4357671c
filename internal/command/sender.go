package command

// Sender is whoever issued a command: a player, the console, a script.
type Sender interface {
	Name() string
	SendMessage(msg string)
	HasPermission(node string) bool
}

// consoleMarker is implemented by console senders.
type consoleMarker interface {
	IsConsole() bool
}

// IsConsole reports whether s is the console.
func IsConsole(s Sender) bool {
	c, ok := s.(consoleMarker)
	return ok && c.IsConsole()
}
