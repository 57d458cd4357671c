package platform

import (
	"fmt"
	"io"
	"sync"
)

// ConsoleName is the sender name of the server console.
const ConsoleName = "CONSOLE"

// Console is the server console sender. It holds every permission.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console sender writing one line per message to out.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = io.Discard
	}
	return &Console{out: out}
}

// Name implements the Sender contract.
func (c *Console) Name() string { return ConsoleName }

// SendMessage writes msg followed by a newline.
func (c *Console) SendMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, msg)
}

// HasPermission always reports true.
func (c *Console) HasPermission(string) bool { return true }

// IsConsole marks the sender as the console.
func (c *Console) IsConsole() bool { return true }
