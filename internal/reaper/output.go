package reaper

import (
	"fmt"
	"io"
	"sync"
)

// console serializes report lines from concurrent sequences so that lines
// never interleave, across stdout and stderr alike.
type console struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

func (c *console) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.stdout, format+"\n", args...)
}

func (c *console) Errorf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.stderr, format+"\n", args...)
}
