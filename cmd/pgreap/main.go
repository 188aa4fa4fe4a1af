package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/pgreap/internal/cli"
	"github.com/vvka-141/pgreap/pkg/pgreap"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(pgreap.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(pgreap.ExitCodeForError(err))
	}
}
