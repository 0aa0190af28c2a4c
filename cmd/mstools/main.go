package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/sozezzo/MSTools/internal/cli"
	"github.com/sozezzo/MSTools/pkg/mstools"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(mstools.ExitPanic)
		}
	}()

	if os.Getenv("MSTOOLS_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(mstools.ExitCodeForError(err))
	}
}
