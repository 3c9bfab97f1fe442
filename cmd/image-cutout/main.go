package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	cmd := newRootCommand()
	os.Exit(exitCode(cmd.Execute(), os.Stderr))
}

// exitCode reports err on w and maps it to the process status. An interrupted run is
// not a failure.
func exitCode(err error, w io.Writer) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(w, "interrupted")
		return 0
	default:
		fmt.Fprintln(w, "error:", err)
		return 1
	}
}
