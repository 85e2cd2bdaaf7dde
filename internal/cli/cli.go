package cli

import (
	"context"
	"fmt"
	"io"
)

// Execute runs the root command with args and returns the process exit code.
// Errors are printed once to errOut; stdout only ever carries the result.
func Execute(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	root.SilenceUsage = true
	root.SilenceErrors = true

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return 1
	}
	return 0
}
