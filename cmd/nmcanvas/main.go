package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/nmcanvas/internal/cli"
	"github.com/matzehuels/nmcanvas/pkg/errors"
)

// Exit codes. Schema failures get their own code so scripts can tell an
// invalid document apart from an operational error.
const (
	exitError       = 1
	exitInvalid     = 2
	exitInterrupted = 130
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := cli.New(os.Stderr, cli.LogInfo).RootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		if stderrors.Is(err, context.Canceled) {
			os.Exit(exitInterrupted)
		}
		fmt.Fprintln(os.Stderr, formatError(err))
		if errors.Is(err, errors.ErrCodeSchemaValidationFailed) {
			os.Exit(exitInvalid)
		}
		os.Exit(exitError)
	}
}

func formatError(err error) string {
	if code := errors.GetCode(err); code != "" {
		return fmt.Sprintf("Error [%s]: %s", code, errors.UserMessage(err))
	}
	return "Error: " + err.Error()
}
