// Command pm1 factors hexadecimal integers with Pollard's p-1 method.
//
// Usage:
//
//	pm1 [-n-1] [-cpu] [flags] hex...
//	pm1 -server [-port 8080]
package main

import (
	"context"
	"os"

	"github.com/agbru/pm1factor/internal/app"
	apperrors "github.com/agbru/pm1factor/internal/errors"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if app.HasVersionFlag(args[1:]) {
		app.PrintVersion(os.Stdout)
		return apperrors.ExitSuccess
	}

	application, err := app.New(args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			return apperrors.ExitSuccess
		}
		// ParseConfig has already printed the error and usage.
		return apperrors.ExitErrorConfig
	}

	return application.Run(context.Background(), os.Stdout)
}
