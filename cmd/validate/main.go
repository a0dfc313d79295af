// Package main provides the entry point for the validate CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Aman-CERP/validate/cmd/validate/cmd"
	verrors "github.com/Aman-CERP/validate/internal/errors"
)

func main() {
	err := cmd.Execute()
	if err != nil && !cmd.Reported(err) {
		fmt.Fprintln(os.Stderr, verrors.FormatForCLI(err))
	}
	os.Exit(cmd.ExitCodeOf(err))
}
