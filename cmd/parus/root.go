package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version info, set by ldflags during release builds.
var (
	version = "dev"
	commit  = "unknown"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// exitError lets a subcommand request a specific process exit code
// (spec §6: "0 success, 1 error surfaced with diagnostics, 2 tool
// failure") without cobra printing its own usage/error banner on top of
// diagnostics the command already rendered.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

func failDiagnostics() error { return &exitError{code: 1} }
func failTool() error        { return &exitError{code: 2} }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "parus",
		Short:         "The Parus compiler toolchain",
		Long:          bold("parus") + " compiles, checks, and packages Parus programs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
	}

	root.AddCommand(
		newBuildCmd(),
		newCheckCmd(),
		newGraphCmd(),
		newDoctorCmd(),
		newConfigCmd(),
		newToolCmd(),
	)

	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	root := newRootCmd()
	err := root.Execute()
	if err == nil {
		return 0
	}
	if ee, ok := err.(*exitError); ok {
		return ee.code
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
	return 1
}
