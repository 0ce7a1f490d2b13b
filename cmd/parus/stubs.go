package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// graph, doctor, and config are thin stubs (SPEC_FULL §1 ambient CLI
// section): real cobra/pflag surfaces so the command tree isn't
// decorative, but the Lei build-graph emitter and doctor/probe/config
// persistence are out of scope (spec Non-goals).
func newGraphCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Emit the Lei build graph for a source file (not implemented in core)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: build-graph emission is not implemented in core (Lei evaluator is out of scope)\n", yellow("Notice"))
			return failTool()
		},
	}
	cmd.Flags().StringVar(&format, "format", "dot", "graph output format")
	return cmd
}

func newDoctorCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Probe the local toolchain for missing binaries (not implemented in core)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: doctor/probe utilities are not implemented in core\n", yellow("Notice"))
			return failTool()
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print detailed probe output")
	return cmd
}

func newConfigCmd() *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage persisted toolchain configuration (not implemented in core)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: config file persistence is not implemented in core\n", yellow("Notice"))
			return failTool()
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "operate on the global config (unused, stub)")
	return cmd
}
