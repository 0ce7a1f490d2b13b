package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var lowerOIR bool

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Type-check and analyze a Parus source file without packaging it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			fmt.Fprintf(cmd.OutOrStdout(), "%s Checking %s...\n", cyan("→"), path)
			fe, err := runFrontend(path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", red("Error"), err)
				return failTool()
			}

			if lowerOIR && fe.Bag.OK(false) {
				lowerToOIR(fe)
			}

			if !fe.Bag.OK(false) {
				printDiagnostics(fe.Bag)
				return failDiagnostics()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s checks out (%d declarations)\n",
				green("✓"), path, len(fe.Decls))
			return nil
		},
	}

	cmd.Flags().BoolVar(&lowerOIR, "oir", false, "also lower to OIR and run the verifier")
	return cmd
}
