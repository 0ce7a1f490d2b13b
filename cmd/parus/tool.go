package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parusbuild/parusc/internal/parlib"
)

// newToolCmd is the `parus tool` surface (spec §6): auxiliary archive
// utilities that don't belong under build/check. Only `inspect` is wired
// to core for now.
func newToolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Auxiliary archive tools",
	}
	cmd.AddCommand(newToolInspectCmd())
	return cmd
}

func newToolInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <archive.parlib>",
		Short: "Verify and summarize a parlib archive's header, TOC, and chunk hashes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := parlib.Inspect(args[0])
			for _, m := range res.Messages {
				fmt.Fprintln(cmd.OutOrStdout(), m.String())
			}
			if !res.OK {
				return failTool()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s v%d.%d, %d chunks, triple=%q\n",
				green("✓"), args[0], bold("parlib"),
				res.Header.FormatMajor, res.Header.FormatMinor,
				len(res.Chunks), res.Header.TargetTriple)

			offsetUses := map[uint64]int{}
			for _, c := range res.Chunks {
				offsetUses[c.Offset]++
			}
			for _, c := range res.Chunks {
				dedup := ""
				if offsetUses[c.Offset] > 1 {
					dedup = yellow(" (shares storage)")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s:%s  offset=%d size=%d%s\n",
					parlib.LaneName(c.Lane), parlib.ChunkKindName(c.Kind), c.Offset, c.Size, dedup)
			}
			return nil
		},
	}
}
