package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cloudcmds/framevm/dis"
)

func newOpsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ops <file>",
		Short: "Count opcode occurrences across a code object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := loadCode(args[0])
			if err != nil {
				return err
			}
			counts, err := dis.CountOps(code)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			total := 0
			for _, c := range counts {
				fmt.Fprintf(w, "%s\t%d\n", c.Name, c.Count)
				total += c.Count
			}
			fmt.Fprintf(w, "TOTAL\t%d\n", total)
			return w.Flush()
		},
	}
}
