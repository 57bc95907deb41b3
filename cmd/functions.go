package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tasnim.dev/aria-idc/internal/functions"
)

func NewFunctionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the available functions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range functions.Names() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-32s %s\n", name, functions.Summary(name))
			}
		},
	}
}
