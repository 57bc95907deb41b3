package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tasnim.dev/aria-idc/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "aria",
		Short:         "Identity Center inventory, findings and graph export functions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	opts := &cmd.Options{}
	opts.Bind(rootCmd)

	rootCmd.AddCommand(cmd.NewRunCmd(opts))
	rootCmd.AddCommand(cmd.NewLambdaCmd(opts))
	rootCmd.AddCommand(cmd.NewFunctionsCmd())
	rootCmd.AddCommand(cmd.NewScheduleCmd(opts))
	rootCmd.SetArgs(cmd.DefaultArgs(os.Args[1:], os.Getenv))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
