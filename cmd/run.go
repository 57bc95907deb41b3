package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tasnim.dev/aria-idc/internal/functions"
	"tasnim.dev/aria-idc/internal/logger"
)

func NewRunCmd(opts *Options) *cobra.Command {
	var eventPath string

	cmd := &cobra.Command{
		Use:   "run <function>",
		Short: "Invoke one function locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, ok := functions.Lookup(name); !ok {
				return fmt.Errorf("unknown function %q (see 'aria functions')", name)
			}
			payload, err := readEvent(eventPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx := context.Background()
			env, err := opts.Env(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			defer logger.Sync()

			resp, invokeErr := functions.Invoke(ctx, env, name, payload)
			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return invokeErr
		},
	}

	cmd.Flags().StringVarP(&eventPath, "event", "e", "", "JSON event file, or - for stdin")

	return cmd
}

func readEvent(path string, stdin io.Reader) ([]byte, error) {
	switch path {
	case "":
		return nil, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading event from stdin: %w", err)
		}
		return data, nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading event: %w", err)
		}
		return data, nil
	}
}
