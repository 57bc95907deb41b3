package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tasnim.dev/aria-idc/internal/functions"
	"tasnim.dev/aria-idc/internal/logger"
)

func NewLambdaCmd(opts *Options) *cobra.Command {
	var function string

	cmd := &cobra.Command{
		Use:   "lambda",
		Short: "Serve one function in the AWS Lambda runtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			if function == "" {
				function = os.Getenv("ARIA_FUNCTION")
			}
			if function == "" {
				return fmt.Errorf("no function: set --function or ARIA_FUNCTION")
			}
			if _, ok := functions.Lookup(function); !ok {
				return fmt.Errorf("unknown function %q", function)
			}

			env, err := opts.Env(context.Background())
			if err != nil {
				return err
			}
			logger.Logger().Info("starting lambda runtime", zap.String("function", function))
			lambda.Start(lambdaHandler(env, function))
			return nil
		},
	}

	cmd.Flags().StringVarP(&function, "function", "f", "", "function to serve (default $ARIA_FUNCTION)")

	return cmd
}

// lambdaHandler returns a failed invocation whenever the function reports a failure,
// so the event source's redelivery policy applies.
func lambdaHandler(env *functions.Env, name string) func(context.Context, json.RawMessage) (functions.Response, error) {
	return func(ctx context.Context, payload json.RawMessage) (functions.Response, error) {
		defer logger.Sync()
		resp, err := functions.Invoke(ctx, env, name, payload)
		if err == nil && resp.Failed() {
			err = fmt.Errorf("%s: %s", name, resp.Body)
		}
		return resp, err
	}
}
