package lambda

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
)

type LambdaAPI interface {
	UpdateFunctionCode(ctx context.Context, params *awslambda.UpdateFunctionCodeInput, optFns ...func(*awslambda.Options)) (*awslambda.UpdateFunctionCodeOutput, error)
}

type Client struct {
	api LambdaAPI
}

func NewClient(api LambdaAPI) *Client {
	return &Client{api: api}
}

// UpdateFunctionCode points a function at an S3 artifact and publishes a new version.
func (c *Client) UpdateFunctionCode(ctx context.Context, functionName, bucket, key string) (FunctionVersion, error) {
	out, err := c.api.UpdateFunctionCode(ctx, &awslambda.UpdateFunctionCodeInput{
		FunctionName: aws.String(functionName),
		S3Bucket:     aws.String(bucket),
		S3Key:        aws.String(key),
		Publish:      true,
	})
	if err != nil {
		return FunctionVersion{}, fmt.Errorf("UpdateFunctionCode(%s): %w", functionName, err)
	}
	return FunctionVersion{
		FunctionArn:  aws.ToString(out.FunctionArn),
		FunctionName: aws.ToString(out.FunctionName),
		Version:      aws.ToString(out.Version),
		CodeSha256:   aws.ToString(out.CodeSha256),
	}, nil
}
