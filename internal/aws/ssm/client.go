package ssm

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
)

type SSMAPI interface {
	GetParameter(ctx context.Context, params *awsssm.GetParameterInput, optFns ...func(*awsssm.Options)) (*awsssm.GetParameterOutput, error)
}

type Client struct {
	api SSMAPI
}

func NewClient(api SSMAPI) *Client {
	return &Client{api: api}
}

// GetParameter returns the decrypted value of a parameter.
func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	out, err := c.api.GetParameter(ctx, &awsssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("GetParameter(%s): %w", name, err)
	}
	if out.Parameter == nil {
		return "", fmt.Errorf("GetParameter(%s): empty response", name)
	}
	return aws.ToString(out.Parameter.Value), nil
}
