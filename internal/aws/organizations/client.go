package organizations

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsorganizations "github.com/aws/aws-sdk-go-v2/service/organizations"
)

type OrganizationsAPI interface {
	ListAccounts(ctx context.Context, params *awsorganizations.ListAccountsInput, optFns ...func(*awsorganizations.Options)) (*awsorganizations.ListAccountsOutput, error)
}

type Client struct {
	api OrganizationsAPI
}

func NewClient(api OrganizationsAPI) *Client {
	return &Client{api: api}
}

func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	var nextToken *string

	for {
		out, err := c.api.ListAccounts(ctx, &awsorganizations.ListAccountsInput{NextToken: nextToken})
		if err != nil {
			return nil, fmt.Errorf("ListAccounts: %w", err)
		}

		for _, a := range out.Accounts {
			accounts = append(accounts, Account{
				ID:     aws.ToString(a.Id),
				Name:   aws.ToString(a.Name),
				Email:  aws.ToString(a.Email),
				Status: string(a.Status),
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return accounts, nil
}
