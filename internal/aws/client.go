package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodbsdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsiamsdk "github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/identitystore"
	awslambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	awss3sdk "github.com/aws/aws-sdk-go-v2/service/s3"
	awsssmsdk "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"

	awsdynamodb "tasnim.dev/aria-idc/internal/aws/dynamodb"
	awsiam "tasnim.dev/aria-idc/internal/aws/iam"
	awsidentitystore "tasnim.dev/aria-idc/internal/aws/identitystore"
	awslambda "tasnim.dev/aria-idc/internal/aws/lambda"
	awsorganizations "tasnim.dev/aria-idc/internal/aws/organizations"
	awss3 "tasnim.dev/aria-idc/internal/aws/s3"
	awsssm "tasnim.dev/aria-idc/internal/aws/ssm"
	awsssoadmin "tasnim.dev/aria-idc/internal/aws/ssoadmin"
)

// InventorySessionName is the session name used when assuming member-account roles.
const InventorySessionName = "aria-idc-inventory"

type ServiceClient struct {
	IdentityStore *awsidentitystore.Client
	SSOAdmin      *awsssoadmin.Client
	Organizations *awsorganizations.Client
	S3            *awss3.Client
	SSM           *awsssm.Client
	Lambda        *awslambda.Client
	DynamoDB      *awsdynamodb.Client

	cfg aws.Config
}

func NewServiceClient(ctx context.Context, profile, region string) (*ServiceClient, error) {
	cfg, err := LoadConfig(ctx, profile, region)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewServiceClientFromConfig(cfg), nil
}

func NewServiceClientFromConfig(cfg aws.Config) *ServiceClient {
	return &ServiceClient{
		IdentityStore: awsidentitystore.NewClient(identitystore.NewFromConfig(cfg)),
		SSOAdmin:      awsssoadmin.NewClient(ssoadmin.NewFromConfig(cfg)),
		Organizations: awsorganizations.NewClient(organizations.NewFromConfig(cfg)),
		S3:            awss3.NewClient(awss3sdk.NewFromConfig(cfg)),
		SSM:           awsssm.NewClient(awsssmsdk.NewFromConfig(cfg)),
		Lambda:        awslambda.NewClient(awslambdasdk.NewFromConfig(cfg)),
		DynamoDB:      awsdynamodb.NewClient(awsdynamodbsdk.NewFromConfig(cfg)),
		cfg:           cfg,
	}
}

// IAMForRole returns an IAM client acting as roleARN, typically in a member account.
func (s *ServiceClient) IAMForRole(roleARN string) *awsiam.Client {
	assumed := AssumeRoleConfig(s.cfg, roleARN, InventorySessionName)
	return awsiam.NewClient(awsiamsdk.NewFromConfig(assumed))
}

// AccountID returns the caller's account, or "" when it cannot be determined.
func (s *ServiceClient) AccountID(ctx context.Context) string {
	return GetAccountID(ctx, s.cfg)
}
