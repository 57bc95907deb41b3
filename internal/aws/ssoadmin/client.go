package ssoadmin

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsssoadmin "github.com/aws/aws-sdk-go-v2/service/ssoadmin"
	ssotypes "github.com/aws/aws-sdk-go-v2/service/ssoadmin/types"
)

type SSOAdminAPI interface {
	ListInstances(ctx context.Context, params *awsssoadmin.ListInstancesInput, optFns ...func(*awsssoadmin.Options)) (*awsssoadmin.ListInstancesOutput, error)
	ListPermissionSets(ctx context.Context, params *awsssoadmin.ListPermissionSetsInput, optFns ...func(*awsssoadmin.Options)) (*awsssoadmin.ListPermissionSetsOutput, error)
	DescribePermissionSet(ctx context.Context, params *awsssoadmin.DescribePermissionSetInput, optFns ...func(*awsssoadmin.Options)) (*awsssoadmin.DescribePermissionSetOutput, error)
	ListPermissionSetsProvisionedToAccount(ctx context.Context, params *awsssoadmin.ListPermissionSetsProvisionedToAccountInput, optFns ...func(*awsssoadmin.Options)) (*awsssoadmin.ListPermissionSetsProvisionedToAccountOutput, error)
	ListAccountAssignmentsForPrincipal(ctx context.Context, params *awsssoadmin.ListAccountAssignmentsForPrincipalInput, optFns ...func(*awsssoadmin.Options)) (*awsssoadmin.ListAccountAssignmentsForPrincipalOutput, error)
}

type Client struct {
	api SSOAdminAPI
}

func NewClient(api SSOAdminAPI) *Client {
	return &Client{api: api}
}

func (c *Client) ListInstances(ctx context.Context) ([]Instance, error) {
	var instances []Instance
	var nextToken *string

	for {
		out, err := c.api.ListInstances(ctx, &awsssoadmin.ListInstancesInput{NextToken: nextToken})
		if err != nil {
			return nil, fmt.Errorf("ListInstances: %w", err)
		}

		for _, i := range out.Instances {
			instances = append(instances, Instance{
				InstanceArn:     aws.ToString(i.InstanceArn),
				IdentityStoreID: aws.ToString(i.IdentityStoreId),
				Name:            aws.ToString(i.Name),
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return instances, nil
}

// ListPermissionSets lists the permission set ARNs of an instance and describes each one.
func (c *Client) ListPermissionSets(ctx context.Context, instanceArn string) ([]PermissionSet, error) {
	var arns []string
	var nextToken *string

	for {
		out, err := c.api.ListPermissionSets(ctx, &awsssoadmin.ListPermissionSetsInput{
			InstanceArn: aws.String(instanceArn),
			NextToken:   nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("ListPermissionSets(%s): %w", instanceArn, err)
		}
		arns = append(arns, out.PermissionSets...)

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	sets := make([]PermissionSet, 0, len(arns))
	for _, arn := range arns {
		ps, err := c.DescribePermissionSet(ctx, instanceArn, arn)
		if err != nil {
			return nil, err
		}
		sets = append(sets, ps)
	}
	return sets, nil
}

func (c *Client) DescribePermissionSet(ctx context.Context, instanceArn, permissionSetArn string) (PermissionSet, error) {
	out, err := c.api.DescribePermissionSet(ctx, &awsssoadmin.DescribePermissionSetInput{
		InstanceArn:      aws.String(instanceArn),
		PermissionSetArn: aws.String(permissionSetArn),
	})
	if err != nil {
		return PermissionSet{}, fmt.Errorf("DescribePermissionSet(%s): %w", permissionSetArn, err)
	}

	ps := PermissionSet{Arn: permissionSetArn}
	if p := out.PermissionSet; p != nil {
		ps.Name = aws.ToString(p.Name)
		ps.Description = aws.ToString(p.Description)
		if p.CreatedDate != nil {
			ps.CreatedAt = *p.CreatedDate
		}
	}
	return ps, nil
}

func (c *Client) ListPermissionSetsProvisionedToAccount(ctx context.Context, instanceArn, accountID string) ([]string, error) {
	var arns []string
	var nextToken *string

	for {
		out, err := c.api.ListPermissionSetsProvisionedToAccount(ctx, &awsssoadmin.ListPermissionSetsProvisionedToAccountInput{
			InstanceArn: aws.String(instanceArn),
			AccountId:   aws.String(accountID),
			NextToken:   nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("ListPermissionSetsProvisionedToAccount(%s): %w", accountID, err)
		}
		arns = append(arns, out.PermissionSets...)

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return arns, nil
}

// ListAccountAssignmentsForPrincipal lists a principal's assignments in a single account.
func (c *Client) ListAccountAssignmentsForPrincipal(ctx context.Context, instanceArn, principalID string, principalType PrincipalType, accountID string) ([]Assignment, error) {
	var assignments []Assignment
	var nextToken *string

	for {
		out, err := c.api.ListAccountAssignmentsForPrincipal(ctx, &awsssoadmin.ListAccountAssignmentsForPrincipalInput{
			InstanceArn:   aws.String(instanceArn),
			PrincipalId:   aws.String(principalID),
			PrincipalType: ssotypes.PrincipalType(principalType),
			Filter:        &ssotypes.ListAccountAssignmentsFilter{AccountId: aws.String(accountID)},
			NextToken:     nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("ListAccountAssignmentsForPrincipal(%s, %s): %w", principalID, accountID, err)
		}

		for _, a := range out.AccountAssignments {
			assignments = append(assignments, Assignment{
				AccountID:        aws.ToString(a.AccountId),
				PermissionSetArn: aws.ToString(a.PermissionSetArn),
				PrincipalID:      aws.ToString(a.PrincipalId),
				PrincipalType:    PrincipalType(a.PrincipalType),
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return assignments, nil
}

