package iam

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsiam "github.com/aws/aws-sdk-go-v2/service/iam"
)

type IAMAPI interface {
	ListRoles(ctx context.Context, params *awsiam.ListRolesInput, optFns ...func(*awsiam.Options)) (*awsiam.ListRolesOutput, error)
	ListAttachedRolePolicies(ctx context.Context, params *awsiam.ListAttachedRolePoliciesInput, optFns ...func(*awsiam.Options)) (*awsiam.ListAttachedRolePoliciesOutput, error)
}

type Client struct {
	api IAMAPI
}

func NewClient(api IAMAPI) *Client {
	return &Client{api: api}
}

// ListRoles returns every role whose name starts with namePrefix. An empty prefix matches all roles.
func (c *Client) ListRoles(ctx context.Context, namePrefix string) ([]IAMRole, error) {
	var roles []IAMRole
	var marker *string

	for {
		out, err := c.api.ListRoles(ctx, &awsiam.ListRolesInput{
			Marker: marker,
		})
		if err != nil {
			return nil, fmt.Errorf("ListRoles(%s): %w", namePrefix, err)
		}

		for _, r := range out.Roles {
			name := aws.ToString(r.RoleName)
			if !strings.HasPrefix(name, namePrefix) {
				continue
			}

			var createdAt time.Time
			if r.CreateDate != nil {
				createdAt = *r.CreateDate
			}

			roles = append(roles, IAMRole{
				Name:      name,
				RoleID:    aws.ToString(r.RoleId),
				ARN:       aws.ToString(r.Arn),
				Path:      aws.ToString(r.Path),
				CreatedAt: createdAt,
			})
		}

		if !out.IsTruncated {
			break
		}
		marker = out.Marker
	}

	return roles, nil
}

func (c *Client) ListAttachedRolePolicies(ctx context.Context, roleName string) ([]IAMAttachedPolicy, error) {
	var policies []IAMAttachedPolicy
	var marker *string

	for {
		out, err := c.api.ListAttachedRolePolicies(ctx, &awsiam.ListAttachedRolePoliciesInput{
			RoleName: aws.String(roleName),
			Marker:   marker,
		})
		if err != nil {
			return nil, fmt.Errorf("ListAttachedRolePolicies(%s): %w", roleName, err)
		}

		for _, p := range out.AttachedPolicies {
			policies = append(policies, IAMAttachedPolicy{
				Name: aws.ToString(p.PolicyName),
				ARN:  aws.ToString(p.PolicyArn),
			})
		}

		if !out.IsTruncated {
			break
		}
		marker = out.Marker
	}

	return policies, nil
}
