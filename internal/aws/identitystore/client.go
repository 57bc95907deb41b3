package identitystore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsidentitystore "github.com/aws/aws-sdk-go-v2/service/identitystore"
	idstypes "github.com/aws/aws-sdk-go-v2/service/identitystore/types"
)

type IdentityStoreAPI interface {
	ListUsers(ctx context.Context, params *awsidentitystore.ListUsersInput, optFns ...func(*awsidentitystore.Options)) (*awsidentitystore.ListUsersOutput, error)
	ListGroups(ctx context.Context, params *awsidentitystore.ListGroupsInput, optFns ...func(*awsidentitystore.Options)) (*awsidentitystore.ListGroupsOutput, error)
	ListGroupMemberships(ctx context.Context, params *awsidentitystore.ListGroupMembershipsInput, optFns ...func(*awsidentitystore.Options)) (*awsidentitystore.ListGroupMembershipsOutput, error)
}

type Client struct {
	api IdentityStoreAPI
}

func NewClient(api IdentityStoreAPI) *Client {
	return &Client{api: api}
}

func (c *Client) ListUsers(ctx context.Context, storeID string) ([]User, error) {
	var users []User
	var nextToken *string

	for {
		out, err := c.api.ListUsers(ctx, &awsidentitystore.ListUsersInput{
			IdentityStoreId: aws.String(storeID),
			NextToken:       nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("ListUsers(%s): %w", storeID, err)
		}

		for _, u := range out.Users {
			users = append(users, User{
				UserID:   aws.ToString(u.UserId),
				UserName: aws.ToString(u.UserName),
				Email:    firstEmail(u.Emails),
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return users, nil
}

func (c *Client) ListGroups(ctx context.Context, storeID string) ([]Group, error) {
	var groups []Group
	var nextToken *string

	for {
		out, err := c.api.ListGroups(ctx, &awsidentitystore.ListGroupsInput{
			IdentityStoreId: aws.String(storeID),
			NextToken:       nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("ListGroups(%s): %w", storeID, err)
		}

		for _, g := range out.Groups {
			groups = append(groups, Group{
				GroupID:     aws.ToString(g.GroupId),
				DisplayName: aws.ToString(g.DisplayName),
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return groups, nil
}

// ListGroupMemberships returns the user members of a group. Non-user members are dropped.
func (c *Client) ListGroupMemberships(ctx context.Context, storeID, groupID string) ([]Membership, error) {
	var members []Membership
	var nextToken *string

	for {
		out, err := c.api.ListGroupMemberships(ctx, &awsidentitystore.ListGroupMembershipsInput{
			IdentityStoreId: aws.String(storeID),
			GroupId:         aws.String(groupID),
			NextToken:       nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("ListGroupMemberships(%s): %w", groupID, err)
		}

		for _, m := range out.GroupMemberships {
			user, ok := m.MemberId.(*idstypes.MemberIdMemberUserId)
			if !ok {
				continue
			}
			members = append(members, Membership{
				GroupID:      groupID,
				UserID:       user.Value,
				MembershipID: aws.ToString(m.MembershipId),
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return members, nil
}

func firstEmail(emails []idstypes.Email) string {
	if len(emails) == 0 {
		return ""
	}
	return aws.ToString(emails[0].Value)
}
