package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasnim.dev/aria-idc/internal/store"
)

func TestToItem_UsesAttributeNames(t *testing.T) {
	item, err := ToItem(UserAccountAssignment{
		AccountID:         "111111111111",
		UserID:            "u-1",
		PrincipalType:     PrincipalTypeUser,
		PermissionSetArn:  "arn:aws:sso:::permissionSet/ssoins-1/ps-1",
		PermissionSetName: "ReadOnly",
	})
	require.NoError(t, err)

	assert.Equal(t, "111111111111", item["AccountId"])
	assert.Equal(t, "u-1", item["UserId"])
	assert.Equal(t, "ReadOnly", item["Name"])
	assert.Equal(t, "USER", item["PrincipalType"])
	_, hasGoName := item["PermissionSetName"]
	assert.False(t, hasGoName)
}

func TestFromItem_NarrowsBackendValues(t *testing.T) {
	// JSON and DynamoDB backends hand back float64 numbers and []any lists.
	item := store.Item{
		"FindingId":              "f-1",
		"NumberOfUnusedServices": float64(4),
		"NumberOfUnusedActions":  float64(12),
		"Status":                 "ACTIVE",
	}
	var f UnusedAccessFinding
	require.NoError(t, FromItem(item, &f))
	assert.Equal(t, "f-1", f.FindingID)
	assert.Equal(t, 4, f.NumberOfUnusedServices)
	assert.Equal(t, 12, f.NumberOfUnusedActions)

	roleItem := store.Item{
		"IamRoleArn":       "arn:aws:iam::111111111111:role/r",
		"AttachedPolicies": []any{"ReadOnlyAccess"},
	}
	var role IamRole
	require.NoError(t, FromItem(roleItem, &role))
	assert.Equal(t, []string{"ReadOnlyAccess"}, role.AttachedPolicies)
}

func TestFromItems(t *testing.T) {
	accounts, err := FromItems[Account]([]store.Item{
		{"AccountId": "111111111111", "Name": "prod", "Status": "ACTIVE"},
		{"AccountId": "222222222222", "Name": "old", "Status": "SUSPENDED"},
	})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "prod", accounts[0].Name)
	assert.Equal(t, "SUSPENDED", accounts[1].Status)
}
