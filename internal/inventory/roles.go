package inventory

import (
	"context"
	"strings"

	"go.uber.org/zap"

	awsaria "tasnim.dev/aria-idc/internal/aws"
	"tasnim.dev/aria-idc/internal/model"
	"tasnim.dev/aria-idc/internal/tables"
	"tasnim.dev/aria-idc/internal/utils"
)

// roleSuffixLen is the length of the "_" plus 16 hex characters Identity Center appends to role names.
const roleSuffixLen = 17

// PermissionSetNameFromRole derives the permission set name from an Identity Center role name,
// e.g. AWSReservedSSO_ReadOnly_0123456789abcdef becomes ReadOnly.
func PermissionSetNameFromRole(roleName, prefix string) string {
	name := strings.TrimPrefix(roleName, prefix)
	if len(name) <= roleSuffixLen {
		return ""
	}
	return name[:len(name)-roleSuffixLen]
}

// SyncIAMRoles assumes the inventory role in every stored account and records the
// Identity Center roles found there. An account that cannot be read is skipped.
func (c *Collector) SyncIAMRoles(ctx context.Context) (Stats, error) {
	var stats Stats

	accounts, err := scan[model.Account](ctx, c, tables.Accounts)
	if err != nil {
		return stats, err
	}
	provisioned, err := scan[model.ProvisionedPermissionSet](ctx, c, tables.ProvisionedPermissionSets)
	if err != nil {
		return stats, err
	}
	byAccount := make(map[string]map[string]string)
	for _, p := range provisioned {
		if byAccount[p.AccountID] == nil {
			byAccount[p.AccountID] = map[string]string{}
		}
		byAccount[p.AccountID][p.PermissionSetName] = p.PermissionSetArn
	}

	var records []any
	for _, acct := range accounts {
		roleARN := awsaria.RoleARN(c.opts.Partition, acct.AccountID, c.opts.RoleName)
		lister := c.deps.AssumeRole(roleARN)

		roles, err := lister.ListRoles(ctx, c.opts.RolePrefix)
		if err != nil {
			c.log.Warn("skipping account", zap.String("account_id", acct.AccountID), zap.String("role_arn", roleARN), zap.Error(err))
			stats.skip(err)
			continue
		}

		for _, r := range roles {
			policies, err := lister.ListAttachedRolePolicies(ctx, r.Name)
			if err != nil {
				c.log.Warn("skipping role", zap.String("account_id", acct.AccountID), zap.String("role", r.Name), zap.Error(err))
				stats.skip(err)
				continue
			}
			policyNames := make([]string, 0, len(policies))
			for _, p := range policies {
				policyNames = append(policyNames, p.Name)
			}

			psName := PermissionSetNameFromRole(r.Name, c.opts.RolePrefix)
			psArn := ""
			if psName != "" {
				psArn = byAccount[acct.AccountID][psName]
			}
			records = append(records, model.IamRole{
				IamRoleArn:        r.ARN,
				RoleName:          r.Name,
				AccountID:         acct.AccountID,
				RoleID:            r.RoleID,
				AttachedPolicies:  policyNames,
				PermissionSetName: psName,
				PermissionSetArn:  psArn,
				CreateDate:        utils.TimeOrEmpty(r.CreatedAt),
			})
		}
	}

	if err := c.replace(ctx, tables.IAMRoles, records, &stats); err != nil {
		return stats, err
	}
	c.done("iam roles", stats)
	return stats, nil
}
