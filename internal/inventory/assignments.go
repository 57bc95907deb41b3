package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tasnim.dev/aria-idc/internal/aws/ssoadmin"
	"tasnim.dev/aria-idc/internal/model"
	"tasnim.dev/aria-idc/internal/store"
	"tasnim.dev/aria-idc/internal/tables"
)

type principal struct {
	id   string
	name string
}

// SyncUserAccountAssignments looks up every stored user's assignments in every stored account.
func (c *Collector) SyncUserAccountAssignments(ctx context.Context) (Stats, error) {
	users, err := scan[model.User](ctx, c, tables.Users)
	if err != nil {
		return Stats{}, err
	}
	principals := make([]principal, 0, len(users))
	for _, u := range users {
		principals = append(principals, principal{id: u.UserID, name: u.UserName})
	}

	stats, err := c.syncAssignments(ctx, ssoadmin.PrincipalUser, principals, tables.UserAccountAssignments,
		func(p principal, acct model.Account, a ssoadmin.Assignment, psName, now string) any {
			return model.UserAccountAssignment{
				AccountID:         acct.AccountID,
				UserID:            p.id,
				PrincipalType:     model.PrincipalTypeUser,
				PrincipalName:     p.name,
				AccountName:       acct.Name,
				PermissionSetArn:  a.PermissionSetArn,
				PermissionSetName: psName,
				UpdatedAt:         now,
			}
		})
	if err != nil {
		return stats, err
	}
	c.done("user account assignments", stats)
	return stats, nil
}

// SyncGroupAccountAssignments looks up every stored group's assignments in every stored account.
func (c *Collector) SyncGroupAccountAssignments(ctx context.Context) (Stats, error) {
	groups, err := scan[model.Group](ctx, c, tables.Groups)
	if err != nil {
		return Stats{}, err
	}
	principals := make([]principal, 0, len(groups))
	for _, g := range groups {
		principals = append(principals, principal{id: g.GroupID, name: g.GroupName})
	}

	stats, err := c.syncAssignments(ctx, ssoadmin.PrincipalGroup, principals, tables.GroupAccountAssignments,
		func(p principal, acct model.Account, a ssoadmin.Assignment, psName, now string) any {
			return model.GroupAccountAssignment{
				GroupID:           p.id,
				AccountID:         acct.AccountID,
				PrincipalType:     model.PrincipalTypeGroup,
				PrincipalName:     p.name,
				AccountName:       acct.Name,
				PermissionSetArn:  a.PermissionSetArn,
				PermissionSetName: psName,
				UpdatedAt:         now,
			}
		})
	if err != nil {
		return stats, err
	}
	c.done("group account assignments", stats)
	return stats, nil
}

type assignmentRecord func(p principal, acct model.Account, a ssoadmin.Assignment, psName, now string) any

func (c *Collector) syncAssignments(ctx context.Context, kind ssoadmin.PrincipalType, principals []principal, dest string, build assignmentRecord) (Stats, error) {
	var stats Stats
	inst, err := c.deps.Instance(ctx)
	if err != nil {
		return stats, err
	}

	accounts, err := scan[model.Account](ctx, c, tables.Accounts)
	if err != nil {
		return stats, err
	}

	names := &permissionSetNames{table: c.table(tables.PermissionSets), cache: map[string]string{}}
	now := c.stamp()
	var records []any

	for _, p := range principals {
		for _, acct := range accounts {
			assignments, err := c.deps.SSOAdmin.ListAccountAssignmentsForPrincipal(ctx, inst.InstanceArn, p.id, kind, acct.AccountID)
			if err != nil {
				c.log.Warn("skipping principal in account",
					zap.String("principal_id", p.id),
					zap.String("principal_type", string(kind)),
					zap.String("account_id", acct.AccountID),
					zap.Error(err))
				stats.skip(err)
				continue
			}

			for _, a := range assignments {
				psName, err := names.lookup(ctx, a.PermissionSetArn)
				if err != nil {
					c.log.Warn("skipping assignment",
						zap.String("principal_id", p.id),
						zap.String("account_id", acct.AccountID),
						zap.Error(err))
					stats.skip(err)
					continue
				}
				if psName == "" {
					c.log.Warn("permission set not in table",
						zap.String("permission_set_arn", a.PermissionSetArn),
						zap.String("principal_id", p.id))
				}
				records = append(records, build(p, acct, a, psName, now))
			}
		}
	}

	if err := c.replace(ctx, dest, records, &stats); err != nil {
		return stats, err
	}
	return stats, nil
}

// permissionSetNames resolves display names from the permission set table, once per ARN.
type permissionSetNames struct {
	table store.Table
	cache map[string]string
}

func (n *permissionSetNames) lookup(ctx context.Context, arn string) (string, error) {
	if name, ok := n.cache[arn]; ok {
		return name, nil
	}
	item, ok, err := n.table.Get(ctx, store.Key{"PermissionSetArn": arn})
	if err != nil {
		return "", fmt.Errorf("looking up permission set %s: %w", arn, err)
	}
	name := ""
	if ok {
		name = item.String("Name")
	}
	n.cache[arn] = name
	return name, nil
}
