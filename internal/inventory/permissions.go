package inventory

import (
	"context"

	"go.uber.org/zap"

	"tasnim.dev/aria-idc/internal/model"
	"tasnim.dev/aria-idc/internal/tables"
)

func (c *Collector) SyncPermissionSets(ctx context.Context) (Stats, error) {
	var stats Stats
	inst, err := c.deps.Instance(ctx)
	if err != nil {
		return stats, err
	}

	sets, err := c.deps.SSOAdmin.ListPermissionSets(ctx, inst.InstanceArn)
	if err != nil {
		return stats, err
	}

	now := c.stamp()
	records := make([]any, 0, len(sets))
	for _, ps := range sets {
		records = append(records, model.PermissionSet{
			PermissionSetArn: ps.Arn,
			Name:             ps.Name,
			Description:      ps.Description,
			UpdatedAt:        now,
		})
	}

	if err := c.replace(ctx, tables.PermissionSets, records, &stats); err != nil {
		return stats, err
	}
	c.done("permission sets", stats)
	return stats, nil
}

func (c *Collector) SyncAccounts(ctx context.Context) (Stats, error) {
	var stats Stats
	accounts, err := c.deps.Organizations.ListAccounts(ctx)
	if err != nil {
		return stats, err
	}

	now := c.stamp()
	records := make([]any, 0, len(accounts))
	for _, a := range accounts {
		records = append(records, model.Account{
			AccountID: a.ID,
			Name:      a.Name,
			Status:    a.Status,
			UpdatedAt: now,
		})
	}

	if err := c.replace(ctx, tables.Accounts, records, &stats); err != nil {
		return stats, err
	}
	c.done("accounts", stats)
	return stats, nil
}

// SyncProvisionedPermissionSets records which permission sets are provisioned to each
// active account. Names come from the stored permission sets; an unknown ARN gets an empty name.
func (c *Collector) SyncProvisionedPermissionSets(ctx context.Context) (Stats, error) {
	var stats Stats
	inst, err := c.deps.Instance(ctx)
	if err != nil {
		return stats, err
	}

	accounts, err := scan[model.Account](ctx, c, tables.Accounts)
	if err != nil {
		return stats, err
	}
	sets, err := scan[model.PermissionSet](ctx, c, tables.PermissionSets)
	if err != nil {
		return stats, err
	}
	names := make(map[string]string, len(sets))
	for _, ps := range sets {
		names[ps.PermissionSetArn] = ps.Name
	}

	now := c.stamp()
	var records []any
	for _, a := range accounts {
		if a.Status != model.AccountStatusActive {
			c.log.Debug("skipping inactive account", zap.String("account_id", a.AccountID), zap.String("status", a.Status))
			continue
		}

		arns, err := c.deps.SSOAdmin.ListPermissionSetsProvisionedToAccount(ctx, inst.InstanceArn, a.AccountID)
		if err != nil {
			c.log.Warn("skipping account", zap.String("account_id", a.AccountID), zap.Error(err))
			stats.skip(err)
			continue
		}

		for _, arn := range arns {
			name, ok := names[arn]
			if !ok {
				c.log.Warn("permission set not in table", zap.String("permission_set_arn", arn))
			}
			records = append(records, model.ProvisionedPermissionSet{
				PermissionSetArn:  arn,
				PermissionSetName: name,
				AccountID:         a.AccountID,
				AccountName:       a.Name,
				UpdatedAt:         now,
			})
		}
	}

	if err := c.replace(ctx, tables.ProvisionedPermissionSets, records, &stats); err != nil {
		return stats, err
	}
	c.done("provisioned permission sets", stats)
	return stats, nil
}
