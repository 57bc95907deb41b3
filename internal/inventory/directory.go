package inventory

import (
	"context"

	"go.uber.org/zap"

	"tasnim.dev/aria-idc/internal/model"
	"tasnim.dev/aria-idc/internal/tables"
)

func (c *Collector) SyncUsers(ctx context.Context) (Stats, error) {
	var stats Stats
	inst, err := c.deps.Instance(ctx)
	if err != nil {
		return stats, err
	}

	users, err := c.deps.IdentityStore.ListUsers(ctx, inst.IdentityStoreID)
	if err != nil {
		return stats, err
	}

	now := c.stamp()
	records := make([]any, 0, len(users))
	for _, u := range users {
		records = append(records, model.User{
			UserID:    u.UserID,
			UserName:  u.UserName,
			Email:     u.Email,
			UpdatedAt: now,
		})
	}

	if err := c.replace(ctx, tables.Users, records, &stats); err != nil {
		return stats, err
	}
	c.done("users", stats)
	return stats, nil
}

func (c *Collector) SyncGroups(ctx context.Context) (Stats, error) {
	var stats Stats
	inst, err := c.deps.Instance(ctx)
	if err != nil {
		return stats, err
	}

	groups, err := c.deps.IdentityStore.ListGroups(ctx, inst.IdentityStoreID)
	if err != nil {
		return stats, err
	}

	now := c.stamp()
	records := make([]any, 0, len(groups))
	for _, g := range groups {
		records = append(records, model.Group{
			GroupID:   g.GroupID,
			GroupName: g.DisplayName,
			UpdatedAt: now,
		})
	}

	if err := c.replace(ctx, tables.Groups, records, &stats); err != nil {
		return stats, err
	}
	c.done("groups", stats)
	return stats, nil
}

// SyncGroupMemberships lists the user members of every stored group.
// A group whose memberships cannot be listed is skipped.
func (c *Collector) SyncGroupMemberships(ctx context.Context) (Stats, error) {
	var stats Stats
	inst, err := c.deps.Instance(ctx)
	if err != nil {
		return stats, err
	}

	groups, err := scan[model.Group](ctx, c, tables.Groups)
	if err != nil {
		return stats, err
	}

	now := c.stamp()
	var records []any
	for _, g := range groups {
		members, err := c.deps.IdentityStore.ListGroupMemberships(ctx, inst.IdentityStoreID, g.GroupID)
		if err != nil {
			c.log.Warn("skipping group", zap.String("group_id", g.GroupID), zap.Error(err))
			stats.skip(err)
			continue
		}
		for _, m := range members {
			records = append(records, model.GroupMembership{
				GroupID:   g.GroupID,
				UserID:    m.UserID,
				UpdatedAt: now,
			})
		}
	}

	if err := c.replace(ctx, tables.GroupMembership, records, &stats); err != nil {
		return stats, err
	}
	c.done("group memberships", stats)
	return stats, nil
}
