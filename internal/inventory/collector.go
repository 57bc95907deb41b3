// Package inventory copies Identity Center, Organizations and IAM state into the inventory tables.
package inventory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"tasnim.dev/aria-idc/internal/aws/iam"
	"tasnim.dev/aria-idc/internal/aws/identitystore"
	"tasnim.dev/aria-idc/internal/aws/organizations"
	"tasnim.dev/aria-idc/internal/aws/ssoadmin"
	"tasnim.dev/aria-idc/internal/model"
	"tasnim.dev/aria-idc/internal/store"
	"tasnim.dev/aria-idc/internal/tables"
	"tasnim.dev/aria-idc/internal/utils"
)

type IdentityStore interface {
	ListUsers(ctx context.Context, storeID string) ([]identitystore.User, error)
	ListGroups(ctx context.Context, storeID string) ([]identitystore.Group, error)
	ListGroupMemberships(ctx context.Context, storeID, groupID string) ([]identitystore.Membership, error)
}

type SSOAdmin interface {
	ListPermissionSets(ctx context.Context, instanceArn string) ([]ssoadmin.PermissionSet, error)
	ListPermissionSetsProvisionedToAccount(ctx context.Context, instanceArn, accountID string) ([]string, error)
	ListAccountAssignmentsForPrincipal(ctx context.Context, instanceArn, principalID string, principalType ssoadmin.PrincipalType, accountID string) ([]ssoadmin.Assignment, error)
}

type Organizations interface {
	ListAccounts(ctx context.Context) ([]organizations.Account, error)
}

// RoleLister lists roles in one member account.
type RoleLister interface {
	ListRoles(ctx context.Context, namePrefix string) ([]iam.IAMRole, error)
	ListAttachedRolePolicies(ctx context.Context, roleName string) ([]iam.IAMAttachedPolicy, error)
}

// Instance identifies the Identity Center instance being inventoried.
type Instance struct {
	InstanceArn     string
	IdentityStoreID string
}

type Deps struct {
	Tables        *tables.Set
	IdentityStore IdentityStore
	SSOAdmin      SSOAdmin
	Organizations Organizations
	// AssumeRole returns a RoleLister acting as the given role ARN.
	AssumeRole func(roleARN string) RoleLister
	// Instance resolves the Identity Center instance on first use.
	Instance func(ctx context.Context) (Instance, error)
}

type Options struct {
	Partition       string
	RoleName        string
	RolePrefix      string
	ClearBeforeSync bool
}

// Stats summarizes one collector run. Err joins the per-item failures that were skipped.
type Stats struct {
	Written int
	Skipped int
	Cleared int
	Err     error
}

func (s *Stats) skip(err error) {
	s.Skipped++
	s.Err = multierr.Append(s.Err, err)
}

func (s Stats) fields() []zap.Field {
	return []zap.Field{
		zap.Int("written", s.Written),
		zap.Int("skipped", s.Skipped),
		zap.Int("cleared", s.Cleared),
	}
}

type Collector struct {
	deps Deps
	opts Options
	log  *zap.Logger
	now  func() time.Time
}

func New(deps Deps, opts Options, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{deps: deps, opts: opts, log: log, now: time.Now}
}

// WithClock replaces the clock used for UpdatedAt stamps.
func (c *Collector) WithClock(now func() time.Time) *Collector {
	c.now = now
	return c
}

func (c *Collector) stamp() string {
	return utils.Timestamp(c.now())
}

func (c *Collector) table(logical string) store.Table {
	return c.deps.Tables.Get(logical)
}

// replace clears the destination table when configured, then upserts every record.
// A record that fails to write is counted as skipped.
func (c *Collector) replace(ctx context.Context, logical string, records []any, stats *Stats) error {
	t := c.table(logical)

	if c.opts.ClearBeforeSync {
		n, err := store.Clear(ctx, t)
		stats.Cleared = n
		if err != nil {
			return fmt.Errorf("clearing %s: %w", t.Schema().Name, err)
		}
	}

	for _, rec := range records {
		item, err := model.ToItem(rec)
		if err == nil {
			err = t.Put(ctx, item)
		}
		if err != nil {
			c.log.Warn("skipping record", zap.String("table", t.Schema().Name), zap.Error(err))
			stats.skip(err)
			continue
		}
		stats.Written++
	}
	return nil
}

func (c *Collector) done(name string, stats Stats) {
	c.log.Info(name+" synced", stats.fields()...)
}

// scan decodes every item of a logical table into T.
func scan[T any](ctx context.Context, c *Collector, logical string) ([]T, error) {
	items, err := c.table(logical).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", logical, err)
	}
	return model.FromItems[T](items)
}
