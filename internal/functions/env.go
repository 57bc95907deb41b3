// Package functions exposes every deployable function behind one registry.
package functions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	awsaria "tasnim.dev/aria-idc/internal/aws"
	"tasnim.dev/aria-idc/internal/aws/ssoadmin"
	"tasnim.dev/aria-idc/internal/config"
	"tasnim.dev/aria-idc/internal/deploy"
	"tasnim.dev/aria-idc/internal/export"
	"tasnim.dev/aria-idc/internal/findings"
	"tasnim.dev/aria-idc/internal/inventory"
	"tasnim.dev/aria-idc/internal/store"
	"tasnim.dev/aria-idc/internal/store/sqlite"
	"tasnim.dev/aria-idc/internal/tables"
)

// ErrNoInstance is returned when the account has no Identity Center instance.
var ErrNoInstance = errors.New("no identity center instance")

// SSOAdmin adds instance discovery to the calls the collectors make.
type SSOAdmin interface {
	inventory.SSOAdmin
	ListInstances(ctx context.Context) ([]ssoadmin.Instance, error)
}

// Services are the external collaborators a function may call.
type Services struct {
	IdentityStore inventory.IdentityStore
	SSOAdmin      SSOAdmin
	Organizations inventory.Organizations
	AssumeRole    func(roleARN string) inventory.RoleLister
	Objects       export.ObjectStore
	Parameters    deploy.Parameters
	Functions     deploy.Functions
	// AccountID reports the caller's account for logging; it may be nil.
	AccountID     func(ctx context.Context) string
}

// ServicesFromClient adapts the AWS wrappers.
func ServicesFromClient(c *awsaria.ServiceClient) Services {
	return Services{
		IdentityStore: c.IdentityStore,
		SSOAdmin:      c.SSOAdmin,
		Organizations: c.Organizations,
		AssumeRole: func(roleARN string) inventory.RoleLister {
			return c.IAMForRole(roleARN)
		},
		Objects:    c.S3,
		Parameters: c.SSM,
		Functions:  c.Lambda,
		AccountID:  c.AccountID,
	}
}

// Env is the dependency context shared by every invocation of a process.
type Env struct {
	Config   *config.Config
	Log      *zap.Logger
	Store    store.Store
	Tables   *tables.Set
	Services Services

	mu       sync.Mutex
	instance *inventory.Instance
}

// NewEnv connects the configured store and the AWS clients.
func NewEnv(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Env, error) {
	client, err := awsaria.NewServiceClient(ctx, cfg.DefaultProfile, cfg.DefaultRegion)
	if err != nil {
		return nil, fmt.Errorf("initializing AWS client: %w", err)
	}

	var st store.Store
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		st, err = sqlite.Open(ctx, cfg.Store.Path)
		if err != nil {
			return nil, err
		}
	default:
		st = client.DynamoDB
	}

	return NewEnvWith(cfg, st, ServicesFromClient(client), log), nil
}

// NewEnvWith assembles an Env from already built parts.
func NewEnvWith(cfg *config.Config, st store.Store, svc Services, log *zap.Logger) *Env {
	if log == nil {
		log = zap.NewNop()
	}
	return &Env{
		Config:   cfg,
		Log:      log,
		Store:    st,
		Tables:   tables.NewSet(st, cfg.Store.TablePrefix),
		Services: svc,
	}
}

func (e *Env) Close() error {
	return e.Store.Close()
}

// Instance returns the configured Identity Center instance, or the first one the
// account has. A successful lookup is cached for the life of the Env.
func (e *Env) Instance(ctx context.Context) (inventory.Instance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.instance != nil {
		return *e.instance, nil
	}

	ic := e.Config.IdentityCenter
	if ic.InstanceArn != "" && ic.IdentityStoreID != "" {
		e.instance = &inventory.Instance{InstanceArn: ic.InstanceArn, IdentityStoreID: ic.IdentityStoreID}
		return *e.instance, nil
	}

	instances, err := e.Services.SSOAdmin.ListInstances(ctx)
	if err != nil {
		return inventory.Instance{}, fmt.Errorf("resolving identity center instance: %w", err)
	}
	for _, in := range instances {
		if ic.InstanceArn != "" && in.InstanceArn != ic.InstanceArn {
			continue
		}
		e.instance = &inventory.Instance{InstanceArn: in.InstanceArn, IdentityStoreID: in.IdentityStoreID}
		e.Log.Debug("identity center instance resolved",
			zap.String("instance_arn", in.InstanceArn),
			zap.String("identity_store_id", in.IdentityStoreID))
		return *e.instance, nil
	}
	if ic.InstanceArn != "" {
		return inventory.Instance{}, fmt.Errorf("%w: %s", ErrNoInstance, ic.InstanceArn)
	}
	return inventory.Instance{}, ErrNoInstance
}

func (e *Env) collector() *inventory.Collector {
	inv := e.Config.Inventory
	return inventory.New(inventory.Deps{
		Tables:        e.Tables,
		IdentityStore: e.Services.IdentityStore,
		SSOAdmin:      e.Services.SSOAdmin,
		Organizations: e.Services.Organizations,
		AssumeRole:    e.Services.AssumeRole,
		Instance:      e.Instance,
	}, inventory.Options{
		Partition:       e.Config.Partition,
		RoleName:        inv.RoleName,
		RolePrefix:      inv.RolePrefix,
		ClearBeforeSync: inv.ClearBeforeSync,
	}, e.Log.Named("inventory"))
}

func (e *Env) ingestor() (*findings.Ingestor, error) {
	terminal, err := findings.NewTerminalStatuses(e.Config.Findings.TerminalStatuses)
	if err != nil {
		return nil, err
	}
	return findings.NewIngestor(e.Tables, terminal, e.Log.Named("findings")), nil
}

func (e *Env) exporter() *export.Exporter {
	return export.NewExporter(e.Tables, e.Services.Objects, e.Log.Named("export"))
}

func (e *Env) updater() *deploy.Updater {
	return deploy.NewUpdater(e.Services.Parameters, e.Services.Functions,
		e.Config.Deploy.ParameterPrefix, e.Log.Named("deploy"))
}
