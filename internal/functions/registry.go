package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tasnim.dev/aria-idc/internal/deploy"
	"tasnim.dev/aria-idc/internal/export"
	"tasnim.dev/aria-idc/internal/findings"
	"tasnim.dev/aria-idc/internal/inventory"
	"tasnim.dev/aria-idc/internal/tables"
)

// Function names as deployed.
const (
	CreateTables                  = "createtables"
	ListUsers                     = "listusers"
	ListGroups                    = "listgroups"
	ListGroupMembership           = "listgroupmembership"
	ListPermissionSets            = "listpermissionsets"
	ListAccounts                  = "listaccounts"
	ListProvisionedPermissionSets = "listprovisionedpermissionsets"
	ListUserAccountAssignments    = "listuseraccountassignments"
	ListGroupAccountAssignments   = "listgroupaccountassignments"
	GetIAMRoles                   = "getiamroles"
	AccessAnalyzerFindingIngest   = "accessanalyzerfindingingestion"
	S3Export                      = "s3export"
	UpdateFunctionCode            = "updatefunctioncode"
)

// Response is the two-state result every function returns.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

func ok(format string, args ...any) Response {
	return Response{StatusCode: 200, Body: fmt.Sprintf(format, args...)}
}

func failed(err error) Response {
	return Response{StatusCode: 500, Body: err.Error()}
}

// Failed reports whether the response is a failure.
func (r Response) Failed() bool {
	return r.StatusCode >= 300
}

// Handler runs one function against env with the raw invocation payload.
type Handler func(ctx context.Context, env *Env, payload []byte) (Response, error)

type entry struct {
	name    string
	summary string
	handler Handler
}

// registry lists functions in the order inventory data depends on each other.
var registry = []entry{
	{CreateTables, "create every table that does not exist", createTables},
	{ListUsers, "sync identity store users", syncWith((*inventory.Collector).SyncUsers, "Users")},
	{ListGroups, "sync identity store groups", syncWith((*inventory.Collector).SyncGroups, "Groups")},
	{ListGroupMembership, "sync group memberships", syncWith((*inventory.Collector).SyncGroupMemberships, "Group memberships")},
	{ListPermissionSets, "sync permission sets", syncWith((*inventory.Collector).SyncPermissionSets, "Permission sets")},
	{ListAccounts, "sync organization accounts", syncWith((*inventory.Collector).SyncAccounts, "Accounts")},
	{ListProvisionedPermissionSets, "sync permission sets provisioned to each account", syncWith((*inventory.Collector).SyncProvisionedPermissionSets, "Provisioned permission sets")},
	{ListUserAccountAssignments, "sync user account assignments", syncWith((*inventory.Collector).SyncUserAccountAssignments, "User account assignments")},
	{ListGroupAccountAssignments, "sync group account assignments", syncWith((*inventory.Collector).SyncGroupAccountAssignments, "Group account assignments")},
	{GetIAMRoles, "sync Identity Center roles in every account", syncWith((*inventory.Collector).SyncIAMRoles, "IAM roles")},
	{AccessAnalyzerFindingIngest, "apply an Access Analyzer finding event", ingestFinding},
	{S3Export, "export the tables to S3 as graph CSV files", exportGraph},
	{UpdateFunctionCode, "publish uploaded function code", updateFunctionCode},
}

// Names returns every function name in registry order.
func Names() []string {
	names := make([]string, len(registry))
	for i, e := range registry {
		names[i] = e.name
	}
	return names
}

// Summary returns the one-line description of a function.
func Summary(name string) string {
	for _, e := range registry {
		if e.name == name {
			return e.summary
		}
	}
	return ""
}

// Lookup returns the handler registered under name.
func Lookup(name string) (Handler, bool) {
	for _, e := range registry {
		if e.name == name {
			return e.handler, true
		}
	}
	return nil, false
}

// Pipeline returns the scheduled functions in dependency order. The export runs last,
// and only when a bucket is configured.
func Pipeline(env *Env) []string {
	names := []string{
		ListUsers,
		ListGroups,
		ListGroupMembership,
		ListPermissionSets,
		ListAccounts,
		ListProvisionedPermissionSets,
		ListUserAccountAssignments,
		ListGroupAccountAssignments,
		GetIAMRoles,
	}
	if env.Config.Export.Bucket != "" {
		names = append(names, S3Export)
	}
	return names
}

// Invoke runs a function and logs its outcome. A handler error is turned into a 500
// response and also returned.
func Invoke(ctx context.Context, env *Env, name string, payload []byte) (Response, error) {
	h, found := Lookup(name)
	if !found {
		err := fmt.Errorf("unknown function %q", name)
		return failed(err), err
	}

	log := env.Log.With(zap.String("function", name))
	start := time.Now()
	resp, err := h(ctx, env, payload)
	if err != nil {
		resp = failed(err)
		log.Error("function failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return resp, err
	}
	log.Info("function finished",
		zap.Int("status_code", resp.StatusCode),
		zap.String("body", resp.Body),
		zap.Duration("duration", time.Since(start)))
	return resp, nil
}

// RunPipeline invokes every pipeline function in order and stops at the first failure.
func RunPipeline(ctx context.Context, env *Env) error {
	for _, name := range Pipeline(env) {
		if _, err := Invoke(ctx, env, name, nil); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func createTables(ctx context.Context, env *Env, _ []byte) (Response, error) {
	created, existing := 0, 0
	for _, t := range tables.Schemas(env.Tables.Prefix()) {
		made, err := env.Store.Ensure(ctx, t)
		if err != nil {
			return Response{}, err
		}
		if made {
			created++
			env.Log.Info("table created", zap.String("table", t.Name))
		} else {
			existing++
			env.Log.Info("table already exists", zap.String("table", t.Name))
		}
	}
	return ok("Tables ready: %d created, %d already existed", created, existing), nil
}

func syncWith(run func(*inventory.Collector, context.Context) (inventory.Stats, error), what string) Handler {
	return func(ctx context.Context, env *Env, _ []byte) (Response, error) {
		stats, err := run(env.collector(), ctx)
		if err != nil {
			return Response{}, err
		}
		return ok("%s synced: %d written, %d skipped", what, stats.Written, stats.Skipped), nil
	}
}

func ingestFinding(ctx context.Context, env *Env, payload []byte) (Response, error) {
	var ev findings.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Response{}, fmt.Errorf("%w: %v", findings.ErrMalformed, err)
	}
	ingestor, err := env.ingestor()
	if err != nil {
		return Response{}, err
	}
	outcome, err := ingestor.Ingest(ctx, ev)
	if err != nil {
		return Response{}, err
	}
	return ok("Finding %s", outcome), nil
}

func exportGraph(ctx context.Context, env *Env, payload []byte) (Response, error) {
	tr, err := export.ParseTrigger(payload, env.Config.Export.Bucket)
	if err != nil {
		return Response{}, err
	}
	report, err := env.exporter().Export(ctx, tr.S3Bucket)
	if err != nil {
		return Response{}, err
	}
	return ok("Data exported to S3: %d files, %d rows", len(report.Written), report.Rows), nil
}

func updateFunctionCode(ctx context.Context, env *Env, payload []byte) (Response, error) {
	ev, err := deploy.ParseEvent(payload)
	if err != nil {
		return Response{}, err
	}
	res, err := env.updater().Update(ctx, ev)
	if err != nil {
		return Response{}, err
	}
	return ok("Updated %s to version %s", res.FunctionArn, res.Version), nil
}
