package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasnim.dev/aria-idc/internal/aws/s3"
	"tasnim.dev/aria-idc/internal/store"
	"tasnim.dev/aria-idc/internal/store/sqlite"
	"tasnim.dev/aria-idc/internal/tables"
)

type fakeObjects struct {
	puts    map[string]s3.Object
	deletes []string
	failOn  string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{puts: map[string]s3.Object{}}
}

func (f *fakeObjects) PutObject(_ context.Context, obj s3.Object) error {
	if obj.Key == f.failOn {
		return errors.New("access denied")
	}
	f.puts[obj.Key] = obj
	return nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, _, key string) error {
	f.deletes = append(f.deletes, key)
	return nil
}

func newSet(t *testing.T) *tables.Set {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "aria.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return tables.NewSet(db, tables.DefaultPrefix)
}

func put(t *testing.T, set *tables.Set, logical string, items ...store.Item) {
	t.Helper()
	for _, item := range items {
		require.NoError(t, set.Get(logical).Put(context.Background(), item))
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func readCSV(t *testing.T, body []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestDedup_FirstWins(t *testing.T) {
	items := []store.Item{
		{"UserId": "u-1", "PermissionSetArn": "ps-1", "AccountId": "111"},
		{"UserId": "u-1", "PermissionSetArn": "ps-2", "AccountId": "111"},
		{"UserId": "u-1", "PermissionSetArn": "ps-1", "AccountId": "222"},
		{"UserId": "u-2", "PermissionSetArn": "ps-1", "AccountId": "333"},
	}

	got := Dedup(items, []string{"UserId", "PermissionSetArn"})
	require.Len(t, got, 3)
	assert.Equal(t, "111", got[0]["AccountId"])
	assert.Equal(t, "ps-2", got[1]["PermissionSetArn"])
	assert.Equal(t, "u-2", got[2]["UserId"])
}

func TestRender_NodeColumns(t *testing.T) {
	m := node(tables.IAMRoles, "roles.csv", "RoleName",
		Column{"IamRoleArn", "~id"}, Column{"RoleId", "roleid:String"},
		Column{"AttachedPolicies", "attachedpolicies:String"})

	body, err := Render([]store.Item{
		{"IamRoleArn": "arn:r1", "AttachedPolicies": []any{"ReadOnlyAccess", "AdministratorAccess"}},
	}, m, sequentialIDs())
	require.NoError(t, err)

	rows := readCSV(t, body)
	assert.Equal(t, []string{"~id", "roleid:String", "attachedpolicies:String", "~label"}, rows[0])
	assert.Equal(t, []string{"arn:r1", "", "ReadOnlyAccess;AdministratorAccess", "RoleName"}, rows[1])
}

func TestRender_EdgeIDsAreDistinct(t *testing.T) {
	m := edge(tables.GroupMembership, "m.csv", "HAS_MEMBERS", "GroupId", "UserId")
	items := []store.Item{
		{"GroupId": "g-1", "UserId": "u-1"},
		{"GroupId": "g-1", "UserId": "u-2"},
	}

	body, err := Render(items, m, sequentialIDs())
	require.NoError(t, err)

	rows := readCSV(t, body)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"~id", "~from", "~to", "~label"}, rows[0])
	assert.Equal(t, []string{"id-1", "g-1", "u-1", "HAS_MEMBERS"}, rows[1])
	assert.Equal(t, []string{"id-2", "g-1", "u-2", "HAS_MEMBERS"}, rows[2])
}

func TestCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{float64(4), "4"},
		{float64(1.5), "1.5"},
		{12, "12"},
		{true, "true"},
		{[]string{"a", "b"}, "a;b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Cell(tt.in))
	}
}

func TestExport_WritesAndSkips(t *testing.T) {
	set := newSet(t)
	put(t, set, tables.Users,
		store.Item{"UserId": "u-1", "UserName": "alice"},
		store.Item{"UserId": "u-2", "UserName": "bob"})
	put(t, set, tables.UserAccountAssignments,
		store.Item{"AccountId": "111", "UserId": "u-1", "PermissionSetArn": "ps-1"},
		store.Item{"AccountId": "222", "UserId": "u-1", "PermissionSetArn": "ps-1"})

	objects := newFakeObjects()
	report, err := NewExporter(set, objects, nil).WithIDs(sequentialIDs()).Export(context.Background(), "graph")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"AriaIdCUsers.csv",
		"AriaIdCUserAssignments_Edge.csv",
		"AriaIdCUserAccount_Edge.csv",
	}, report.Written)
	// 2 users + 1 deduplicated assignment + 2 user-account edges
	assert.Equal(t, 5, report.Rows)

	// Empty finding tables are never touched.
	assert.Contains(t, report.Skipped, "AriaIdCInternalAAFindings.csv")
	assert.Contains(t, report.Skipped, "AriaUnusedAAFindings_Edge.csv")
	assert.NotContains(t, objects.deletes, "AriaIdCInternalAAFindings.csv")

	// Other empty tables still lose their old object.
	assert.Contains(t, report.Empty, "AriaIdCGroups.csv")
	assert.Contains(t, objects.deletes, "AriaIdCGroups.csv")
	_, wrote := objects.puts["AriaIdCGroups.csv"]
	assert.False(t, wrote)

	users := objects.puts["AriaIdCUsers.csv"]
	assert.Equal(t, "graph", users.Bucket)
	assert.Equal(t, ContentType, users.ContentType)
	assert.Equal(t, [][]string{
		{"~id", "username:String", "~label"},
		{"u-1", "alice", "UserName"},
		{"u-2", "bob", "UserName"},
	}, readCSV(t, users.Body))

	assignments := readCSV(t, objects.puts["AriaIdCUserAssignments_Edge.csv"].Body)
	assert.Len(t, assignments, 2)
}

func TestExport_FindingFilesWhenPresent(t *testing.T) {
	set := newSet(t)
	put(t, set, tables.UnusedAAFindings, store.Item{
		"FindingId":              "f-1",
		"ResourceARN":            "arn:aws:iam::111:role/r",
		"FindingType":            "UnusedPermission",
		"NumberOfUnusedServices": float64(2),
	})

	objects := newFakeObjects()
	report, err := NewExporter(set, objects, nil).WithIDs(sequentialIDs()).Export(context.Background(), "graph")
	require.NoError(t, err)
	assert.Contains(t, report.Written, "AriaIdCUnusedAAFindings.csv")
	assert.Contains(t, report.Written, "AriaUnusedAAFindings_Edge.csv")

	rows := readCSV(t, objects.puts["AriaIdCUnusedAAFindings.csv"].Body)
	require.Len(t, rows, 2)
	assert.Equal(t, "f-1", rows[1][0])
	assert.Equal(t, "2", rows[1][7])
	assert.Equal(t, "UnusedAccessFinding", rows[1][8])
}

func TestExport_StopsAtFirstFailure(t *testing.T) {
	set := newSet(t)
	put(t, set, tables.Users, store.Item{"UserId": "u-1", "UserName": "alice"})
	put(t, set, tables.Groups, store.Item{"GroupId": "g-1", "GroupName": "admins"})
	put(t, set, tables.Accounts, store.Item{"AccountId": "111", "Name": "prod"})

	objects := newFakeObjects()
	objects.failOn = "AriaIdCGroups.csv"
	report, err := NewExporter(set, objects, nil).Export(context.Background(), "graph")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AriaIdCGroups.csv")

	assert.Equal(t, []string{"AriaIdCUsers.csv"}, report.Written)
	_, wroteAccounts := objects.puts["AriaIdCAccounts.csv"]
	assert.False(t, wroteAccounts)
}

func TestParseTrigger(t *testing.T) {
	tr, err := ParseTrigger([]byte(`{"s3bucket":"from-event"}`), "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-event", tr.S3Bucket)

	tr, err = ParseTrigger(nil, "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", tr.S3Bucket)

	_, err = ParseTrigger([]byte(`{}`), "")
	assert.Error(t, err)

	_, err = ParseTrigger([]byte(`{`), "x")
	assert.Error(t, err)
}

func TestDefaultMappings(t *testing.T) {
	ms := DefaultMappings()
	require.Len(t, ms, 21)

	keys := map[string]bool{}
	for _, m := range ms {
		assert.False(t, keys[m.Key], "duplicate key %s", m.Key)
		keys[m.Key] = true
		assert.NotPanics(t, func() { tables.Schema(tables.DefaultPrefix, m.Table) })
		finding := m.Table == tables.InternalAAFindings || m.Table == tables.UnusedAAFindings
		assert.Equal(t, finding, m.RequireItems, m.Key)
	}
}
