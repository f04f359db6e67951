package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/staffdesk/internal/records"
	"github.com/angelmondragon/staffdesk/pkg/config"
	"github.com/angelmondragon/staffdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/staffdesk/pkg/errors"
	"github.com/angelmondragon/staffdesk/pkg/kv"
	"github.com/angelmondragon/staffdesk/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{SnapshotKey: "ipt_demo_v1"},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
			MinLength:        6,
		},
	}
}

// flakySlots fails reads and/or writes on demand.
type flakySlots struct {
	*kv.Memory
	getErr error
	setErr error
}

func (f *flakySlots) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Memory.Get(ctx, key)
}

func (f *flakySlots) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Memory.Set(ctx, key, value)
}

func newAdapter(t *testing.T, slots kv.Store, cfg *config.Config) (*Adapter, *records.Store) {
	t.Helper()
	store := records.New()
	adapter, err := NewAdapter(slots, store, cfg, nil)
	require.NoError(t, err)
	return adapter, store
}

func TestLoadSeedsWhenSlotEmpty(t *testing.T) {
	ctx := context.Background()
	slots := kv.NewMemory()
	adapter, store := newAdapter(t, slots, testConfig())

	source, err := adapter.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceSeed, source)

	accounts := store.ListAccounts()
	require.Len(t, accounts, 1)
	admin := accounts[0]
	assert.Equal(t, "admin@example.com", admin.Email)
	assert.Equal(t, enums.RoleAdmin, admin.Role)
	assert.True(t, admin.Verified)
	assert.NotEqual(t, "Password123!", admin.Password)
	ok, err := security.VerifyPassword("Password123!", admin.Password)
	require.NoError(t, err)
	assert.True(t, ok)

	depts := store.ListDepartments()
	require.Len(t, depts, 2)
	assert.Equal(t, "Engineering", depts[0].Name)
	assert.Equal(t, "Software development team", depts[0].Description)
	assert.Equal(t, "HR", depts[1].Name)
	assert.Empty(t, store.ListEmployees())
	assert.Empty(t, store.ListRequests())

	raw, err := slots.Get(ctx, "ipt_demo_v1")
	require.NoError(t, err, "seed must be persisted immediately")
	var persisted records.Snapshot
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Equal(t, store.Snapshot(), persisted)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	slots := kv.NewMemory()
	adapter, store := newAdapter(t, slots, testConfig())
	_, err := adapter.Load(ctx)
	require.NoError(t, err)

	_, err = store.InsertEmployee(records.Employee{EmployeeID: "E-1", UserEmail: "admin@example.com", Position: "Lead", DepartmentID: store.ListDepartments()[0].ID})
	require.NoError(t, err)
	_, err = store.InsertRequest(records.Request{Type: "Equipment", EmployeeEmail: "admin@example.com", Items: []records.Item{{Name: "Laptop", Qty: 2}}})
	require.NoError(t, err)
	require.NoError(t, adapter.Save(ctx))

	reloaded, restored := newAdapter(t, slots, testConfig())
	source, err := reloaded.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceSnapshot, source)
	assert.Equal(t, store.Snapshot(), restored.Snapshot())
}

func TestLoadReseedsCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	slots := kv.NewMemory()
	require.NoError(t, slots.Set(ctx, "ipt_demo_v1", []byte("{not json")))
	adapter, store := newAdapter(t, slots, testConfig())

	source, err := adapter.Load(ctx)
	require.NoError(t, err, "corruption is not surfaced")
	assert.Equal(t, SourceSeed, source)
	assert.Len(t, store.ListAccounts(), 1)

	raw, err := slots.Get(ctx, "ipt_demo_v1")
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))
}

func TestLoadReseedsSnapshotWithoutAccounts(t *testing.T) {
	for _, raw := range []string{`null`, `{}`, `{"accounts":null}`, `{"accounts":[],"departments":[{"id":"d1","name":"Ops"}]}`} {
		t.Run(raw, func(t *testing.T) {
			ctx := context.Background()
			slots := kv.NewMemory()
			require.NoError(t, slots.Set(ctx, "ipt_demo_v1", []byte(raw)))
			adapter, store := newAdapter(t, slots, testConfig())

			source, err := adapter.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, SourceSeed, source)
			accounts := store.ListAccounts()
			require.Len(t, accounts, 1)
			assert.Equal(t, "admin@example.com", accounts[0].Email)
			assert.Len(t, store.ListDepartments(), 2)

			stored, err := slots.Get(ctx, "ipt_demo_v1")
			require.NoError(t, err)
			assert.Contains(t, string(stored), "admin@example.com")
		})
	}
}

func TestLoadReadFailureSeedsInMemoryWithWarning(t *testing.T) {
	slots := &flakySlots{Memory: kv.NewMemory(), getErr: errors.New("disk unplugged"), setErr: errors.New("disk unplugged")}
	adapter, store := newAdapter(t, slots, testConfig())

	_, err := adapter.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStorage, pkgerrors.CodeOf(err))
	assert.Len(t, store.ListAccounts(), 1, "store must still be usable")
}

func TestSaveFailureKeepsMemoryAuthoritative(t *testing.T) {
	ctx := context.Background()
	slots := &flakySlots{Memory: kv.NewMemory()}
	adapter, store := newAdapter(t, slots, testConfig())
	_, err := adapter.Load(ctx)
	require.NoError(t, err)

	slots.setErr = errors.New("quota exceeded")
	_, err = store.InsertDepartment(records.Department{Name: "Finance"})
	require.NoError(t, err)

	err = adapter.Save(ctx)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStorage, typed.Code())
	assert.Equal(t, "Error saving data", typed.Message())
	assert.Len(t, store.ListDepartments(), 3)
}

func TestLoadUpgradesLegacyPlaintextPasswords(t *testing.T) {
	ctx := context.Background()
	slots := kv.NewMemory()
	legacy := records.Snapshot{Accounts: []records.Account{{ID: "a1", FirstName: "Old", Email: "old@example.com", Password: "hunter22", Role: enums.RoleUser, Verified: true}}}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, slots.Set(ctx, "ipt_demo_v1", raw))

	adapter, store := newAdapter(t, slots, testConfig())
	_, err = adapter.Load(ctx)
	require.NoError(t, err)

	acc, err := store.FindAccountByID("a1")
	require.NoError(t, err)
	require.True(t, security.IsEncodedHash(acc.Password))
	ok, err := security.VerifyPassword("hunter22", acc.Password)
	require.NoError(t, err)
	assert.True(t, ok)

	raw, err = slots.Get(ctx, "ipt_demo_v1")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter22")
}

func TestSeedFromOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
accounts:
  - firstName: Root
    lastName: Admin
    email: Root@Corp.example
    password: s3cret!
    role: Admin
    verified: true
departments:
  - name: Ops
    description: Operations
`), 0o600))

	cfg := testConfig()
	cfg.Seed.File = path
	adapter, store := newAdapter(t, kv.NewMemory(), cfg)
	require.NoError(t, adapter.Seed(context.Background()))

	_, err := store.FindAccountByEmail("root@corp.example")
	require.NoError(t, err)
	require.Len(t, store.ListDepartments(), 1)
}

func TestParseDatasetRejectsUnknownFieldsAndRoles(t *testing.T) {
	_, err := parseDataset([]byte("accounts:\n  - email: a@b.c\n    password: x\n    role: Owner\n"))
	require.Error(t, err)

	_, err = parseDataset([]byte("widgets: []\n"))
	require.Error(t, err)

	ds, err := DefaultDataset()
	require.NoError(t, err)
	assert.Len(t, ds.Accounts, 1)
	assert.Len(t, ds.Departments, 2)
}

func TestNewAdapterRequiresDependencies(t *testing.T) {
	_, err := NewAdapter(nil, records.New(), testConfig(), nil)
	require.Error(t, err)
	_, err = NewAdapter(kv.NewMemory(), nil, testConfig(), nil)
	require.Error(t, err)
	_, err = NewAdapter(kv.NewMemory(), records.New(), nil, nil)
	require.Error(t, err)
}
