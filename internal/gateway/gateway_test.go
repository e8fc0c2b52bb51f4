package gateway

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseledger/internal/access"
	accessstore "caseledger/internal/access/store"
	"caseledger/internal/audit"
	auditstore "caseledger/internal/audit/store"
	"caseledger/internal/registry"
	registrystore "caseledger/internal/registry/store"
	id "caseledger/pkg/domain"
	dErrors "caseledger/pkg/domain-errors"
	"caseledger/pkg/requestcontext"
	"caseledger/pkg/testutil"
)

type fixture struct {
	gateway    *Gateway
	records    *registrystore.MemoryStore
	grants     *accessstore.MemoryGrantStore
	auditStore *auditstore.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	records := registrystore.NewMemoryStore()
	grants := accessstore.NewMemoryGrantStore()
	auditStore := auditstore.NewMemoryStore()
	logger := slog.New(slog.DiscardHandler)
	recorder := audit.NewRecorder(auditStore, logger, nil)
	return &fixture{
		gateway:    New(access.NewEngine(records, grants), recorder, logger, nil),
		records:    records,
		grants:     grants,
		auditStore: auditStore,
	}
}

func (f *fixture) insertRegistry(t *testing.T) id.RegistryID {
	t.Helper()
	record := registry.Record{ID: id.NewRegistryID(), SubjectName: "Jane Roe", Status: id.StatusActive}
	require.NoError(t, f.records.InsertRecord(context.Background(), record))
	return record.ID
}

func userContext(user id.AppUser) context.Context {
	return requestcontext.WithUser(context.Background(), user)
}

func TestRequireAccessRegistry_AllowedLeavesNoDenialTrail(t *testing.T) {
	f := newFixture(t)
	regID := f.insertRegistry(t)

	err := f.gateway.RequireAccessRegistry(userContext(testutil.AdminUser()), regID)
	require.NoError(t, err)
	assert.Equal(t, 0, f.auditStore.Len())
}

func TestRequireAccessRegistry_MissingAndDeniedLookIdentical(t *testing.T) {
	f := newFixture(t)
	regID := f.insertRegistry(t)
	attorney := testutil.AttorneyUser()

	deniedErr := f.gateway.RequireAccessRegistry(userContext(attorney), regID)
	missingErr := f.gateway.RequireAccessRegistry(userContext(testutil.AdminUser()), id.NewRegistryID())

	require.Error(t, deniedErr)
	require.Error(t, missingErr)
	assert.True(t, dErrors.HasCode(deniedErr, dErrors.CodeForbidden))
	assert.True(t, dErrors.HasCode(missingErr, dErrors.CodeForbidden))
	assert.Equal(t, deniedErr.Error(), missingErr.Error())
}

func TestRequireAccessRegistry_DenialIsAudited(t *testing.T) {
	f := newFixture(t)
	regID := f.insertRegistry(t)
	attorney := testutil.AttorneyUser()

	err := f.gateway.RequireAccessRegistry(userContext(attorney), regID)
	require.Error(t, err)

	page, err := f.auditStore.List(context.Background(), audit.Filter{Action: audit.ActionAccessRequested}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, false, page.Rows[0].Metadata["granted"])
	require.NotNil(t, page.Rows[0].RegistryID)
	assert.Equal(t, regID, *page.Rows[0].RegistryID)
}

func TestRequireAccessRegistry_GrantFlipsTheDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	regID := f.insertRegistry(t)
	attorney := testutil.AttorneyUser()

	require.Error(t, f.gateway.RequireAccessRegistry(userContext(attorney), regID))
	require.NoError(t, f.grants.Grant(ctx, attorney.ID, regID))
	require.NoError(t, f.gateway.RequireAccessRegistry(userContext(attorney), regID))
}

func TestRequireAccessRegistry_NoIdentityFailsClosed(t *testing.T) {
	f := newFixture(t)
	regID := f.insertRegistry(t)

	err := f.gateway.RequireAccessRegistry(context.Background(), regID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestRequireSearch(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.gateway.RequireSearch(userContext(testutil.AttorneyUser())))

	err := f.gateway.RequireSearch(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestRequireAuditView(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.gateway.RequireAuditView(userContext(testutil.AdminUser())))

	err := f.gateway.RequireAuditView(userContext(testutil.AttorneyUser()))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestFilterSummaries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	regA := f.insertRegistry(t)
	regB := f.insertRegistry(t)
	attorney := testutil.AttorneyUser()
	require.NoError(t, f.grants.Grant(ctx, attorney.ID, regA))

	summaries := []registry.Summary{{ID: regA}, {ID: regB}}

	filtered, err := f.gateway.FilterSummaries(userContext(testutil.AdminUser()), summaries)
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	filtered, err = f.gateway.FilterSummaries(userContext(attorney), summaries)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, regA, filtered[0].ID)

	filtered, err = f.gateway.FilterSummaries(context.Background(), summaries)
	require.NoError(t, err)
	assert.Empty(t, filtered)
}
