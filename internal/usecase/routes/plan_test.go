package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acoshift/neppage/internal/domain"
)

var identity = domain.ServerIdentity{Priority: 1, Host: "10.0.0.1", Port: 8080}

func tenantSet(items ...domain.TenantConfig) *domain.TenantSet {
	return domain.NewTenantSet(items)
}

func blog() domain.TenantConfig {
	return domain.TenantConfig{ID: "p1", Name: "blog", Domains: []string{"blog.com"}, Enabled: true}
}

func remoteFor(t *testing.T, id string, tenant domain.TenantConfig) domain.RouteEntry {
	t.Helper()
	r, ok := domain.DesiredRoute(identity, tenant)
	require.True(t, ok)
	r.ID = id
	return r
}

func TestPlan_CreatesMissing(t *testing.T) {
	plan := Plan(identity, tenantSet(blog()), nil)

	require.Len(t, plan.Creates, 1)
	assert.Equal(t, "/blog", plan.Creates[0].Prefix)
	assert.Empty(t, plan.Creates[0].ID)
	assert.Empty(t, plan.Updates)
	assert.Empty(t, plan.Deletes)
}

func TestPlan_Converged(t *testing.T) {
	plan := Plan(identity, tenantSet(blog()), []domain.RouteEntry{remoteFor(t, "r1", blog())})
	assert.True(t, plan.Empty())
}

func TestPlan_UpdatesDiffering(t *testing.T) {
	remote := remoteFor(t, "r1", blog())
	remote.Port = 9090

	plan := Plan(identity, tenantSet(blog()), []domain.RouteEntry{remote})

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, "r1", plan.Updates[0].ID)
	assert.Equal(t, 8080, plan.Updates[0].Port)
	assert.Empty(t, plan.Creates)
	assert.Empty(t, plan.Deletes)
}

func TestPlan_DomainOrderIsSignificant(t *testing.T) {
	tenant := blog()
	tenant.Domains = []string{"a.com", "b.com"}
	remote := remoteFor(t, "r1", tenant)
	remote.Domains = []string{"b.com", "a.com"}

	plan := Plan(identity, tenantSet(tenant), []domain.RouteEntry{remote})
	assert.Len(t, plan.Updates, 1)
}

func TestPlan_DeletesOrphansAndDomainless(t *testing.T) {
	noDomains := domain.TenantConfig{ID: "p2", Name: "shop", Enabled: true}
	remote := []domain.RouteEntry{
		remoteFor(t, "r1", blog()),
		{ID: "r2", PageID: "p2", Prefix: "/shop"},
		{ID: "r3", PageID: "gone"},
	}

	plan := Plan(identity, tenantSet(blog(), noDomains), remote)

	assert.Empty(t, plan.Creates)
	assert.Empty(t, plan.Updates)
	assert.Equal(t, []string{"r2", "r3"}, plan.Deletes)
}

func TestPlan_DuplicatesKeepFirst(t *testing.T) {
	remote := []domain.RouteEntry{
		remoteFor(t, "r1", blog()),
		remoteFor(t, "r2", blog()),
		remoteFor(t, "r3", blog()),
	}

	plan := Plan(identity, tenantSet(blog()), remote)

	assert.Empty(t, plan.Updates)
	assert.Equal(t, []string{"r2", "r3"}, plan.Deletes)
}

func TestPlan_IgnoresEntriesWithoutID(t *testing.T) {
	remote := []domain.RouteEntry{{PageID: "p1"}}

	plan := Plan(identity, tenantSet(blog()), remote)

	assert.Len(t, plan.Creates, 1)
	assert.Empty(t, plan.Deletes)
}

func TestPlan_EmptyTenantsDeletesAll(t *testing.T) {
	remote := []domain.RouteEntry{remoteFor(t, "r1", blog())}

	plan := Plan(identity, tenantSet(), remote)
	assert.Equal(t, []string{"r1"}, plan.Deletes)
}

func TestPlan_Idempotent(t *testing.T) {
	tenants := tenantSet(blog(), domain.TenantConfig{ID: "p2", Name: "shop", Domains: []string{"shop.com"}, Enabled: true})

	first := Plan(identity, tenants, nil)
	require.Len(t, first.Creates, 2)

	// Simulate the route table after applying the plan.
	applied := make([]domain.RouteEntry, 0, len(first.Creates))
	for i, r := range first.Creates {
		r.ID = []string{"r1", "r2"}[i]
		applied = append(applied, r)
	}

	assert.True(t, Plan(identity, tenants, applied).Empty())
}
