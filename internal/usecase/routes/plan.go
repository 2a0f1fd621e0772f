// Package routes converges the remote route table on the published tenants.
package routes

import "github.com/acoshift/neppage/internal/domain"

// Plan computes the mutations that turn remote into the desired route set.
//
// Every tenant with domains claims the first remote entry carrying its id.
// A claimed entry is updated when any field differs; a tenant without an
// entry gets a create. Remote entries left unclaimed, later duplicates
// included, are deleted. Entries without an id cannot be addressed and are
// ignored.
func Plan(identity domain.ServerIdentity, tenants *domain.TenantSet, remote []domain.RouteEntry) domain.RoutePlan {
	plan := domain.RoutePlan{
		Creates: []domain.RouteEntry{},
		Updates: []domain.RouteEntry{},
		Deletes: []string{},
	}

	seen := make([]bool, len(remote))
	first := make(map[string]int, len(remote))
	for i, r := range remote {
		if r.ID == "" {
			seen[i] = true
			continue
		}
		if _, ok := first[r.PageID]; !ok {
			first[r.PageID] = i
		}
	}

	for _, t := range tenants.All() {
		desired, ok := domain.DesiredRoute(identity, t)
		if !ok {
			continue
		}

		i, found := first[t.ID]
		if !found {
			plan.Creates = append(plan.Creates, desired)
			continue
		}

		seen[i] = true
		if !remote[i].SameContent(desired) {
			desired.ID = remote[i].ID
			plan.Updates = append(plan.Updates, desired)
		}
	}

	for i, r := range remote {
		if !seen[i] {
			plan.Deletes = append(plan.Deletes, r.ID)
		}
	}

	return plan
}
