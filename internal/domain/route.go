package domain

import "slices"

// RouteTLS is the certificate block carried by a route entry.
type RouteTLS struct {
	Cert  string `yaml:"cert,omitempty"`
	Key   string `yaml:"-"`
	CA    string `yaml:"ca,omitempty"`
	Force bool   `yaml:"force"`
}

// RouteEntry is one record of the remote route table.
// ID is assigned by the route-table service and is empty until created.
type RouteEntry struct {
	ID       string   `yaml:"id,omitempty"`
	Priority int      `yaml:"priority"`
	Domains  []string `yaml:"domains"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Prefix   string   `yaml:"prefix"`
	Enabled  bool     `yaml:"enabled"`
	TLS      RouteTLS `yaml:"tls"`
	PageID   string   `yaml:"page_id"`
}

// ServerIdentity is the static part of every route this server owns.
type ServerIdentity struct {
	Priority int
	Host     string
	Port     int
}

// DesiredRoute derives the route a tenant should have.
// The second result is false when the tenant has no domains and therefore
// no route.
func DesiredRoute(id ServerIdentity, t TenantConfig) (RouteEntry, bool) {
	if len(t.Domains) == 0 {
		return RouteEntry{}, false
	}
	return RouteEntry{
		Priority: id.Priority,
		Domains:  append([]string(nil), t.Domains...),
		Host:     id.Host,
		Port:     id.Port,
		Prefix:   "/" + t.Name,
		Enabled:  t.TLS.Enabled,
		TLS: RouteTLS{
			Cert:  t.TLS.Cert,
			Key:   t.TLS.Key,
			CA:    t.TLS.CA,
			Force: t.TLS.Force,
		},
		PageID: t.ID,
	}, true
}

// SameContent compares every field except ID. Domain order matters.
func (r RouteEntry) SameContent(o RouteEntry) bool {
	return r.Priority == o.Priority &&
		r.Host == o.Host &&
		r.Port == o.Port &&
		r.Prefix == o.Prefix &&
		r.Enabled == o.Enabled &&
		r.TLS == o.TLS &&
		r.PageID == o.PageID &&
		slices.Equal(r.Domains, o.Domains)
}
