package dto

import "github.com/acoshift/neppage/internal/domain"

// RouteConfig is a record of the route-table service "configs" collection.
type RouteConfig struct {
	ID       string    `json:"_id,omitempty"`
	Priority int       `json:"priority"`
	Domain   []string  `json:"domain"`
	Host     string    `json:"host"`
	Port     int       `json:"port"`
	Prefix   string    `json:"prefix"`
	Enabled  bool      `json:"enabled"`
	SSL      *RouteSSL `json:"ssl"`
	PageID   string    `json:"pageId"`
}

// RouteSSL is the certificate block of a route record.
type RouteSSL struct {
	Cert  string `json:"cert"`
	Key   string `json:"key"`
	CA    string `json:"ca"`
	Force bool   `json:"force"`
}

// ToDomain converts the record.
func (r RouteConfig) ToDomain() domain.RouteEntry {
	e := domain.RouteEntry{
		ID:       r.ID,
		Priority: r.Priority,
		Domains:  append([]string{}, r.Domain...),
		Host:     r.Host,
		Port:     r.Port,
		Prefix:   r.Prefix,
		Enabled:  r.Enabled,
		PageID:   r.PageID,
	}
	if r.SSL != nil {
		e.TLS = domain.RouteTLS{Cert: r.SSL.Cert, Key: r.SSL.Key, CA: r.SSL.CA, Force: r.SSL.Force}
	}
	return e
}

// RouteFromDomain builds the document sent on create and update.
// The id never goes in the document; update addresses it separately.
func RouteFromDomain(e domain.RouteEntry) RouteConfig {
	domains := e.Domains
	if domains == nil {
		domains = []string{}
	}
	return RouteConfig{
		Priority: e.Priority,
		Domain:   domains,
		Host:     e.Host,
		Port:     e.Port,
		Prefix:   e.Prefix,
		Enabled:  e.Enabled,
		SSL: &RouteSSL{
			Cert:  e.TLS.Cert,
			Key:   e.TLS.Key,
			CA:    e.TLS.CA,
			Force: e.TLS.Force,
		},
		PageID: e.PageID,
	}
}
