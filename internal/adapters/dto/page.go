// Package dto holds the wire records exchanged with the config store and
// the route-table service.
package dto

import "github.com/acoshift/neppage/internal/domain"

// PageConfig is a tenant record as stored in the "configs" collection.
type PageConfig struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	Domain   []string `json:"domain"`
	Fallback string   `json:"fallback"`
	Enabled  bool     `json:"enabled"`
	Local    bool     `json:"local"`
	SSL      *PageSSL `json:"ssl"`
}

// PageSSL is the certificate block of a tenant record.
type PageSSL struct {
	Cert    string `json:"cert"`
	Key     string `json:"key"`
	CA      string `json:"ca"`
	Force   bool   `json:"force"`
	Enabled bool   `json:"enabled"`
}

// ToDomain normalizes the record, defaulting absent optional fields.
func (p PageConfig) ToDomain() domain.TenantConfig {
	t := domain.TenantConfig{
		ID:         p.ID,
		Name:       p.Name,
		Domains:    []string{},
		Fallback:   p.Fallback,
		Enabled:    p.Enabled,
		AllowLocal: p.Local,
	}
	for _, d := range p.Domain {
		if d != "" {
			t.Domains = append(t.Domains, d)
		}
	}
	if p.SSL != nil {
		t.TLS = domain.TLS{
			Cert:    p.SSL.Cert,
			Key:     p.SSL.Key,
			CA:      p.SSL.CA,
			Force:   p.SSL.Force,
			Enabled: p.SSL.Enabled,
		}
	}
	return t
}
