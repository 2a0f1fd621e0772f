package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// TLS holds the certificate settings declared for a tenant.
type TLS struct {
	Cert    string
	Key     string
	CA      string
	Force   bool
	Enabled bool
}

// TenantConfig is one hosted static site as declared in the config store.
type TenantConfig struct {
	ID         string
	Name       string
	Domains    []string
	Fallback   string
	Enabled    bool
	AllowLocal bool
	TLS        TLS
}

// Validate reports whether the tenant may be published.
func (t TenantConfig) Validate() error {
	switch {
	case t.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidTenant)
	case t.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidTenant)
	case !t.Enabled:
		return fmt.Errorf("%w: tenant %s is disabled", ErrInvalidTenant, t.ID)
	case !ValidSegment(t.Name):
		return fmt.Errorf("%w: name %q is not a single path segment", ErrInvalidTenant, t.Name)
	}
	return nil
}

// ValidSegment reports whether s can be used as one path element.
func ValidSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`) && !strings.ContainsRune(s, 0)
}

// TenantSet is an immutable snapshot of the published tenants.
// The zero value and a nil pointer are both valid empty sets.
type TenantSet struct {
	items       []TenantConfig
	byID        map[string]int
	byName      map[string]int
	fingerprint string
}

// NewTenantSet builds a snapshot from items, keeping the first record for
// any repeated id or name.
func NewTenantSet(items []TenantConfig) *TenantSet {
	s := &TenantSet{
		items:  make([]TenantConfig, 0, len(items)),
		byID:   make(map[string]int, len(items)),
		byName: make(map[string]int, len(items)),
	}
	for _, t := range items {
		if _, dup := s.byID[t.ID]; dup {
			continue
		}
		t.Domains = append([]string(nil), t.Domains...)
		s.byID[t.ID] = len(s.items)
		if _, dup := s.byName[t.Name]; !dup {
			s.byName[t.Name] = len(s.items)
		}
		s.items = append(s.items, t)
	}
	s.fingerprint = fingerprint(s.items)
	return s
}

// Len returns the number of tenants.
func (s *TenantSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// All returns a copy of the tenants in fetch order.
func (s *TenantSet) All() []TenantConfig {
	if s == nil {
		return nil
	}
	out := make([]TenantConfig, len(s.items))
	copy(out, s.items)
	return out
}

// ByID looks a tenant up by its stable id.
func (s *TenantSet) ByID(id string) (TenantConfig, bool) {
	if s == nil {
		return TenantConfig{}, false
	}
	i, ok := s.byID[id]
	if !ok {
		return TenantConfig{}, false
	}
	return s.items[i], true
}

// ByName looks a tenant up by its name.
func (s *TenantSet) ByName(name string) (TenantConfig, bool) {
	if s == nil {
		return TenantConfig{}, false
	}
	i, ok := s.byName[name]
	if !ok {
		return TenantConfig{}, false
	}
	return s.items[i], true
}

// Fingerprint is a content hash of the ordered tenants.
func (s *TenantSet) Fingerprint() string {
	if s == nil {
		return fingerprint(nil)
	}
	return s.fingerprint
}

func fingerprint(items []TenantConfig) string {
	if items == nil {
		items = []TenantConfig{}
	}
	// Struct fields marshal in declaration order, so the output is stable.
	b, _ := json.Marshal(items)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
