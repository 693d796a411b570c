package model

import (
	"fmt"
	"strings"
)

// TrustLevel describes how far a schema has been verified.
type TrustLevel string

const (
	TrustUnverified         TrustLevel = "unverified"
	TrustCommunityVerified  TrustLevel = "community_verified"
	TrustMaintainerVerified TrustLevel = "maintainer_verified"
	TrustProtocolVerified   TrustLevel = "protocol_verified"
)

func (l TrustLevel) valid() bool {
	switch l {
	case "", TrustUnverified, TrustCommunityVerified, TrustMaintainerVerified, TrustProtocolVerified:
		return true
	default:
		return false
	}
}

// FieldDef describes how one field is typed and placed.
type FieldDef struct {
	Type        CanonicalType `json:"type" yaml:"type"`
	Indexed     bool          `json:"indexed,omitempty" yaml:"indexed,omitempty"`
	Nullable    bool          `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
}

// NamedField is one entry of a schema's ordered field list.
type NamedField struct {
	Name     string `json:"name" yaml:"name"`
	FieldDef `yaml:",inline"`
}

// SchemaMeta carries provenance information.
type SchemaMeta struct {
	Protocol      string     `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Category      string     `json:"category,omitempty" yaml:"category,omitempty"`
	Verified      bool       `json:"verified,omitempty" yaml:"verified,omitempty"`
	TrustLevel    TrustLevel `json:"trust_level,omitempty" yaml:"trust_level,omitempty"`
	ProvenanceSig string     `json:"provenance_sig,omitempty" yaml:"provenance_sig,omitempty"`
}

// Schema describes how to interpret one event type. Field order matters:
// EVM topic and data layout follow declaration order.
type Schema struct {
	Name         string           `json:"name" yaml:"name"`
	Version      uint32           `json:"version" yaml:"version"`
	Chains       []string         `json:"chains" yaml:"chains"`
	Address      []string         `json:"address,omitempty" yaml:"address,omitempty"`
	Event        string           `json:"event" yaml:"event"`
	Fingerprint  EventFingerprint `json:"fingerprint" yaml:"fingerprint"`
	Supersedes   string           `json:"supersedes,omitempty" yaml:"supersedes,omitempty"`
	SupersededBy string           `json:"superseded_by,omitempty" yaml:"superseded_by,omitempty"`
	Deprecated   bool             `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Fields       []NamedField     `json:"fields" yaml:"fields"`
	Meta         SchemaMeta       `json:"meta" yaml:"meta"`
}

// IndexedFields returns the indexed fields in declared order.
func (s *Schema) IndexedFields() []NamedField {
	out := make([]NamedField, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Indexed {
			out = append(out, f)
		}
	}
	return out
}

// DataFields returns the non-indexed fields in declared order.
func (s *Schema) DataFields() []NamedField {
	out := make([]NamedField, 0, len(s.Fields))
	for _, f := range s.Fields {
		if !f.Indexed {
			out = append(out, f)
		}
	}
	return out
}

// AppliesTo reports whether the schema lists the chain slug.
// An empty chain list applies everywhere.
func (s *Schema) AppliesTo(slug string) bool {
	if len(s.Chains) == 0 {
		return true
	}
	for _, c := range s.Chains {
		if strings.EqualFold(c, slug) {
			return true
		}
	}
	return false
}

// MatchesAddress checks the contract allow-list. An empty list matches any emitter.
func (s *Schema) MatchesAddress(addr string) bool {
	if len(s.Address) == 0 {
		return true
	}
	for _, a := range s.Address {
		if strings.EqualFold(a, addr) {
			return true
		}
	}
	return false
}

// Validate checks the structural requirements a registry relies on.
func (s *Schema) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSchema)
	}
	if s.Version == 0 {
		return fmt.Errorf("%w: %s: version must be >= 1", ErrInvalidSchema, s.Name)
	}
	if s.Fingerprint == "" {
		return fmt.Errorf("%w: %s v%d: fingerprint is required", ErrInvalidSchema, s.Name, s.Version)
	}
	if !s.Meta.TrustLevel.valid() {
		return fmt.Errorf("%w: %s v%d: unknown trust level %q", ErrInvalidSchema, s.Name, s.Version, s.Meta.TrustLevel)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: %s v%d: unnamed field", ErrInvalidSchema, s.Name, s.Version)
		}
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("%w: %s v%d: duplicate field %s", ErrInvalidSchema, s.Name, s.Version, f.Name)
		}
		seen[f.Name] = struct{}{}
		if err := f.Type.Validate(); err != nil {
			return fmt.Errorf("%w: %s v%d: field %s: %v", ErrInvalidSchema, s.Name, s.Version, f.Name, err)
		}
	}
	return nil
}
