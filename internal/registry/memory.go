package registry

import (
	"sort"
	"strings"
	"sync"

	"chaincodec/internal/model"
)

// Registry stores schemas and resolves them by fingerprint and by name/version.
type Registry interface {
	// Insert adds a schema; a duplicate (name, version) is a conflict.
	Insert(schema model.Schema) error
	GetByFingerprint(fp model.EventFingerprint) (*model.Schema, bool)
	// GetByName resolves a version; version 0 means the latest non-deprecated one.
	GetByName(name string, version uint32) (*model.Schema, bool)
	History(name string) []*model.Schema
	ListForChain(slug string) []*model.Schema
}

type nameVersion struct {
	name    string
	version uint32
}

// Memory is an in-memory Registry safe for concurrent use.
// Inserted schemas are never mutated.
type Memory struct {
	mu            sync.RWMutex
	byFingerprint map[model.EventFingerprint]*model.Schema
	byNameVersion map[nameVersion]*model.Schema
	versions      map[string][]uint32
}

var _ Registry = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		byFingerprint: make(map[model.EventFingerprint]*model.Schema),
		byNameVersion: make(map[nameVersion]*model.Schema),
		versions:      make(map[string][]uint32),
	}
}

func fingerprintKey(fp model.EventFingerprint) model.EventFingerprint {
	return model.EventFingerprint(strings.ToLower(strings.TrimSpace(string(fp))))
}

// Insert adds a schema. A duplicate (name, version) returns a *model.ConflictError.
func (m *Memory) Insert(schema model.Schema) error {
	if err := schema.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := nameVersion{schema.Name, schema.Version}
	if _, ok := m.byNameVersion[key]; ok {
		return &model.ConflictError{Name: schema.Name, Version: schema.Version}
	}
	m.insertLocked(schema)
	return nil
}

// InsertAll adds every schema or none of them.
func (m *Memory) InsertAll(schemas []model.Schema) error {
	pending := make(map[nameVersion]struct{}, len(schemas))
	for i := range schemas {
		if err := schemas[i].Validate(); err != nil {
			return err
		}
		key := nameVersion{schemas[i].Name, schemas[i].Version}
		if _, ok := pending[key]; ok {
			return &model.ConflictError{Name: key.name, Version: key.version}
		}
		pending[key] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range pending {
		if _, ok := m.byNameVersion[key]; ok {
			return &model.ConflictError{Name: key.name, Version: key.version}
		}
	}
	for _, schema := range schemas {
		m.insertLocked(schema)
	}
	return nil
}

func (m *Memory) insertLocked(schema model.Schema) {
	stored := schema
	m.byFingerprint[fingerprintKey(stored.Fingerprint)] = &stored
	m.byNameVersion[nameVersion{stored.Name, stored.Version}] = &stored

	versions := append(m.versions[stored.Name], stored.Version)
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	m.versions[stored.Name] = versions
}

// GetByFingerprint returns the schema most recently inserted under fp.
func (m *Memory) GetByFingerprint(fp model.EventFingerprint) (*model.Schema, bool) {
	m.mu.RLock()
	schema, ok := m.byFingerprint[fingerprintKey(fp)]
	m.mu.RUnlock()
	return schema, ok
}

func (m *Memory) GetByName(name string, version uint32) (*model.Schema, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if version == 0 {
		latest, ok := m.latestLocked(name)
		if !ok {
			return nil, false
		}
		version = latest
	}
	schema, ok := m.byNameVersion[nameVersion{name, version}]
	return schema, ok
}

func (m *Memory) latestLocked(name string) (uint32, bool) {
	versions := m.versions[name]
	for i := len(versions) - 1; i >= 0; i-- {
		if schema := m.byNameVersion[nameVersion{name, versions[i]}]; schema != nil && !schema.Deprecated {
			return versions[i], true
		}
	}
	return 0, false
}

// History returns every version of name in ascending order.
func (m *Memory) History(name string) []*model.Schema {
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := m.versions[name]
	out := make([]*model.Schema, 0, len(versions))
	for _, v := range versions {
		out = append(out, m.byNameVersion[nameVersion{name, v}])
	}
	return out
}

// ListForChain returns every stored version that applies to slug, sorted by name then version.
func (m *Memory) ListForChain(slug string) []*model.Schema {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.Schema, 0)
	for _, schema := range m.byNameVersion {
		if schema.AppliesTo(slug) {
			out = append(out, schema)
		}
	}
	sortSchemas(out)
	return out
}

// AllNames returns the sorted distinct schema names.
func (m *Memory) AllNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.versions))
	for name := range m.versions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllSchemas returns the latest non-deprecated version of every name.
func (m *Memory) AllSchemas() []*model.Schema {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.Schema, 0, len(m.versions))
	for name := range m.versions {
		if v, ok := m.latestLocked(name); ok {
			out = append(out, m.byNameVersion[nameVersion{name, v}])
		}
	}
	sortSchemas(out)
	return out
}

// Len returns the number of stored schema versions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byNameVersion)
}

func sortSchemas(schemas []*model.Schema) {
	sort.Slice(schemas, func(i, j int) bool {
		if schemas[i].Name != schemas[j].Name {
			return schemas[i].Name < schemas[j].Name
		}
		return schemas[i].Version < schemas[j].Version
	})
}
