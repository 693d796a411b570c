package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"chaincodec/internal/model"
)

// SchemaParser turns a schema document into parsed schemas.
type SchemaParser interface {
	Parse(r io.Reader, source string) ([]model.Schema, error)
}

// DocumentParser reads multi-document YAML (JSON documents are accepted as YAML).
// When Fingerprint is set it fills in schemas that omit a fingerprint.
type DocumentParser struct {
	Fingerprint func(schema *model.Schema) (model.EventFingerprint, error)
}

// Parse decodes every non-empty document in r.
func (p DocumentParser) Parse(r io.Reader, source string) ([]model.Schema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var out []model.Schema
	for doc := 1; ; doc++ {
		var schema model.Schema
		err := dec.Decode(&schema)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s document %d: %w", source, doc, err)
		}
		if schema.Name == "" && len(schema.Fields) == 0 {
			continue
		}
		if schema.Fingerprint == "" && p.Fingerprint != nil {
			fp, err := p.Fingerprint(&schema)
			if err != nil {
				return nil, fmt.Errorf("fingerprint %s document %d: %w", source, doc, err)
			}
			schema.Fingerprint = fp
		}
		out = append(out, schema)
	}
	return out, nil
}

var schemaExtensions = map[string]struct{}{
	".yaml": {},
	".yml":  {},
	".json": {},
}

// LoadFile parses one file and inserts its schemas atomically.
func (m *Memory) LoadFile(path string, parser SchemaParser) (int, error) {
	schemas, err := parseFile(path, parser)
	if err != nil {
		return 0, err
	}
	if len(schemas) == 0 {
		return 0, fmt.Errorf("%s: no schemas found", path)
	}
	if err := m.InsertAll(schemas); err != nil {
		return 0, fmt.Errorf("load %s: %w", path, err)
	}
	return len(schemas), nil
}

// LoadDirectory parses every schema file under dir and inserts them
// atomically: a parse error or conflict anywhere leaves the registry unchanged.
func (m *Memory) LoadDirectory(dir string, parser SchemaParser) (int, error) {
	var all []model.Schema
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := schemaExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		schemas, err := parseFile(path, parser)
		if err != nil {
			return err
		}
		all = append(all, schemas...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", dir, err)
	}
	if err := m.InsertAll(all); err != nil {
		return 0, fmt.Errorf("load %s: %w", dir, err)
	}
	return len(all), nil
}

// Load dispatches each source to LoadFile or LoadDirectory.
func (m *Memory) Load(sources []string, parser SchemaParser) (int, error) {
	total := 0
	for _, source := range sources {
		info, err := os.Stat(source)
		if err != nil {
			return total, fmt.Errorf("stat %s: %w", source, err)
		}
		var n int
		if info.IsDir() {
			n, err = m.LoadDirectory(source, parser)
		} else {
			n, err = m.LoadFile(source, parser)
		}
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func parseFile(path string, parser SchemaParser) ([]model.Schema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parser.Parse(bytes.NewReader(content), path)
}
