package treestore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
	"github.com/hereon-GEMS/pydidas-sub009/workflow"
)

const (
	fileExtension = ".yaml"
	// formatVersion is written into every saved document and checked on load.
	formatVersion = 1
)

// documentSchema is the structural contract for stored workflow files,
// checked before any record is handed to the restore path.
const documentSchema = `{
	"type": "object",
	"required": ["name", "version", "nodes"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"version": {"type": "integer", "minimum": 1},
		"nodes": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["node_id", "parent_id", "class"],
				"properties": {
					"node_id": {"type": "integer", "minimum": 0},
					"parent_id": {"type": "integer", "minimum": -1},
					"children_ids": {"type": "array", "items": {"type": "integer", "minimum": 0}},
					"class": {"type": "string", "minLength": 1},
					"config": {"type": "object"}
				}
			}
		}
	}
}`

var nameRegexp = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// document is the on-disk form of a stored workflow.
type document struct {
	Name    string                `yaml:"name"`
	Version int                   `yaml:"version"`
	Nodes   []workflow.NodeRecord `yaml:"nodes"`
}

// Store persists workflow trees as YAML node-list documents in one directory,
// one file per workflow name.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "Store", "New", "directory creation")
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Save exports the tree's node list and writes it atomically under the given
// workflow name, replacing any previous version.
func (s *Store) Save(name string, tree *workflow.Tree) error {
	if err := validateName(name); err != nil {
		return err
	}
	records, err := tree.ExportToNodeList()
	if err != nil {
		return errors.Wrap(err, "Store", "Save", "node list export")
	}

	doc := document{Name: name, Version: formatVersion, Nodes: records}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return errors.Wrap(err, "Store", "Save", "document encoding")
	}

	// Atomic replace: write a temp file in the same directory, then rename.
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "Store", "Save", "temp file creation")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "Store", "Save", "document write")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "Store", "Save", "temp file close")
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "Store", "Save", "file replace")
	}

	s.logger.Debug("workflow saved", "name", name, "nodes", len(records))
	return nil
}

// Load reads, validates and restores a stored workflow by name.
func (s *Store) Load(name string, registry *plugin.Registry) (*workflow.Tree, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.path(name)); os.IsNotExist(err) {
		return nil, errors.WrapLookup(
			fmt.Errorf("workflow %q: %w", name, errors.ErrUnknownWorkflow),
			"Store", "Load", "workflow lookup")
	}
	return s.LoadPath(s.path(name), registry)
}

// LoadPath reads, validates and restores a workflow document from an
// arbitrary file path. The document is checked against the store schema
// before any plugin is instantiated.
func (s *Store) LoadPath(path string, registry *plugin.Registry) (*workflow.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Store", "Load", "file read")
	}

	if err := s.Validate(data); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapConfig(err, "Store", "Load", "document decoding")
	}
	if doc.Version > formatVersion {
		return nil, errors.WrapConfig(
			fmt.Errorf("document version %d, supported up to %d: %w",
				doc.Version, formatVersion, errors.ErrInvalidConfig),
			"Store", "Load", "version check")
	}

	tree, err := workflow.RestoreFromNodeList(doc.Nodes, registry)
	if err != nil {
		return nil, errors.Wrap(err, "Store", "Load", fmt.Sprintf("document %q restore", path))
	}
	return tree, nil
}

// Validate checks a raw document against the store schema. Schema violations
// are configuration errors naming every failed constraint.
func (s *Store) Validate(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return errors.WrapConfig(err, "Store", "Validate", "document decoding")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return errors.WrapConfig(err, "Store", "Validate", "schema evaluation")
	}
	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			violations = append(violations, desc.String())
		}
		return errors.WrapConfig(
			fmt.Errorf("%s: %w", strings.Join(violations, "; "), errors.ErrInvalidConfig),
			"Store", "Validate", "schema validation")
	}
	return nil
}

// List returns the stored workflow names, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, "Store", "List", "directory read")
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExtension) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), fileExtension))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a stored workflow. Deleting an unknown name is a lookup
// error.
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil {
		if os.IsNotExist(err) {
			return errors.WrapLookup(
				fmt.Errorf("workflow %q: %w", name, errors.ErrUnknownWorkflow),
				"Store", "Delete", "workflow lookup")
		}
		return errors.Wrap(err, "Store", "Delete", "file removal")
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+fileExtension)
}

func validateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return errors.WrapConfig(
			fmt.Errorf("workflow name %q: %w", name, errors.ErrInvalidConfig),
			"Store", "validateName", "name validation")
	}
	return nil
}
