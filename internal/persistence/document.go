package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/petrijr/reenact/pkg/api"
)

// Workflow documents are plain files the recorder writes and operators edit
// by hand: JSON natively, YAML as the friendlier alternative. The file name
// (minus extension) is the workflow name on disk.

var documentExtensions = []string{".json", ".yaml", ".yml"}

// LoadDocument reads and validates a workflow document. The format is
// chosen by file extension.
func LoadDocument(path string) (api.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.Workflow{}, err
	}

	var wf api.Workflow
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &wf); err != nil {
			return api.Workflow{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &wf); err != nil {
			return api.Workflow{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return api.Workflow{}, fmt.Errorf("unsupported workflow document extension %q", ext)
	}

	if wf.Name == "" {
		// Older recordings leave the name to the file.
		wf.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if err := wf.Validate(); err != nil {
		return api.Workflow{}, fmt.Errorf("document %s: %w", path, err)
	}
	return wf, nil
}

// SaveDocument writes a workflow document. The format is chosen by file
// extension; JSON is written indented so recordings stay hand-editable.
func SaveDocument(path string, wf api.Workflow) error {
	if err := wf.Validate(); err != nil {
		return err
	}

	var data []byte
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(wf, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case ".yaml", ".yml":
		data, err = yaml.Marshal(wf)
	default:
		return fmt.Errorf("unsupported workflow document extension %q", ext)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// DirectoryLibrary is a WorkflowStore over a directory of workflow
// documents. Loads go straight to disk, so edits show up without a restart.
type DirectoryLibrary struct {
	dir string
}

// Ensure DirectoryLibrary implements WorkflowStore.
var _ WorkflowStore = (*DirectoryLibrary)(nil)

// NewDirectoryLibrary creates a library over dir. The directory does not
// need to exist yet; it is created on first save.
func NewDirectoryLibrary(dir string) *DirectoryLibrary {
	return &DirectoryLibrary{dir: dir}
}

// Dir returns the library directory.
func (l *DirectoryLibrary) Dir() string { return l.dir }

func (l *DirectoryLibrary) SaveWorkflow(wf api.Workflow) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	return SaveDocument(filepath.Join(l.dir, wf.Name+".json"), wf)
}

func (l *DirectoryLibrary) GetWorkflow(name string) (api.Workflow, error) {
	for _, ext := range documentExtensions {
		path := filepath.Join(l.dir, name+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadDocument(path)
	}
	return api.Workflow{}, ErrWorkflowNotFound
}

func (l *DirectoryLibrary) ListWorkflows() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	seen := make(map[string]bool)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		supported := false
		for _, want := range documentExtensions {
			if ext == want {
				supported = true
				break
			}
		}
		if !supported {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}
