package inventory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileInventory is the on-disk layout read by File.
type FileInventory struct {
	Projects map[string][]FileInstance `yaml:"projects"`
}

type FileInstance struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// File serves instances from a YAML file, for local runs without cloud
// access. The file is re-read on every List.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) List(_ context.Context, project string) ([]Instance, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read inventory file: %w", err)
	}

	var inv FileInventory
	err = yaml.Unmarshal(b, &inv)
	if err != nil {
		return nil, fmt.Errorf("unmarshal yaml of inventory file: %w", err)
	}

	entries, ok := inv.Projects[project]
	if !ok {
		return nil, fmt.Errorf("%w: %s not in %s", ErrorUnknownProject, project, f.path)
	}

	var result []Instance
	for i, e := range entries {
		if e.Name == "" || e.Address == "" {
			return nil, fmt.Errorf("entry %d of project %s: name and address are required", i, project)
		}

		result = append(result, Instance{Name: e.Name, Address: e.Address})
	}

	return result, nil
}
