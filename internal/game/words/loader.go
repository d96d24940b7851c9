package words

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlPackFile is the top-level YAML structure for word-pack files.
type yamlPackFile struct {
	Pack yamlPack `yaml:"pack"`
}

// yamlPack is the YAML representation of a word pack.
type yamlPack struct {
	Name  string   `yaml:"name"`
	Words []string `yaml:"words"`
}

// Pack is a named collection of secret words.
type Pack struct {
	Name  string
	Words []string
}

// LoadPackFromBytes parses and validates a word pack from YAML bytes.
// Blank and '#'-comment entries are filtered out.
//
// Precondition: data must be valid YAML conforming to the pack schema.
// Postcondition: Returns a pack with at least one word, or a non-nil error.
func LoadPackFromBytes(data []byte) (*Pack, error) {
	var file yamlPackFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing word pack YAML: %w", err)
	}

	pack := &Pack{Name: file.Pack.Name}
	for _, entry := range file.Pack.Words {
		if w, ok := clean(entry); ok {
			pack.Words = append(pack.Words, w)
		}
	}

	if pack.Name == "" {
		return nil, fmt.Errorf("word pack missing name")
	}
	if len(pack.Words) == 0 {
		return nil, fmt.Errorf("word pack %q contains no usable words", pack.Name)
	}
	return pack, nil
}

// LoadPackFromFile reads and validates a single word-pack YAML file.
//
// Precondition: path must point to a valid YAML pack file.
// Postcondition: Returns a validated Pack or a non-nil error.
func LoadPackFromFile(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading word pack %s: %w", path, err)
	}
	return LoadPackFromBytes(data)
}

// LoadPacksFromDir loads all YAML files in a directory as word packs.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all validated packs or the first error encountered.
func LoadPacksFromDir(dir string) ([]*Pack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading word pack directory %s: %w", dir, err)
	}

	var packs []*Pack
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		pack, err := LoadPackFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading word pack from %s: %w", name, err)
		}
		packs = append(packs, pack)
	}
	return packs, nil
}

// LoadPool loads and merges every pack in dir into one word pool. An empty
// dir argument yields the built-in fallback set, as does a directory that
// produces no packs.
//
// Postcondition: Returns a non-empty pool or a non-nil error.
func LoadPool(dir string) ([]string, error) {
	if dir == "" {
		return Fallback(), nil
	}
	packs, err := LoadPacksFromDir(dir)
	if err != nil {
		return nil, err
	}
	pool := Merge(packs)
	if len(pool) == 0 {
		return Fallback(), nil
	}
	return pool, nil
}
