package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry is an immutable-after-load set of schemas keyed by name.
type Registry struct {
	byName map[string]Schema
	order  []string
}

func NewRegistry() *Registry {
	r := &Registry{byName: map[string]Schema{}}
	for _, s := range Builtin() {
		r.byName[s.Name] = s
		r.order = append(r.order, s.Name)
	}
	return r
}

// LoadDir adds every *.yaml / *.yml schema found in dir. A file may replace a
// built-in of the same name. A missing dir is not an error.
func (r *Registry) LoadDir(dir string) (int, error) {
	if strings.TrimSpace(dir) == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		s, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return loaded, err
		}
		if _, exists := r.byName[s.Name]; !exists {
			r.order = append(r.order, s.Name)
		}
		r.byName[s.Name] = s
		loaded++
	}
	return loaded, nil
}

func LoadFile(path string) (Schema, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, err
	}
	return Parse(blob)
}

func Parse(blob []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(blob, &s); err != nil {
		return Schema{}, fmt.Errorf("decode schema: %w", err)
	}
	if s.Grammar == "" {
		s.Grammar = GrammarSurnameOnly
	}
	if s.Layout.TimestampColumn == "" {
		s.Layout.TimestampColumn = "A"
	}
	if s.Layout.FirstSectionColumn == "" {
		s.Layout.FirstSectionColumn = "B"
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

func (r *Registry) Get(name string) (Schema, error) {
	s, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %s (known: %s)", ErrUnknownSchema, name, strings.Join(r.order, ", "))
	}
	return s, nil
}

func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

func (r *Registry) All() []Schema {
	out := make([]Schema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}
