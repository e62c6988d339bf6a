package catalog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Static is an in-memory, single-version catalog. Lookups ignore the
// requested date.
type Static struct {
	mu    sync.RWMutex
	name  string
	plans map[string]*Plan
}

// Document is the YAML layout read by LoadYAML.
type Document struct {
	Name  string `yaml:"name"`
	Plans []Plan `yaml:"plans"`
}

// NewStatic builds a catalog from plans. Phase names are filled in when
// missing.
func NewStatic(name string, plans ...Plan) *Static {
	s := &Static{name: name, plans: make(map[string]*Plan, len(plans))}
	for i := range plans {
		s.Add(plans[i])
	}
	return s
}

// Add registers (or replaces) a plan.
func (s *Static) Add(p Plan) {
	for i := range p.Phases {
		if p.Phases[i].Name == "" {
			p.Phases[i].Name = PhaseName(p.Name, p.Phases[i].Type)
		}
	}
	s.mu.Lock()
	s.plans[p.Name] = &p
	s.mu.Unlock()
}

// Name returns the catalog name.
func (s *Static) Name() string { return s.name }

// FindPlan implements Catalog.
func (s *Static) FindPlan(name string, _ time.Time) (*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[name]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return p, nil
}

// LoadYAML decodes a catalog document.
func LoadYAML(r io.Reader) (*Static, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	for _, p := range doc.Plans {
		if p.Name == "" {
			return nil, fmt.Errorf("catalog: plan without a name")
		}
		for _, ph := range p.Phases {
			if ph.Type == "" {
				return nil, fmt.Errorf("catalog: plan %q has a phase without a type", p.Name)
			}
		}
	}
	return NewStatic(doc.Name, doc.Plans...), nil
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadYAML(f)
}
