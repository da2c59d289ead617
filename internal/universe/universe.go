// Package universe holds the registry of tracked communities. Each
// universe names a community, the seed users whose shares feed it, and
// the scoring knobs used when ranking its links. Universes are declared
// in a YAML file and loaded at startup.
package universe

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/emberwatch/emberwatch/internal/apperr"
)

const (
	defaultWindowHours = 24
	defaultQuantity    = 20
)

// Universe is one tracked community.
type Universe struct {
	// Name keys the universe's index namespace; lowercase, no spaces.
	Name string `yaml:"name"`
	// Seed lists the screen names whose activity defines the community.
	Seed []string `yaml:"seed"`
	// WindowHours is the default ranking window.
	WindowHours int `yaml:"window_hours"`
	// Quantity is the default number of ranked links to return.
	Quantity int `yaml:"quantity"`
}

func (u *Universe) validate() error {
	if u.Name == "" {
		return apperr.NewValidation("universe name is required")
	}
	if len(u.Seed) == 0 {
		return apperr.NewValidation(fmt.Sprintf("universe %q has no seed users", u.Name))
	}
	return nil
}

func (u *Universe) fillDefaults() {
	if u.WindowHours <= 0 {
		u.WindowHours = defaultWindowHours
	}
	if u.Quantity <= 0 {
		u.Quantity = defaultQuantity
	}
}

// Registry is the loaded set of universes, keyed by name.
type Registry struct {
	byName map[string]*Universe
}

// Load reads a universe declaration file.
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open universe file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes universe declarations from YAML and validates each one.
// Duplicate names are an error, not a silent overwrite.
func Parse(r io.Reader) (*Registry, error) {
	var doc struct {
		Universes []*Universe `yaml:"universes"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode universe file: %w", err)
	}
	if len(doc.Universes) == 0 {
		return nil, apperr.NewValidation("universe file declares no universes")
	}

	reg := &Registry{byName: make(map[string]*Universe, len(doc.Universes))}
	for _, u := range doc.Universes {
		if err := u.validate(); err != nil {
			return nil, err
		}
		if _, exists := reg.byName[u.Name]; exists {
			return nil, apperr.NewValidation(fmt.Sprintf("duplicate universe %q", u.Name))
		}
		u.fillDefaults()
		reg.byName[u.Name] = u
	}
	return reg, nil
}

// Get returns apperr.ErrNotFound for unknown names.
func (r *Registry) Get(name string) (*Universe, error) {
	u, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("universe %q: %w", name, apperr.ErrNotFound)
	}
	return u, nil
}

// Names returns the declared universe names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every universe in name order.
func (r *Registry) All() []*Universe {
	all := make([]*Universe, 0, len(r.byName))
	for _, name := range r.Names() {
		all = append(all, r.byName[name])
	}
	return all
}
