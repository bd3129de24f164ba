// Package prefs is a small persisted store for named tunable values, used to
// hot-reload controller gains and setpoints between runs.
package prefs

import (
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

type Store struct {
	mu     sync.Mutex
	path   string
	values map[string]float64
}

// Open loads the store at path, creating an empty one if the file does not
// exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[string]float64)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, err
	}
	if s.values == nil {
		s.values = make(map[string]float64)
	}
	return s, nil
}

// InitDouble registers a default for key. A value already present is never
// overwritten, so tuned values survive restarts.
func (s *Store) InitDouble(key string, def float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; ok {
		return nil
	}
	s.values[key] = def
	return s.save()
}

// Double returns the stored value for key, or def when the key is unknown.
func (s *Store) Double(key string, def float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// SetDouble stores and persists a value for key.
func (s *Store) SetDouble(key string, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = v
	return s.save()
}

func (s *Store) save() error {
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
