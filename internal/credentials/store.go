package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrBlockNotFound is returned when a named credentials block does not exist
var ErrBlockNotFound = errors.New("credentials block not found")

// block is the on-disk form of one named credentials entry
type block struct {
	Domain string `yaml:"domain,omitempty"`
	Token  string `yaml:"token"`
}

type storeFile struct {
	Blocks map[string]block `yaml:"blocks"`
}

// Store holds named credential blocks persisted in a YAML file:
//
//	blocks:
//	  prod:
//	    domain: app.hex.tech
//	    token: hxtp_...
type Store struct {
	blocks map[string]block
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{blocks: make(map[string]block)}
}

// LoadStore reads the store at path. A missing file yields an empty store.
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewStore(), nil
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var file storeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}

	store := NewStore()
	for name, b := range file.Blocks {
		store.blocks[name] = b
	}
	return store, nil
}

// Get builds credentials from the named block
func (s *Store) Get(name string, opts ...Option) (*Credentials, error) {
	b, ok := s.blocks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBlockNotFound, name)
	}
	creds, err := New(b.Domain, b.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("credentials block %q: %w", name, err)
	}
	return creds, nil
}

// Put stores credentials under name, replacing any existing block
func (s *Store) Put(name string, creds *Credentials) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("block name is required")
	}
	s.blocks[name] = block{Domain: creds.Domain(), Token: creds.Token().Value()}
	return nil
}

// Names returns the block names in sorted order
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.blocks))
	for name := range s.blocks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Domain returns the domain of the named block
func (s *Store) Domain(name string) (string, bool) {
	b, ok := s.blocks[name]
	if !ok {
		return "", false
	}
	if b.Domain == "" {
		return DefaultDomain, true
	}
	return b.Domain, true
}

// Save writes the store to path, readable only by the owner
func (s *Store) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := yaml.Marshal(storeFile{Blocks: s.blocks})
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}
