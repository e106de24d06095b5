package metadata

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"kstub/internal/names"
)

// FileExt is the extension of serialized units.
const FileExt = ".kmeta"

// Store keeps units on disk, one file per class:
// <dir>/<package path>/<Outer$Inner>.kmeta. Thread-safe.
type Store struct {
	mu  sync.RWMutex
	dir string
}

var _ Repository = (*Store)(nil)

// OpenStore opens (creating if needed) a store rooted at dir.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store root.
func (s *Store) Dir() string { return s.dir }

// PathFor returns the file a class is stored in.
func (s *Store) PathFor(id names.ClassID) string {
	parts := []string{s.dir}
	for _, seg := range id.Package.Segments() {
		parts = append(parts, string(seg))
	}
	parts = append(parts, classFileName(id.Relative)+FileExt)
	return filepath.Join(parts...)
}

// Put serializes u under its key, replacing any previous file atomically.
func (s *Store) Put(u *Unit) error {
	key, err := u.Key()
	if err != nil {
		return err
	}
	data, err := Marshal(u)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.PathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Load reads the unit stored under id.
func (s *Store) Load(id names.ClassID) (*Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ReadFile(s.PathFor(id))
}

// ReadFile decodes a single .kmeta file.
func ReadFile(path string) (*Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()
	u, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// Keys lists every stored class, sorted for deterministic order.
func (s *Store) Keys() ([]names.ClassID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []names.ClassID
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, FileExt) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		dir, file := filepath.Split(filepath.ToSlash(rel))
		pkg := names.FqName(strings.ReplaceAll(strings.Trim(dir, "/"), "/", "."))
		keys = append(keys, names.ClassID{
			Package:  pkg,
			Relative: relativeFromFileName(strings.TrimSuffix(file, FileExt)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys, nil
}

// FindClassData implements ClassDataFinder.
func (s *Store) FindClassData(id names.ClassID) (ClassData, bool) {
	u, err := s.Load(id)
	if err != nil {
		return ClassData{}, false
	}
	return classDataOf(u)
}

// FindKotlinClass implements KotlinClassFinder.
func (s *Store) FindKotlinClass(id names.ClassID) (BinaryClass, bool) {
	u, err := s.Load(id)
	if err != nil {
		return nil, false
	}
	return &binaryClass{id: id, unit: u}, true
}

// MemStore is an in-memory Repository, mostly for tests and tooling.
type MemStore struct {
	mu    sync.RWMutex
	units map[names.ClassID]*Unit
}

var _ Repository = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{units: make(map[names.ClassID]*Unit)}
}

// Put registers u under its key.
func (m *MemStore) Put(u *Unit) error {
	key, err := u.Key()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.units[key] = u
	m.mu.Unlock()
	return nil
}

// Load returns the unit stored under id.
func (m *MemStore) Load(id names.ClassID) (*Unit, error) {
	m.mu.RLock()
	u, ok := m.units[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return u, nil
}

// Keys lists stored classes in sorted order.
func (m *MemStore) Keys() ([]names.ClassID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]names.ClassID, 0, len(m.units))
	for k := range m.units {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys, nil
}

// FindClassData implements ClassDataFinder.
func (m *MemStore) FindClassData(id names.ClassID) (ClassData, bool) {
	u, err := m.Load(id)
	if err != nil {
		return ClassData{}, false
	}
	return classDataOf(u)
}

// FindKotlinClass implements KotlinClassFinder.
func (m *MemStore) FindKotlinClass(id names.ClassID) (BinaryClass, bool) {
	u, err := m.Load(id)
	if err != nil {
		return nil, false
	}
	return &binaryClass{id: id, unit: u}, true
}

func classDataOf(u *Unit) (ClassData, bool) {
	if u.Kind != UnitClass || u.Class == nil {
		return ClassData{}, false
	}
	return ClassData{Resolver: u.Resolver(), Class: u.Class}, true
}

type binaryClass struct {
	id   names.ClassID
	unit *Unit
}

func (c *binaryClass) ClassID() names.ClassID { return c.id }

func (c *binaryClass) LoadClassAnnotations(v AnnotationVisitor) {
	VisitAnnotations(c.unit.Resolver(), c.unit.Annotations, v)
}
