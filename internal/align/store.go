package align

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// RefFileName is the file FileStore keeps under the state directory.
const RefFileName = "align_refs.yaml"

// RefStore persists alignment references. Setting a nil reference deletes it.
type RefStore interface {
	PaperRef(paperID int64) (Bounds, bool)
	SetPaperRef(paperID int64, b *Bounds) error
	AnswerRef(qpPaperID, msPaperID int64) (Bounds, bool)
	SetAnswerRef(qpPaperID, msPaperID int64, b *Bounds) error
}

type refFile struct {
	Paper  map[string][]float64 `yaml:"paper,omitempty"`
	Answer map[string][]float64 `yaml:"answer,omitempty"`
}

// FileStore is a RefStore backed by a YAML file. An empty path keeps the
// references in memory only.
type FileStore struct {
	path string

	mu   sync.Mutex
	data refFile
}

var _ RefStore = (*FileStore)(nil)

// OpenFileStore reads path if it exists.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, data: refFile{Paper: map[string][]float64{}, Answer: map[string][]float64{}}}
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read align refs: %w", err)
	}
	if err := yaml.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse align refs %s: %w", path, err)
	}
	if s.data.Paper == nil {
		s.data.Paper = map[string][]float64{}
	}
	if s.data.Answer == nil {
		s.data.Answer = map[string][]float64{}
	}
	return s, nil
}

// NewMemoryStore returns a store that never touches disk.
func NewMemoryStore() *FileStore {
	s, _ := OpenFileStore("")
	return s
}

// Path returns the backing file, if any.
func (s *FileStore) Path() string { return s.path }

func paperKey(paperID int64) string { return strconv.FormatInt(paperID, 10) }

func answerKey(qp, ms int64) string {
	return strconv.FormatInt(qp, 10) + ":" + strconv.FormatInt(ms, 10)
}

func decode(v []float64) (Bounds, bool) {
	if len(v) != 2 {
		return Bounds{}, false
	}
	return NewBounds(v[0], v[1])
}

// PaperRef returns the stored per-paper bounds.
func (s *FileStore) PaperRef(paperID int64) (Bounds, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decode(s.data.Paper[paperKey(paperID)])
}

// SetPaperRef stores or, with nil, deletes per-paper bounds.
func (s *FileStore) SetPaperRef(paperID int64, b *Bounds) error {
	return s.set(s.data.Paper, paperKey(paperID), b)
}

// AnswerRef returns the stored bounds for a question-paper/mark-scheme pair.
func (s *FileStore) AnswerRef(qpPaperID, msPaperID int64) (Bounds, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decode(s.data.Answer[answerKey(qpPaperID, msPaperID)])
}

// SetAnswerRef stores or, with nil, deletes pair bounds.
func (s *FileStore) SetAnswerRef(qpPaperID, msPaperID int64, b *Bounds) error {
	return s.set(s.data.Answer, answerKey(qpPaperID, msPaperID), b)
}

func (s *FileStore) set(m map[string][]float64, key string, b *Bounds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b == nil {
		delete(m, key)
	} else {
		nb, ok := NewBounds(b[0], b[1])
		if !ok {
			return fmt.Errorf("invalid bounds %v", *b)
		}
		m[key] = []float64{nb[0], nb[1]}
	}
	return s.flush()
}

// Entry is one stored reference, for listing.
type Entry struct {
	Kind   string
	Key    string
	Bounds Bounds
}

// Entries lists valid references sorted by kind then key.
func (s *FileStore) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for _, kind := range []string{"paper", "answer"} {
		m := s.data.Paper
		if kind == "answer" {
			m = s.data.Answer
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if b, ok := decode(m[k]); ok {
				out = append(out, Entry{Kind: kind, Key: k, Bounds: b})
			}
		}
	}
	return out
}

func (s *FileStore) flush() error {
	if s.path == "" {
		return nil
	}
	raw, err := yaml.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("encode align refs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".align-refs-*.yaml")
	if err != nil {
		return fmt.Errorf("write align refs: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write align refs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write align refs: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace align refs: %w", err)
	}
	return nil
}
