// Package typestore caches normalized inference data per source file and answers
// line-range lookups against it.
//
// A Store is an explicit object: the server owns one long-lived instance and
// hands it to every component that needs it, tests build their own.
package typestore

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/bastiangx/hintserve/pkg/inference"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Store maps file paths to their inference data.
// Paths are kept in a patricia trie so whole folders can be listed or dropped at once.
type Store struct {
	trie *patricia.Trie
	mu   sync.RWMutex
}

// New returns an empty store.
func New() *Store {
	return &Store{trie: patricia.NewTrie()}
}

// Put replaces whatever was cached for path.
func (s *Store) Put(path string, data *inference.FileData) {
	if data == nil {
		data = &inference.FileData{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trie.Set(patricia.Prefix(path), data)
	log.Debugf("Stored %d functions, %d variables for %s", len(data.Functions), len(data.Variables), path)
}

// Get returns the cached data for path.
func (s *Store) Get(path string) (*inference.FileData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(path)
}

func (s *Store) get(path string) (*inference.FileData, bool) {
	item := s.trie.Get(patricia.Prefix(path))
	if item == nil {
		return nil, false
	}
	data, ok := item.(*inference.FileData)
	return data, ok
}

// FindFunction returns the first function whose range contains line (1-indexed).
func (s *Store) FindFunction(path string, line int) (*inference.FunctionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.get(path)
	if !ok {
		return nil, false
	}
	for i := range data.Functions {
		if data.Functions[i].Lines.Contains(line) {
			return &data.Functions[i], true
		}
	}
	return nil, false
}

// FindVariable returns the variable named name whose range contains line (1-indexed).
// Both conditions must hold; names repeat across scopes.
func (s *Store) FindVariable(path string, line int, name string) (*inference.VariableRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.get(path)
	if !ok {
		return nil, false
	}
	for i := range data.Variables {
		v := &data.Variables[i]
		if v.Lines.Contains(line) && v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// Forget drops the entry for path.
func (s *Store) Forget(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trie.Delete(patricia.Prefix(path))
}

// ForgetPrefix drops every entry inside the folder prefix and returns how many went.
// A missing trailing separator is added, so "/ws/pkg" never touches "/ws/pkg2".
// An empty prefix clears the store.
func (s *Store) ForgetPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prefix == "" {
		n := s.count()
		s.trie = patricia.NewTrie()
		return n
	}
	prefix = FolderPrefix(prefix)

	n := 0
	s.trie.VisitSubtree(patricia.Prefix(prefix), func(patricia.Prefix, patricia.Item) error {
		n++
		return nil
	})
	if n > 0 {
		s.trie.DeleteSubtree(patricia.Prefix(prefix))
	}
	log.Debugf("Forgot %d files under %s", n, prefix)
	return n
}

// FolderPrefix returns prefix ending in a path separator.
func FolderPrefix(prefix string) string {
	if strings.HasSuffix(prefix, "/") || strings.HasSuffix(prefix, string(os.PathSeparator)) {
		return prefix
	}
	return prefix + string(os.PathSeparator)
}

// Paths lists cached paths starting with prefix, sorted.
func (s *Store) Paths(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var paths []string
	collect := func(p patricia.Prefix, _ patricia.Item) error {
		paths = append(paths, string(p))
		return nil
	}
	if prefix == "" {
		s.trie.Visit(collect)
	} else {
		s.trie.VisitSubtree(patricia.Prefix(prefix), collect)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of cached files.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count()
}

func (s *Store) count() int {
	n := 0
	s.trie.Visit(func(patricia.Prefix, patricia.Item) error {
		n++
		return nil
	})
	return n
}

// Stats returns counters about the cached data.
func (s *Store) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]int{
		"files":     0,
		"functions": 0,
		"variables": 0,
	}
	s.trie.Visit(func(_ patricia.Prefix, item patricia.Item) error {
		data, ok := item.(*inference.FileData)
		if !ok {
			return nil
		}
		stats["files"]++
		stats["functions"] += len(data.Functions)
		stats["variables"] += len(data.Variables)
		return nil
	})
	return stats
}
