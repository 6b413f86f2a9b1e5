package backend

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-memory Client used by the test suite and the demo backend
// mode. Directories exist implicitly: the seeded namespace roots plus every
// ancestor of a stored record.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*memRecord
	roots   []string
}

type memRecord struct {
	content []byte
	modTime time.Time
}

// NewMemory creates an empty store whose namespace roots (e.g. "/data")
// exist as directories from the start.
func NewMemory(roots ...string) *Memory {
	return &Memory{
		records: make(map[string]*memRecord),
		roots:   append([]string(nil), roots...),
	}
}

// isDir reports whether path is a known directory. Caller holds mu.
func (m *Memory) isDir(path string) bool {
	if path == "/" {
		return true
	}
	for _, r := range m.roots {
		if path == r || strings.HasPrefix(r, path+"/") {
			return true
		}
	}
	for p := range m.records {
		if strings.HasPrefix(p, path+"/") {
			return true
		}
	}
	return false
}

func (m *Memory) List(ctx context.Context, path, credential string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.isDir(path) {
		return nil, ErrNotFound
	}

	prefix := path
	if prefix != "/" {
		prefix += "/"
	}
	seen := make(map[string]Entry)
	add := func(child string, e Entry) {
		if _, ok := seen[child]; !ok || !e.IsDir {
			seen[child] = e
		}
	}
	for p, rec := range m.records {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := p[len(prefix):]
		if i := strings.Index(rest, "/"); i >= 0 {
			add(rest[:i], Entry{Name: rest[:i], IsDir: true, ModTime: rec.modTime})
		} else {
			add(rest, Entry{Name: rest, Size: int64(len(rec.content)), ModTime: rec.modTime})
		}
	}
	for _, r := range m.roots {
		if !strings.HasPrefix(r, prefix) {
			continue
		}
		rest := r[len(prefix):]
		if i := strings.Index(rest, "/"); i >= 0 {
			rest = rest[:i]
		}
		if rest != "" {
			add(rest, Entry{Name: rest, IsDir: true, ModTime: time.Now()})
		}
	}

	entries := make([]Entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *Memory) Retrieve(ctx context.Context, path, credential string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[path]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), rec.content...), nil
}

func (m *Memory) Store(ctx context.Context, path string, content []byte, credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isDir(path) {
		return ErrRejected
	}
	m.records[path] = &memRecord{
		content: append([]byte(nil), content...),
		modTime: time.Now(),
	}
	return nil
}

func (m *Memory) Append(ctx context.Context, path string, content []byte, credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isDir(path) {
		return ErrRejected
	}
	rec, ok := m.records[path]
	if !ok {
		rec = &memRecord{}
		m.records[path] = rec
	}
	rec.content = append(rec.content, content...)
	rec.modTime = time.Now()
	return nil
}

func (m *Memory) Delete(ctx context.Context, path, credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[path]; !ok {
		return ErrNotFound
	}
	delete(m.records, path)
	return nil
}

func (m *Memory) Stat(ctx context.Context, path, credential string) (Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if rec, ok := m.records[path]; ok {
		return Info{Size: int64(len(rec.content)), ModTime: rec.modTime}, nil
	}
	if m.isDir(path) {
		return Info{IsDir: true, ModTime: time.Now()}, nil
	}
	return Info{}, ErrNotFound
}
