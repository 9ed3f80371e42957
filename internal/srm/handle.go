// handle.go - the open-file/open-directory handle table

package srm

import (
	"os"
	"sync"
)

// Handle is one open file or directory, keyed by a small integer id
// returned to the peer from OPEN and referenced by later requests.
type Handle struct {
	ID    uint32
	Path  string
	IsDir bool

	file    *os.File
	entries []CatalogEntry
}

// HandleTable is the table of open handles; one table belongs to a Server
// and is shared by every connection that Server serves.
type HandleTable struct {
	mu      sync.Mutex
	next    uint32
	handles map[uint32]*Handle
}

// NewHandleTable returns an empty table; ids start at 1 (0 means "no
// working directory" per spec.md §4.8).
func NewHandleTable() *HandleTable {
	return &HandleTable{next: 1, handles: make(map[uint32]*Handle)}
}

// OpenFile opens path for read/write and registers a handle.
func (t *HandleTable) OpenFile(path string) (*Handle, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return t.register(&Handle{Path: path, file: f}), nil
}

// OpenDir reads path's entries and registers a directory handle.
func (t *HandleTable) OpenDir(path string) (*Handle, error) {
	des, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	entries := make([]CatalogEntry, 0, len(des))
	for _, d := range des {
		info, err := d.Info()
		var size int64
		if err == nil {
			size = info.Size()
		}
		entries = append(entries, CatalogEntry{Name: d.Name(), IsDir: d.IsDir(), Size: size})
	}
	SortCatalog(entries)
	return t.register(&Handle{Path: path, IsDir: true, entries: entries}), nil
}

func (t *HandleTable) register(h *Handle) *Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	h.ID = t.next
	t.next++
	t.handles[h.ID] = h
	return h
}

// Get looks up a handle by id.
func (t *HandleTable) Get(id uint32) (*Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.handles[id]
	return h, ok
}

// Close closes and removes a handle.
func (t *HandleTable) Close(id uint32) error {
	t.mu.Lock()
	h, ok := t.handles[id]
	delete(t.handles, id)
	t.mu.Unlock()
	if !ok {
		return os.ErrNotExist
	}
	if h.file != nil {
		return h.file.Close()
	}
	return nil
}
