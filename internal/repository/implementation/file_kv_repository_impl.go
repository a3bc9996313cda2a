package implementation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileKVRepository keeps one JSON file per key under a data directory.
// Writes go through a temp file plus rename so a crash mid-write leaves
// the previous value intact rather than a truncated one.
type FileKVRepository struct {
	mu      sync.Mutex
	dataDir string
}

func NewFileKVRepository(dataDir string) *FileKVRepository {
	_ = os.MkdirAll(dataDir, 0o755)
	return &FileKVRepository{
		dataDir: dataDir,
	}
}

func (r *FileKVRepository) Get(ctx context.Context, key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.pathFor(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (r *FileKVRepository) Set(ctx context.Context, key string, value string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.pathFor(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return false
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return false
	}
	return true
}

func (r *FileKVRepository) Delete(ctx context.Context, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_ = os.Remove(r.pathFor(key))
}

func (r *FileKVRepository) pathFor(key string) string {
	// Keys are internal constants, but keep path traversal out anyway.
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(r.dataDir, safe+".json")
}
