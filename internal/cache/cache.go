package cache

import (
	"encoding/json" // Entries are stored as one JSON document per key
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/soda-framework/installer/internal/logger"
)

// Entry is a single cached value and the time it was written.
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	WrittenAt time.Time `json:"written_at"`
}

// FileCache stores entries as JSON files in a single directory.
// Entries expire ttl after they were written, regardless of how often they are read.
// Concurrent processes sharing one directory are not supported.
type FileCache struct {
	fs  afero.Fs
	dir string
	ttl time.Duration
	now func() time.Time
}

// unsafeKey matches characters that cannot appear in a cache file name.
var unsafeKey = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

const entrySuffix = ".json"

// New returns a FileCache rooted at dir, creating the directory if needed.
func New(fs afero.Fs, dir string, ttl time.Duration) (*FileCache, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	return &FileCache{fs: fs, dir: dir, ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the cache's time source.
func (c *FileCache) WithClock(now func() time.Time) *FileCache {
	c.now = now
	return c
}

// Dir returns the directory holding the entries.
func (c *FileCache) Dir() string {
	return c.dir
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, unsafeKey.ReplaceAllString(key, "-")+entrySuffix)
}

// Read returns the value stored under key if it exists and has not expired.
// Unreadable or corrupt entries are treated as missing.
func (c *FileCache) Read(key string) (string, bool) {
	entry, err := c.load(c.path(key))
	if err != nil {
		logger.Debug("[DEBUG] Cache miss for %s: %v\n", key, err)
		return "", false
	}
	if !c.now().Before(entry.WrittenAt.Add(c.ttl)) {
		logger.Debug("[DEBUG] Cache entry %s expired (written %s)\n", key, humanize.Time(entry.WrittenAt))
		return "", false
	}
	return entry.Value, true
}

// Write stores value under key stamped with the current time.
func (c *FileCache) Write(key, value string) error {
	data, err := json.MarshalIndent(Entry{Key: key, Value: value, WrittenAt: c.now()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache entry %s: %w", key, err)
	}

	path := c.path(key)
	logger.Debug("[DEBUG] Writing cache entry to %s:\n%s\n", path, string(data))
	if err := afero.WriteFile(c.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write cache entry %s: %w", path, err)
	}
	return nil
}

func (c *FileCache) load(path string) (Entry, error) {
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return Entry{}, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return entry, nil
}

type file struct {
	path    string
	size    int64
	written time.Time
}

// GC removes entries older than maxAge, then removes the oldest remaining
// entries until the directory holds at most maxBytes.
func (c *FileCache) GC(maxAge time.Duration, maxBytes int64) error {
	infos, err := afero.ReadDir(c.fs, c.dir)
	if err != nil {
		return fmt.Errorf("list cache directory %s: %w", c.dir, err)
	}

	now := c.now()
	var kept []file
	var total int64
	for _, info := range infos {
		if info.IsDir() || filepath.Ext(info.Name()) != entrySuffix {
			continue
		}
		f := file{path: filepath.Join(c.dir, info.Name()), size: info.Size(), written: info.ModTime()}
		if entry, err := c.load(f.path); err == nil && !entry.WrittenAt.IsZero() {
			f.written = entry.WrittenAt
		}

		if now.Sub(f.written) > maxAge {
			c.remove(f, "older than "+maxAge.String())
			continue
		}
		kept = append(kept, f)
		total += f.size
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].written.Before(kept[j].written)
	})
	for _, f := range kept {
		if total <= maxBytes {
			break
		}
		c.remove(f, "cache above "+humanize.IBytes(uint64(maxBytes)))
		total -= f.size
	}
	return nil
}

func (c *FileCache) remove(f file, reason string) {
	if err := c.fs.Remove(f.path); err != nil && !os.IsNotExist(err) {
		logger.Warn("[WARN] Failed to evict cache entry %s: %v\n", f.path, err)
		return
	}
	logger.Debug("[DEBUG] Evicted cache entry %s (%s)\n", f.path, reason)
}
