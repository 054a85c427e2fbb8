package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// cache is a one-file-per-key text cache. Writes are atomic (temp file
// plus rename) and both directions take a file lock so multiple server
// processes sharing the directory never observe partial content.
type cache struct {
	dir string
	ttl time.Duration
}

const lockRetryDelay = 50 * time.Millisecond

func newCache(dir string, ttl time.Duration) *cache {
	return &cache{dir: dir, ttl: ttl}
}

func (c *cache) path(key string) (string, error) {
	dir := c.dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".sitesmith", "docs")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}
	return filepath.Join(dir, key+".txt"), nil
}

// Read returns the cached text for key. ok is false on a miss. Unless
// allowStale is set, entries older than the TTL count as misses.
func (c *cache) Read(ctx context.Context, key string, allowStale bool) (string, bool, error) {
	path, err := c.path(key)
	if err != nil {
		return "", false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	if !allowStale && time.Since(info.ModTime()) > c.ttl {
		return "", false, nil
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", false, fmt.Errorf("acquire cache read lock: %w", err)
	}
	if !locked {
		return "", false, fmt.Errorf("cache read lock for %s held elsewhere", key)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// Write stores text under key atomically.
func (c *cache) Write(ctx context.Context, key, text string) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire cache write lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("cache write lock for %s held elsewhere", key)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(filepath.Dir(path), key+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
