package thailint

import (
	"errors"
	"fmt"

	"github.com/gophersatwork/granular"
	"github.com/mus-format/mus-go/varint"
	"github.com/spf13/afero"
)

// Version is the tool version embedded in output and cache fingerprints.
const Version = "0.3.0"

var (
	// ErrCacheEntryNotFound is returned when a file has no usable cache entry
	ErrCacheEntryNotFound = errors.New("cache entry not found")
	// ErrCacheStale is returned when an entry's fingerprint does not match
	ErrCacheStale = errors.New("cache entry is stale")
)

// DryCache persists precomputed token windows so unchanged files skip
// re-tokenization. Entries are keyed by file content, so an edited file
// is a natural miss. Every entry carries a tool/config fingerprint; a
// mismatch discards the entry rather than risking stale results after a
// threshold change. The cache affects performance only, never semantics.
//
// A DryCache is constructed once per Linter and passed by reference into
// the duplicate detector; there is no process-wide singleton.
type DryCache struct {
	gCache      *granular.Cache
	fs          afero.Fs
	fingerprint string
}

// DryFingerprint derives the cache fingerprint from the tool version and
// every DRY setting that changes window content.
func DryFingerprint(cfg DryConfig) string {
	return fmt.Sprintf("thailint/%s window=%d", Version, cfg.MinDuplicateLines)
}

// NewDryCache opens or creates the cache directory at path.
func NewDryCache(path string, fs afero.Fs, fingerprint string) (*DryCache, error) {
	opts := []granular.Option{}
	if fs != nil {
		opts = append(opts, granular.WithFs(fs))
	}

	cache, err := granular.New(path, opts...)
	if err != nil {
		return nil, NewCacheError("failed to create token window cache", err)
	}

	return &DryCache{
		gCache:      cache,
		fs:          fs,
		fingerprint: fingerprint,
	}, nil
}

// Windows returns the cached token windows for a file. The underlying
// key hashes the file content, so a changed file misses without any
// explicit invalidation.
func (c *DryCache) Windows(path string) ([]TokenWindow, error) {
	key := granular.Key{
		Inputs: []granular.Input{granular.FileInput{
			Path: NormalizePath(path),
			Fs:   c.fs,
		}},
	}

	result, found, _ := c.gCache.Get(key)
	if !found {
		return nil, ErrCacheEntryNotFound
	}

	if result.Metadata["fingerprint"] != c.fingerprint {
		return nil, ErrCacheStale
	}

	data, ok := result.Metadata["windows"]
	if !ok {
		return nil, ErrCacheEntryNotFound
	}

	windows, err := unmarshalTokenWindows([]byte(data))
	if err != nil {
		return nil, NewCacheError("cached token windows are invalid", err)
	}
	return windows, nil
}

// Store writes a file's token windows to the cache.
func (c *DryCache) Store(path string, windows []TokenWindow) error {
	key := granular.Key{
		Inputs: []granular.Input{granular.FileInput{
			Path: NormalizePath(path),
			Fs:   c.fs,
		}},
	}

	data, err := marshalTokenWindows(windows)
	if err != nil {
		return NewCacheError("failed to encode token windows", err)
	}

	res := granular.Result{
		Metadata: map[string]string{
			"fingerprint": c.fingerprint,
			"windows":     string(data),
		},
	}

	if err := c.gCache.Store(key, res); err != nil {
		return NewCacheError("failed to store token windows", err)
	}
	return nil
}

// MUS encoding of the window list: varint count, then per window the
// hash and both line numbers as varints.

func tokenWindowsSize(windows []TokenWindow) int {
	size := varint.Uint64.Size(uint64(len(windows)))
	for _, w := range windows {
		size += varint.Uint64.Size(w.Hash)
		size += varint.PositiveInt.Size(w.StartLine)
		size += varint.PositiveInt.Size(w.EndLine)
	}
	return size
}

func marshalTokenWindows(windows []TokenWindow) ([]byte, error) {
	buf := make([]byte, tokenWindowsSize(windows))

	n := varint.Uint64.Marshal(uint64(len(windows)), buf)
	for _, w := range windows {
		n += varint.Uint64.Marshal(w.Hash, buf[n:])
		n += varint.PositiveInt.Marshal(w.StartLine, buf[n:])
		n += varint.PositiveInt.Marshal(w.EndLine, buf[n:])
	}
	return buf[:n], nil
}

func unmarshalTokenWindows(buf []byte) ([]TokenWindow, error) {
	count, n, err := varint.Uint64.Unmarshal(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal window count: %w", err)
	}

	windows := make([]TokenWindow, count)
	for i := uint64(0); i < count; i++ {
		var m int

		windows[i].Hash, m, err = varint.Uint64.Unmarshal(buf[n:])
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal hash at index %d: %w", i, err)
		}
		n += m

		windows[i].StartLine, m, err = varint.PositiveInt.Unmarshal(buf[n:])
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal start line at index %d: %w", i, err)
		}
		n += m

		windows[i].EndLine, m, err = varint.PositiveInt.Unmarshal(buf[n:])
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal end line at index %d: %w", i, err)
		}
		n += m
	}
	return windows, nil
}
