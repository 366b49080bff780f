package mcpservice

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/light-autom8/mcp-server-go/mcp"
)

const defaultMaxFileSize = 10 << 20

// FileLoader is a ContentLoader for file:// resources rooted at a directory on
// disk. file://customer_policies.txt resolves to <root>/customer_policies.txt.
//
// Security: reads are constrained to the symlink-resolved root; parent
// traversal and absolute paths are rejected.
//
// When caching is enabled, loaded bytes are kept in memory and invalidated
// by an fsnotify watcher started with Watch.
type FileLoader struct {
	root     string
	log      *slog.Logger
	maxBytes int64

	cacheEnabled bool
	mu           sync.RWMutex
	cache        map[string]cachedFile // rel path as requested -> contents
	gen          uint64                // bumped by every Invalidate

	afterRead func(rel string) // test hook between read and cache fill
}

// cachedFile remembers which file under the root actually backed an entry,
// so an event on a symlink target drops entries cached under the link.
type cachedFile struct {
	data   []byte
	target string
}

var _ ContentLoader = (*FileLoader)(nil)

// FileLoaderOption configures a FileLoader.
type FileLoaderOption func(*FileLoader)

// WithFileCache enables the in-memory content cache. Pair it with Watch so
// edits on disk are observed.
func WithFileCache() FileLoaderOption {
	return func(l *FileLoader) { l.cacheEnabled = true }
}

// WithMaxFileSize caps the size of a single resource. Non-positive values are
// ignored. Defaults to 10 MiB.
func WithMaxFileSize(n int64) FileLoaderOption {
	return func(l *FileLoader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// WithFileLoaderLogger overrides the logger.
func WithFileLoaderLogger(log *slog.Logger) FileLoaderOption {
	return func(l *FileLoader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewFileLoader constructs a loader rooted at root. A relative root is made
// absolute and symlinks in it are resolved; a missing root surfaces as a
// read error on first use.
func NewFileLoader(root string, opts ...FileLoaderOption) *FileLoader {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if real, err := filepath.EvalSymlinks(root); err == nil {
		root = real
	}
	l := &FileLoader{
		root:     root,
		log:      slog.Default(),
		maxBytes: defaultMaxFileSize,
		cache:    make(map[string]cachedFile),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Root returns the resolved root directory.
func (l *FileLoader) Root() string { return l.root }

// Load implements ContentLoader.
func (l *FileLoader) Load(ctx context.Context, res mcp.Resource) ([]byte, error) {
	rel, err := uriToRel(res.URI)
	if err != nil {
		return nil, err
	}

	var gen uint64
	if l.cacheEnabled {
		l.mu.RLock()
		entry, ok := l.cache[rel]
		gen = l.gen
		l.mu.RUnlock()
		if ok {
			return append([]byte(nil), entry.data...), nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs := filepath.Join(l.root, filepath.FromSlash(rel))
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	if !within(real, l.root) {
		return nil, fmt.Errorf("read %s: path escapes resource root", rel)
	}

	f, err := os.Open(real)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("read %s: file exceeds %d bytes", rel, l.maxBytes)
	}

	if l.afterRead != nil {
		l.afterRead(rel)
	}
	if l.cacheEnabled {
		target, err := filepath.Rel(l.root, real)
		if err != nil {
			target = rel
		}
		l.mu.Lock()
		// An invalidation that raced the read means data may already be stale.
		if l.gen == gen {
			l.cache[rel] = cachedFile{data: append([]byte(nil), data...), target: filepath.ToSlash(target)}
		}
		l.mu.Unlock()
	}
	return data, nil
}

// Invalidate drops the cached contents for a path relative to the root,
// whether it was requested directly, reached through a symlink or lies below
// a directory of that name. An empty path drops the whole cache.
func (l *FileLoader) Invalidate(rel string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	if rel == "" {
		clear(l.cache)
		return
	}
	for key, entry := range l.cache {
		if underPath(key, rel) || underPath(entry.target, rel) {
			delete(l.cache, key)
		}
	}
}

func underPath(p, dir string) bool {
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// Watch starts an fsnotify watcher over the root tree that invalidates cached
// contents on change. It returns once the watcher is installed; the watcher
// stops when ctx is canceled.
func (l *FileLoader) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}

	// Recursively add all directories under the root.
	err = filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return w.Add(p)
	})
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("fsnotify: watch %s: %w", l.root, err)
	}

	go l.runWatcher(ctx, w)
	return nil
}

func (l *FileLoader) runWatcher(ctx context.Context, w *fsnotify.Watcher) {
	defer func() {
		// Best-effort watcher close; no actionable error handling path.
		_ = w.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			// Maintain watcher on newly created directories.
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = w.Add(ev.Name)
					continue
				}
			}
			rel, err := filepath.Rel(l.root, ev.Name)
			if err != nil || !within(ev.Name, l.root) {
				continue
			}
			l.Invalidate(filepath.ToSlash(rel))
			l.log.Debug("resources.cache.invalidate", slog.String("path", rel), slog.String("op", ev.Op.String()))
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			// Events may have been dropped; start over.
			l.Invalidate("")
			l.log.Debug("fsnotify error", slog.String("err", err.Error()))
		}
	}
}

// uriToRel maps file://a/b.txt to a/b.txt, rejecting anything that is not a
// clean relative path.
func uriToRel(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, "file://")
	if !ok {
		return "", fmt.Errorf("unsupported resource uri %s", uri)
	}
	rel, err := url.PathUnescape(rest)
	if err != nil {
		return "", fmt.Errorf("invalid resource uri %s: %w", uri, err)
	}
	if !validFSPath(rel) {
		return "", fmt.Errorf("resource uri %s is outside the resource root", uri)
	}
	return path.Clean(rel), nil
}

func validFSPath(p string) bool {
	// fs.ValidPath requires clean, no leading slash, and no ".." segments.
	if !fs.ValidPath(p) || p == "." {
		return false
	}
	// Reject Windows volume roots or weird schemes in p
	if strings.Contains(p, ":") || strings.Contains(p, `\`) {
		return false
	}
	return true
}

func within(target, root string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if strings.HasPrefix(rel, ".."+string(os.PathSeparator)) || rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	return true
}
