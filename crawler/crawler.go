// Package crawler walks registered scope directories, upserting file
// metadata and feeding extracted text into the content index. Scans are
// fire-and-forget: each runs in its own goroutine and exposes a done
// channel for callers that need to await completion.
package crawler

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"privascope/index"
	"privascope/store"
)

// Options configures crawl behavior. Zero values fall back to defaults.
type Options struct {
	MaxDepth          int
	AllowedExtensions []string
	MaxFileSizeBytes  int64 // ceiling for plain formats
	MaxDocSizeBytes   int64 // ceiling for .pdf/.docx
	Workers           int
}

const (
	defaultMaxDepth     = 20
	defaultMaxFileSize  = 5 * 1024 * 1024
	defaultMaxDocSize   = 20 * 1024 * 1024
	defaultWorkers      = 4
	progressLogInterval = 100
)

// Crawler orchestrates directory scans. Safe for concurrent use; scans of
// different scopes run independently and a refresh of an already-scanning
// scope joins the running scan instead of starting a second one.
type Crawler struct {
	store  *store.Store
	index  *index.ContentIndex
	logger *slog.Logger
	opts   Options

	mu       sync.Mutex
	inflight map[string]*Scan // key: scope id
}

// Scan is the handle for one in-flight or completed scan.
type Scan struct {
	ScopeID string
	done    chan struct{}
	state   *ScanState
}

// Done is closed when the scan completes. Stats may be read after that.
func (s *Scan) Done() <-chan struct{} { return s.done }

// Stats returns the scan counters. Only valid after Done is closed.
func (s *Scan) Stats() ScanState { return *s.state }

// ScanState holds the counters for a single scan. Each scan owns its own
// state so concurrent scans never share mutable data.
type ScanState struct {
	Processed int // file records upserted
	Indexed   int // content index entries written
	Ignored   int // entries skipped by ignore rules or the depth ceiling
	Pruned    int // stale file records removed after the walk
	Elapsed   time.Duration

	seen map[string]struct{} // file ids touched this scan
}

// queueEntry is one pending directory in the crawl queue.
type queueEntry struct {
	path  string
	depth int
}

// New creates a crawler writing through the given store and content index.
func New(s *store.Store, ci *index.ContentIndex, logger *slog.Logger, opts Options) *Crawler {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	if opts.MaxFileSizeBytes <= 0 {
		opts.MaxFileSizeBytes = defaultMaxFileSize
	}
	if opts.MaxDocSizeBytes <= 0 {
		opts.MaxDocSizeBytes = defaultMaxDocSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Crawler{
		store:    s,
		index:    ci,
		logger:   logger,
		opts:     opts,
		inflight: make(map[string]*Scan),
	}
}

// Scan starts a background scan of the scope and returns immediately. If a
// scan of the same scope is already running, its handle is returned instead
// of starting a redundant one.
func (c *Crawler) Scan(scope *store.Scope) *Scan {
	c.mu.Lock()
	defer c.mu.Unlock()

	if running, ok := c.inflight[scope.ID]; ok {
		return running
	}

	scan := &Scan{
		ScopeID: scope.ID,
		done:    make(chan struct{}),
		state:   &ScanState{seen: make(map[string]struct{})},
	}
	c.inflight[scope.ID] = scan

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.inflight, scope.ID)
			c.mu.Unlock()
			close(scan.done)
		}()
		c.run(scope, scan.state)
	}()

	return scan
}

// ScanAll triggers a scan for every registered scope regardless of owner.
// The in-memory index starts empty, so startup rescans all of them.
func (c *Crawler) ScanAll() ([]*Scan, error) {
	scopes, err := c.store.ListAllScopes()
	if err != nil {
		return nil, err
	}
	scans := make([]*Scan, 0, len(scopes))
	for _, scope := range scopes {
		scans = append(scans, c.Scan(scope))
	}
	return scans, nil
}

// run performs the walk. Directory-listing errors abort only that subtree;
// file-level errors abort only that file.
func (c *Crawler) run(scope *store.Scope, state *ScanState) {
	start := time.Now()
	logger := c.logger.With("scope", scope.ID, "root", scope.RootPath)
	logger.Info("scan started")

	ign := newIgnoreMatcher(scope.RootPath)
	allowed := c.allowedExtensions(scope.OwnerID)

	pool := newExtractPool(c.opts.Workers, c.index, func(fileID string, err error) {
		if err != nil {
			logger.Warn("indexing failed", "file", fileID, "error", err)
		}
	})

	queue := []queueEntry{{path: scope.RootPath, depth: 0}}
	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		children, err := os.ReadDir(entry.path)
		if err != nil {
			logger.Warn("skipping unreadable directory", "path", entry.path, "error", err)
			continue
		}

		for _, child := range children {
			childPath := filepath.Join(entry.path, child.Name())

			if ign.Ignore(childPath, child.IsDir()) {
				state.Ignored++
				continue
			}

			if child.IsDir() {
				if entry.depth < c.opts.MaxDepth {
					queue = append(queue, queueEntry{path: childPath, depth: entry.depth + 1})
				} else {
					// Depth ceiling guards against pathological trees.
					state.Ignored++
				}
				continue
			}

			if !child.Type().IsRegular() {
				state.Ignored++
				continue
			}

			c.processFile(scope, childPath, child, state, allowed, pool, logger)

			if state.Processed > 0 && state.Processed%progressLogInterval == 0 {
				logger.Info("scan progress", "processed", state.Processed, "ignored", state.Ignored)
			}
		}
	}

	state.Indexed = pool.drain()
	state.Pruned = c.pruneStale(scope, state, logger)
	state.Elapsed = time.Since(start)

	logger.Info("scan complete",
		"processed", state.Processed,
		"indexed", state.Indexed,
		"ignored", state.Ignored,
		"pruned", state.Pruned,
		"elapsed", state.Elapsed,
	)
}

// processFile stats and upserts one file, queueing extraction if the file
// qualifies for content indexing.
func (c *Crawler) processFile(
	scope *store.Scope,
	path string,
	child os.DirEntry,
	state *ScanState,
	allowed map[string]struct{},
	pool *extractPool,
	logger *slog.Logger,
) {
	info, err := child.Info()
	if err != nil {
		logger.Warn("skipping unreadable file", "path", path, "error", err)
		return
	}

	fileID, err := c.store.UpsertFile(scope.ID, path, info.Size(), info.ModTime())
	if err != nil {
		logger.Warn("file upsert failed", "path", path, "error", err)
		return
	}
	state.Processed++
	state.seen[fileID] = struct{}{}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := allowed[ext]; !ok {
		return
	}
	if info.Size() > c.sizeCeiling(ext) {
		return
	}

	pool.submit(extractRequest{
		fileID: fileID,
		path:   path,
		entry: index.Entry{
			ScopeID: scope.ID,
			Path:    path,
			Name:    filepath.Base(path),
			Dir:     filepath.Dir(path),
		},
	})
}

// pruneStale removes file records (and index entries) for files that were
// present in an earlier scan but not seen in this one.
func (c *Crawler) pruneStale(scope *store.Scope, state *ScanState, logger *slog.Logger) int {
	files, err := c.store.ListFilesForScope(scope.ID)
	if err != nil {
		logger.Warn("stale check failed", "error", err)
		return 0
	}

	pruned := 0
	for _, f := range files {
		if _, ok := state.seen[f.ID]; ok {
			continue
		}
		if err := c.store.DeleteFile(f.ID); err != nil {
			logger.Warn("pruning file record failed", "file", f.ID, "error", err)
			continue
		}
		c.index.Remove(f.ID)
		pruned++
	}
	return pruned
}

// allowedExtensions resolves the owner's persisted allow-list, falling back
// to the configured defaults.
func (c *Crawler) allowedExtensions(ownerID string) map[string]struct{} {
	exts := c.opts.AllowedExtensions
	settings, err := c.store.GetSearchSettings(ownerID)
	if err != nil {
		c.logger.Warn("reading search settings failed", "owner", ownerID, "error", err)
	} else if settings != nil && len(settings.AllowedExtensions) > 0 {
		exts = settings.AllowedExtensions
	}

	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return allowed
}

// sizeCeiling returns the per-format maximum size eligible for content
// indexing. Document formats carry a higher ceiling than plain text.
func (c *Crawler) sizeCeiling(ext string) int64 {
	switch ext {
	case ".pdf", ".docx":
		return c.opts.MaxDocSizeBytes
	default:
		return c.opts.MaxFileSizeBytes
	}
}
