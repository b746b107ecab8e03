package services

import (
	"fmt"
	"sync"
	"time"

	apperrors "docchat/errors"
	"docchat/workspace"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// Entry is one browser's workspace and the notices waiting to be shown.
type Entry struct {
	Workspace *workspace.Workspace
	Notices   *workspace.NoticeQueue
}

// WorkspaceService keeps a bounded set of in-memory workspaces keyed by
// browser session. Nothing is persisted: an evicted workspace is closed and
// its document session is forgotten.
type WorkspaceService struct {
	backend       workspace.Backend
	opts          workspace.Options
	maxWorkspaces int
	logger        *zap.Logger

	// mu serialises get-or-create so one browser never gets two workspaces.
	mu    sync.Mutex
	cache *lru.Cache
}

func NewWorkspaceService(backend workspace.Backend, opts workspace.Options, maxWorkspaces int, logger *zap.Logger) (*WorkspaceService, error) {
	ws := &WorkspaceService{
		backend:       backend,
		opts:          opts,
		maxWorkspaces: maxWorkspaces,
		logger:        logger,
	}

	cache, err := lru.NewWithEvict(maxWorkspaces, ws.onEvict)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace cache: %w", err)
	}
	ws.cache = cache
	return ws, nil
}

func (ws *WorkspaceService) onEvict(key, value interface{}) {
	entry, ok := value.(*Entry)
	if !ok {
		return
	}
	entry.Workspace.Close()
	ws.logger.Debug("Workspace evicted", zap.Any("browser_session", key))
}

// Get returns the workspace for browserID, creating it on first use. When
// the store is full the least recent idle workspace makes room; if every
// workspace is busy, Get fails with ErrCapacityReached.
func (ws *WorkspaceService) Get(browserID uuid.UUID) (*Entry, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if value, ok := ws.cache.Get(browserID); ok {
		return value.(*Entry), nil
	}

	if ws.cache.Len() >= ws.maxWorkspaces && !ws.evictOldestIdleLocked() {
		ws.logger.Warn("All workspaces busy, refusing new browser session",
			zap.String("browser_session", browserID.String()),
			zap.Int("workspaces", ws.cache.Len()))
		return nil, apperrors.WrapErrorf(apperrors.ErrCapacityReached, "browser session %s", browserID)
	}

	notices := workspace.NewNoticeQueue()
	logger := ws.logger.With(zap.String("browser_session", browserID.String()))
	entry := &Entry{
		Workspace: workspace.New(ws.backend, workspace.NewLogNotifier(notices, logger), ws.opts, logger),
		Notices:   notices,
	}
	ws.cache.Add(browserID, entry)

	ws.logger.Debug("Workspace created",
		zap.String("browser_session", browserID.String()),
		zap.Int("workspaces", ws.cache.Len()))
	return entry, nil
}

// evictOldestIdleLocked removes the least recently used workspace that has
// nothing in flight. Callers hold mu.
func (ws *WorkspaceService) evictOldestIdleLocked() bool {
	for _, key := range ws.cache.Keys() {
		entry, ok := ws.peek(key)
		if !ok || entry.busy() {
			continue
		}
		return ws.cache.Remove(key)
	}
	return false
}

func (ws *WorkspaceService) peek(key interface{}) (*Entry, bool) {
	value, ok := ws.cache.Peek(key)
	if !ok {
		return nil, false
	}
	return value.(*Entry), true
}

func (e *Entry) busy() bool {
	snap := e.Workspace.Snapshot()
	return snap.Phase == workspace.PhaseUploading || snap.Awaiting
}

// EvictIdle removes workspaces idle for at least maxIdle with nothing in
// flight. Returns the number removed.
func (ws *WorkspaceService) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	ws.mu.Lock()
	defer ws.mu.Unlock()

	removed := 0
	for _, key := range ws.cache.Keys() {
		entry, ok := ws.peek(key)
		if !ok || entry.busy() || entry.Workspace.LastActive().After(cutoff) {
			continue
		}
		if ws.cache.Remove(key) {
			removed++
		}
	}
	return removed
}

// Len returns the number of live workspaces.
func (ws *WorkspaceService) Len() int {
	return ws.cache.Len()
}

// Close closes every workspace.
func (ws *WorkspaceService) Close() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.cache.Purge()
}
