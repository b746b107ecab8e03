package web

import (
	"context"
	"time"

	"docchat/config"
	"docchat/web/services"

	"go.uber.org/zap"
)

// CleanupService forgets workspaces whose browser has gone quiet, so a
// document session does not outlive the tab that opened it by much.
type CleanupService struct {
	workspaces *services.WorkspaceService
	logger     *zap.Logger
}

// NewCleanupService creates a new cleanup service instance
func NewCleanupService(workspaces *services.WorkspaceService, logger *zap.Logger) *CleanupService {
	return &CleanupService{
		workspaces: workspaces,
		logger:     logger,
	}
}

// CleanupIdleWorkspaces evicts workspaces idle for longer than maxIdle and
// returns how many were removed.
func (cs *CleanupService) CleanupIdleWorkspaces(maxIdle time.Duration) int {
	cs.logger.Debug("Starting idle workspace cleanup", zap.Duration("max_idle", maxIdle))

	removed := cs.workspaces.EvictIdle(maxIdle)
	if removed == 0 {
		cs.logger.Debug("No idle workspaces found")
		return 0
	}

	cs.logger.Info("Idle workspace cleanup completed",
		zap.Int("workspaces_removed", removed),
		zap.Int("workspaces_remaining", cs.workspaces.Len()))
	return removed
}

// StartWorkspaceCleanup runs CleanupIdleWorkspaces on the configured
// interval until ctx is done.
func StartWorkspaceCleanup(ctx context.Context, cfg *config.Config, cs *CleanupService, logger *zap.Logger) {
	if !cfg.CleanupEnabled {
		logger.Info("Workspace cleanup disabled")
		return
	}

	interval := cfg.CleanupInterval()
	maxIdle := cfg.WorkspaceIdleTimeout()
	if interval <= 0 {
		logger.Warn("Workspace cleanup disabled: interval must be positive", zap.Duration("interval", interval))
		return
	}
	logger.Info("Workspace cleanup enabled",
		zap.Duration("interval", interval),
		zap.Duration("idle_timeout", maxIdle))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cs.CleanupIdleWorkspaces(maxIdle)
		case <-ctx.Done():
			return
		}
	}
}
