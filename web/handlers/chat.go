package handlers

import (
	"context"
	"net/http"

	"docchat/config"
	"docchat/web/services"
	"docchat/web/views"
	"docchat/workspace"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler serves the server-rendered page. Every form posts and
// redirects back to the index; the index refreshes itself while an upload
// or a question is outstanding.
type ChatHandler struct {
	workspaces *services.WorkspaceService
	uploads    *services.UploadService
	config     *config.Config
	logger     *zap.Logger
}

func NewChatHandler(workspaces *services.WorkspaceService, uploads *services.UploadService, cfg *config.Config, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		workspaces: workspaces,
		uploads:    uploads,
		config:     cfg,
		logger:     logger,
	}
}

func (h *ChatHandler) Index(c *gin.Context) {
	entry, ok := workspaceFor(c, h.workspaces, h.logger)
	if !ok {
		return
	}

	page := views.NewPage(h.config.UserName, entry.Workspace.Snapshot(), entry.Notices.Drain(), h.config.MaxUploadBytes, nil)

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	if err := views.Render(c.Writer, page); err != nil {
		h.logger.Error("Failed to render page", zap.Error(err))
	}
}

func (h *ChatHandler) Upload(c *gin.Context) {
	entry, ok := workspaceFor(c, h.workspaces, h.logger)
	if !ok {
		return
	}
	defer c.Redirect(http.StatusSeeOther, "/")

	if entry.Workspace.Uploading() {
		entry.Workspace.Notify(workspace.NoticeUploadInProgress)
		return
	}

	docs, err := postedDocuments(c, h.uploads)
	if err != nil {
		h.logger.Warn("Failed to read upload form", zap.Error(err))
		entry.Workspace.Notify(noticeUnreadableUpload)
		return
	}

	// The upload outlives this request; closing the workspace cancels it.
	entry.Workspace.SubmitAsync(context.WithoutCancel(c.Request.Context()), docs)
}

func (h *ChatHandler) Ask(c *gin.Context) {
	entry, ok := workspaceFor(c, h.workspaces, h.logger)
	if !ok {
		return
	}

	entry.Workspace.AskAsync(context.WithoutCancel(c.Request.Context()), c.PostForm("question"))
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *ChatHandler) NewDocument(c *gin.Context) {
	entry, ok := workspaceFor(c, h.workspaces, h.logger)
	if !ok {
		return
	}

	entry.Workspace.NewDocument()
	c.Redirect(http.StatusSeeOther, "/")
}

// RateLimited leaves a notice for a form post the rate limiter refused and
// sends the browser back to the page.
func (h *ChatHandler) RateLimited(c *gin.Context) {
	entry, ok := workspaceFor(c, h.workspaces, h.logger)
	if !ok {
		return
	}

	entry.Workspace.Notify(workspace.NoticeRateLimited)
	c.Redirect(http.StatusSeeOther, "/")
}
