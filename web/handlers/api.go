package handlers

import (
	"net/http"
	"strings"

	"docchat/web/services"
	"docchat/web/types"
	"docchat/workspace"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIHandler exposes the workspace operations as JSON. Unlike the page
// handlers, upload and ask block until the service has answered.
type APIHandler struct {
	workspaces *services.WorkspaceService
	uploads    *services.UploadService
	logger     *zap.Logger
}

func NewAPIHandler(workspaces *services.WorkspaceService, uploads *services.UploadService, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		workspaces: workspaces,
		uploads:    uploads,
		logger:     logger,
	}
}

func (h *APIHandler) State(c *gin.Context) {
	entry, ok := workspaceFor(c, h.workspaces, h.logger)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, stateResponse(entry))
}

func (h *APIHandler) Upload(c *gin.Context) {
	entry, ok := workspaceFor(c, h.workspaces, h.logger)
	if !ok {
		return
	}

	if entry.Workspace.Uploading() {
		respondWithClientError(c, http.StatusConflict, "An upload is already in progress")
		return
	}

	docs, err := postedDocuments(c, h.uploads)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, err, "Could not read the uploaded file", h.logger)
		return
	}

	entry.Workspace.Submit(c.Request.Context(), docs)
	c.JSON(http.StatusOK, stateResponse(entry))
}

func (h *APIHandler) Ask(c *gin.Context) {
	entry, ok := workspaceFor(c, h.workspaces, h.logger)
	if !ok {
		return
	}

	var req types.AskRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondWithClientError(c, http.StatusBadRequest, "Question cannot be empty")
		return
	}

	entry.Workspace.Ask(c.Request.Context(), req.Question)
	c.JSON(http.StatusOK, stateResponse(entry))
}

func (h *APIHandler) NewDocument(c *gin.Context) {
	entry, ok := workspaceFor(c, h.workspaces, h.logger)
	if !ok {
		return
	}

	entry.Workspace.NewDocument()
	c.JSON(http.StatusOK, stateResponse(entry))
}

func stateResponse(entry *services.Entry) types.StateResponse {
	notices := entry.Notices.Drain()
	if notices == nil {
		notices = []workspace.Notice{}
	}
	snap := entry.Workspace.Snapshot()
	return types.StateResponse{
		Accepted: snap.SessionID != "",
		State:    snap,
		Notices:  notices,
	}
}
