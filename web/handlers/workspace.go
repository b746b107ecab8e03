package handlers

import (
	"errors"
	"net/http"

	apperrors "docchat/errors"
	"docchat/web/middleware"
	"docchat/web/services"
	"docchat/workspace"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// workspaceFor returns the calling browser's workspace, creating it on
// first use. It aborts the request when the session middleware did not run
// or when no workspace slot can be freed.
func workspaceFor(c *gin.Context, workspaces *services.WorkspaceService, logger *zap.Logger) (*services.Entry, bool) {
	browserID, ok := middleware.BrowserSession(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session not initialized"})
		return nil, false
	}

	entry, err := workspaces.Get(browserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCapacityReached) {
			c.Header("Retry-After", "30")
			respondWithError(c, http.StatusServiceUnavailable, err, "Too many active sessions. Please try again shortly.", logger)
		} else {
			respondWithError(c, http.StatusInternalServerError, err, "Failed to open workspace", logger)
		}
		c.Abort()
		return nil, false
	}
	entry.Workspace.Touch()
	return entry, true
}

// postedDocuments returns the files posted under "file". A request without
// a multipart body yields none, which the validator reports as no selection.
func postedDocuments(c *gin.Context, uploads *services.UploadService) ([]workspace.Document, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, nil
		}
		return nil, err
	}
	return uploads.Documents(form.File["file"])
}

var noticeUnreadableUpload = workspace.Notice{
	Title:       "Upload failed",
	Description: "The uploaded file could not be read",
	Variant:     workspace.VariantDestructive,
}
