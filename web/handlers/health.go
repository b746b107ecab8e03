package handlers

import (
	"net/http"

	"docchat/web/services"
	"docchat/web/types"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	workspaces *services.WorkspaceService
	backendURL string
}

func NewHealthHandler(workspaces *services.WorkspaceService, backendURL string) *HealthHandler {
	return &HealthHandler{workspaces: workspaces, backendURL: backendURL}
}

// Check reports liveness only; the remote service is not probed.
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, types.HealthResponse{
		Status:     "ok",
		Workspaces: h.workspaces.Len(),
		Backend:    h.backendURL,
	})
}
