package types

import "docchat/workspace"

// StateResponse is the JSON shape of a workspace and its pending notices.
type StateResponse struct {
	Accepted bool               `json:"accepted"`
	State    workspace.Snapshot `json:"state"`
	Notices  []workspace.Notice `json:"notices"`
}

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question" form:"question"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status     string `json:"status"`
	Workspaces int    `json:"workspaces"`
	Backend    string `json:"backend"`
}
