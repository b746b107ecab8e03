package workspace

import (
	"context"
	"io"
	"time"

	"docchat/qaclient"
)

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one immutable transcript entry.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Context   string    `json:"context,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Phase is the upload lifecycle stage.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseUploading Phase = "uploading"
	PhaseDone      Phase = "done"
)

// Snapshot is a point-in-time copy of a workspace for rendering.
type Snapshot struct {
	SessionID string        `json:"session_id,omitempty"`
	Uploaded  bool          `json:"uploaded"`
	Phase     Phase         `json:"phase"`
	Progress  int           `json:"progress"`
	Awaiting  bool          `json:"awaiting"`
	Messages  []ChatMessage `json:"messages"`
}

// Document is a candidate file for upload. Open is only called after
// validation succeeds: once by the preflight check, if one is configured,
// and once for the upload itself. Each call must return a fresh reader.
type Document struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Backend is the question-answering service as seen by a workspace.
type Backend interface {
	Upload(ctx context.Context, filename, contentType string, content io.Reader) (*qaclient.UploadResponse, error)
	Query(ctx context.Context, sessionID, question string) (*qaclient.QueryResponse, error)
}
