package qaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	apperrors "docchat/errors"

	"go.uber.org/zap"
)

const (
	endpointUpload = "/upload"
	endpointQuery  = "/query/%s"

	// maxErrorBody caps how much of a failed response is kept for the notice text.
	maxErrorBody = 512
)

// UploadResponse is the service's answer to a successful document upload.
type UploadResponse struct {
	SessionID     string `json:"session_id"`
	Filename      string `json:"filename,omitempty"`
	ChunksCreated *int   `json:"chunks_created,omitempty"`
}

// QueryResponse is the service's answer to a question.
type QueryResponse struct {
	Answer  string `json:"answer"`
	Context string `json:"context,omitempty"`
}

type queryRequest struct {
	Question string `json:"question"`
}

// Client talks to the question-answering service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client for baseURL. A zero timeout leaves requests unbounded
// apart from ctx.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    normalized,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// BaseURL returns the normalized service origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// normalizeBaseURL ensures a scheme and strips the trailing slash. Unlike a
// bare origin, a path prefix is kept so the service can live under a subpath.
func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("cannot parse %q", raw)
	}

	return fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, strings.TrimRight(u.Path, "/")), nil
}

// Upload posts a single document as multipart field "file".
func (c *Client) Upload(ctx context.Context, filename, contentType string, content io.Reader) (*UploadResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to copy file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpointUpload, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug("Uploading document",
		zap.String("filename", filename),
		zap.String("content_type", contentType),
		zap.Int("body_bytes", body.Len()))

	var result UploadResponse
	if err := c.do(req, apperrors.OpUpload, &result); err != nil {
		return nil, err
	}
	if result.SessionID == "" {
		return nil, apperrors.WrapError(apperrors.ErrMalformedResponse, "upload response has no session_id")
	}

	c.logger.Info("Document accepted by service",
		zap.String("session_id", result.SessionID),
		zap.String("filename", result.Filename))

	return &result, nil
}

// Query asks question against the document bound to sessionID.
func (c *Client) Query(ctx context.Context, sessionID, question string) (*QueryResponse, error) {
	payload, err := json.Marshal(queryRequest{Question: question})
	if err != nil {
		return nil, fmt.Errorf("marshal query request: %w", err)
	}

	endpoint := c.baseURL + fmt.Sprintf(endpointQuery, url.PathEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result QueryResponse
	if err := c.do(req, apperrors.OpQuery, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do sends req and decodes a 2xx JSON body into out. Non-2xx responses
// become *errors.APIError so callers can classify on the status code.
func (c *Client) do(req *http.Request, op string, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &apperrors.APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       extractDetail(snippet),
		}
		c.logger.Warn("Service returned error status",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", apiErr.Body))
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.WrapErrorf(apperrors.ErrMalformedResponse, "decode %s response: %v", op, err)
	}
	return nil
}

// extractDetail pulls a FastAPI-style {"detail": "..."} message out of an
// error body, falling back to the raw text.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail interface{} `json:"detail"`
		Error  string      `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if s, ok := parsed.Detail.(string); ok && s != "" {
			return s
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return strings.TrimSpace(string(body))
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}
