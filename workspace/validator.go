package workspace

import (
	"fmt"
	"mime"
	"strings"
)

// DefaultMaxUploadBytes is the 10 MiB upload ceiling.
const DefaultMaxUploadBytes int64 = 10 * 1024 * 1024

// SupportedSuffixes is the file-picker accept list.
var SupportedSuffixes = []string{".pdf", ".png", ".jpg", ".jpeg", ".txt", ".md"}

var supportedTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"text/plain":      true,
	"text/markdown":   true,
}

// Result is the outcome of validating a drop or selection.
type Result struct {
	Accepted bool
	Reason   Notice
}

// Validator checks candidate files before any network call.
type Validator struct {
	MaxBytes int64
}

func NewValidator(maxBytes int64) *Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Validator{MaxBytes: maxBytes}
}

// Validate accepts exactly one file under the size ceiling whose media type
// is supported, or whose name ends in .md.
func (v *Validator) Validate(docs []Document) Result {
	switch {
	case len(docs) == 0:
		return reject(NoticeNoFile)
	case len(docs) > 1:
		return reject(NoticeMultipleFiles)
	}

	doc := docs[0]
	if doc.Size >= v.MaxBytes {
		n := NoticeFileTooLarge
		n.Description = fmt.Sprintf("Please upload a file smaller than %s", formatSize(v.MaxBytes))
		return reject(n)
	}
	if !supportedTypes[baseMediaType(doc.ContentType)] && !hasMarkdownSuffix(doc.Name) {
		return reject(NoticeUnsupportedFormat)
	}
	return Result{Accepted: true}
}

func reject(n Notice) Result {
	return Result{Accepted: false, Reason: n}
}

// baseMediaType drops parameters such as "; charset=utf-8".
func baseMediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

func hasMarkdownSuffix(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".md")
}

func formatSize(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%.1fMB", float64(n)/mb)
}
