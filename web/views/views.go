// Package views renders the single-page HTML front end: the upload view
// before a document is accepted, the chat view after, and the suggested
// prompts and privacy notes around them.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"docchat/web/format"
	"docchat/workspace"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").ParseFS(templateFS, "templates/*.html"))

// Prompt is a canned question offered before and after upload.
type Prompt struct {
	Title       string
	Description string
	Question    string
}

// SuggestedPrompts are shown under the upload form.
var SuggestedPrompts = []Prompt{
	{
		Title:       "Upload a PDF document for analysis",
		Description: "Get started by uploading your document",
		Question:    "What can you tell me about this document?",
	},
	{
		Title:       "Ask about document privacy and security",
		Description: "Learn about our privacy-first approach",
		Question:    "How is my document data protected and processed?",
	},
	{
		Title:       "How does AI understand my documents?",
		Description: "Understand our AI processing capabilities",
		Question:    "Explain how you analyze and understand document content",
	},
	{
		Title:       "Explain the ephemeral processing system",
		Description: "Learn about temporary data handling",
		Question:    "How does the ephemeral memory system work?",
	},
}

// Formats is the supported formats legend.
var Formats = []string{"PDF", "PNG", "JPG", "TXT", "MD"}

// Message is a transcript entry ready for the template.
type Message struct {
	User    bool
	Text    string
	HTML    template.HTML
	Context string
	Time    string
}

// Page is everything the index template needs.
type Page struct {
	UserName     string
	Uploaded     bool
	Accepted     bool
	Uploading    bool
	Progress     int
	Awaiting     bool
	Messages     []Message
	Notices      []workspace.Notice
	Prompts      []Prompt
	Formats      []string
	Accept       string
	MaxSizeLabel string
	Refresh      bool
}

// EmptyHint is shown in place of an empty transcript.
func (p Page) EmptyHint() string {
	if !p.Accepted {
		return "Upload a document to start asking questions"
	}
	return "Start by asking a question about your document"
}

// NewPage builds the view model for a workspace snapshot.
func NewPage(userName string, snap workspace.Snapshot, notices []workspace.Notice, maxBytes int64, loc *time.Location) Page {
	if loc == nil {
		loc = time.Local
	}

	messages := make([]Message, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		msg := Message{
			User:    m.Role == workspace.RoleUser,
			Text:    m.Text,
			Context: m.Context,
			Time:    m.CreatedAt.In(loc).Format(time.Kitchen),
		}
		if !msg.User {
			msg.HTML = format.RenderMarkdown(m.Text)
		}
		messages = append(messages, msg)
	}

	uploading := snap.Phase == workspace.PhaseUploading
	return Page{
		UserName:     userName,
		Uploaded:     snap.Uploaded,
		Accepted:     snap.SessionID != "",
		Uploading:    uploading,
		Progress:     snap.Progress,
		Awaiting:     snap.Awaiting,
		Messages:     messages,
		Notices:      notices,
		Prompts:      SuggestedPrompts,
		Formats:      Formats,
		Accept:       strings.Join(workspace.SupportedSuffixes, ","),
		MaxSizeLabel: sizeLabel(maxBytes),
		Refresh:      uploading || snap.Awaiting,
	}
}

// Render writes the index page.
func Render(w io.Writer, page Page) error {
	return pageTemplate.Execute(w, page)
}

func sizeLabel(n int64) string {
	const mb = 1024 * 1024
	if n <= 0 {
		n = workspace.DefaultMaxUploadBytes
	}
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%.1fMB", float64(n)/mb)
}
