package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"docchat/workspace"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	userColor    = color.New(color.FgGreen, color.Bold)
	botColor     = color.New(color.FgCyan, color.Bold)
	faintColor   = color.New(color.Faint)
)

// noticePrinter writes notices to a terminal as they arrive.
type noticePrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func newNoticePrinter(out io.Writer) *noticePrinter {
	return &noticePrinter{out: out}
}

func (p *noticePrinter) Notify(n workspace.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()

	text := n.Title
	if n.Description != "" {
		text += ": " + n.Description
	}

	if n.Variant == workspace.VariantDestructive {
		errorColor.Fprintf(p.out, "✗ %s\n", text)
		return
	}
	successColor.Fprintf(p.out, "✓ %s\n", text)
}

// transcriptPrinter prints messages it has not printed before.
type transcriptPrinter struct {
	out  io.Writer
	seen map[string]bool
}

func newTranscriptPrinter(out io.Writer) *transcriptPrinter {
	return &transcriptPrinter{out: out, seen: make(map[string]bool)}
}

// PrintNew prints the assistant messages of snap not yet shown. User
// messages are already on screen as typed.
func (t *transcriptPrinter) PrintNew(snap workspace.Snapshot) {
	for _, m := range snap.Messages {
		if t.seen[m.ID] {
			continue
		}
		t.seen[m.ID] = true
		if m.Role != workspace.RoleAssistant {
			continue
		}

		fmt.Fprint(t.out, botColor.Sprint("Assistant: "))
		fmt.Fprintln(t.out, strings.TrimSpace(m.Text))
		if m.Context != "" {
			faintColor.Fprintf(t.out, "Context: %s\n", strings.TrimSpace(m.Context))
		}
		fmt.Fprintln(t.out)
	}
}

// Reset forgets what has been printed, after the transcript was cleared.
func (t *transcriptPrinter) Reset() {
	t.seen = make(map[string]bool)
}

func printBanner(out io.Writer, userName, backend string) {
	successColor.Fprintf(out, "Hi there, %s\n", userName)
	fmt.Fprintf(out, "Backend: %s\n", infoColor.Sprint(backend))
	fmt.Fprintln(out, "Commands: /upload <file>, /new, /quit. Anything else is a question.")
	fmt.Fprintln(out)
}
