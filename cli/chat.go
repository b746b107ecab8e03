package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"docchat/workspace"

	"github.com/spf13/cobra"
)

// chatCmd is the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [file]",
	Short: "upload a document and ask questions interactively",
	Long: `Start an interactive session. When a file is given it is uploaded first;
otherwise use /upload <file>. Supported formats are PDF, PNG, JPG, TXT
and MD up to the configured size limit.

Commands:
  /upload <file>  replace the current document
  /new            forget the current document and conversation
  /quit           leave`,
	Example: `  $ docchat chat annual-report.pdf
  $ docchat chat --api-url http://localhost:7860`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		errorColor.Fprintf(cmd.ErrOrStderr(), "✗ %v\n", err)
		return err
	}
	defer s.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()
	printBanner(out, s.cfg.UserName, s.client.BaseURL())

	transcript := newTranscriptPrinter(out)
	if len(args) == 1 {
		uploadWithProgress(ctx, out, s.workspace, args[0], progressRedraw)
		transcript.PrintNew(s.workspace.Snapshot())
	}

	return runREPL(ctx, cmd.InOrStdin(), out, s.workspace, transcript, progressRedraw)
}

// runREPL reads commands and questions from in until EOF, /quit or ctx is
// done.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, ws *workspace.Workspace, transcript *transcriptPrinter, tick time.Duration) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, userColor.Sprint("You: "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/new":
			ws.NewDocument()
			transcript.Reset()
			infoColor.Fprintln(out, "Ready for a new document. Use /upload <file>.")
		case strings.HasPrefix(line, "/upload"):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/upload"))
			if path == "" {
				ws.Notify(workspace.NoticeNoFile)
				continue
			}
			transcript.Reset()
			uploadWithProgress(ctx, out, ws, path, tick)
			transcript.PrintNew(ws.Snapshot())
		default:
			ws.Ask(ctx, line)
			transcript.PrintNew(ws.Snapshot())
		}
	}
}
