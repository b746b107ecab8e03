package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"docchat/workspace"

	"github.com/spf13/cobra"
)

var (
	errNotAccepted = errors.New("document was not accepted")
	errNoAnswer    = errors.New("no answer received")
)

// askCmd uploads a document and asks a single question.
var askCmd = &cobra.Command{
	Use:   "ask <file> <question>",
	Short: "upload a document and ask one question",
	Example: `  $ docchat ask contract.pdf "When does the agreement end?"
  $ docchat ask notes.md What are the action items`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			errorColor.Fprintf(cmd.ErrOrStderr(), "✗ %v\n", err)
			return err
		}
		defer s.Close()

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return runAsk(ctx, cmd.OutOrStdout(), s.workspace, args[0], strings.Join(args[1:], " "), progressRedraw)
	},
}

// runAsk prints only the answer, not the welcome message.
func runAsk(ctx context.Context, out io.Writer, ws *workspace.Workspace, path, question string, tick time.Duration) error {
	if !uploadWithProgress(ctx, out, ws, path, tick) {
		return errNotAccepted
	}

	transcript := newTranscriptPrinter(io.Discard)
	transcript.PrintNew(ws.Snapshot())
	transcript.out = out

	before := len(ws.Snapshot().Messages)
	ws.Ask(ctx, question)

	snap := ws.Snapshot()
	if len(snap.Messages) < before+2 {
		return errNoAnswer
	}
	transcript.PrintNew(snap)
	return nil
}
