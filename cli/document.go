package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"docchat/utils"
	"docchat/workspace"

	"github.com/gabriel-vasile/mimetype"
)

// loadDocument describes a local file for upload. The media type is
// sniffed from content, the way a browser would declare it.
func loadDocument(path string) (workspace.Document, error) {
	if !utils.IsRegularFile(path) {
		return workspace.Document{}, fmt.Errorf("%s is not a readable file", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return workspace.Document{}, fmt.Errorf("stat %s: %w", path, err)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return workspace.Document{}, fmt.Errorf("detect type of %s: %w", path, err)
	}

	return workspace.Document{
		Name:        filepath.Base(path),
		ContentType: mtype.String(),
		Size:        info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// uploadWithProgress submits path and redraws a progress line until the
// upload settles. It reports whether a session is live afterwards.
func uploadWithProgress(ctx context.Context, out io.Writer, ws *workspace.Workspace, path string, tick time.Duration) bool {
	doc, err := loadDocument(path)
	if err != nil {
		ws.Notify(workspace.Notice{
			Title:       "Upload failed",
			Description: err.Error(),
			Variant:     workspace.VariantDestructive,
		})
		return false
	}

	done := ws.SubmitAsync(ctx, []workspace.Document{doc})

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	drawn := false
	for {
		select {
		case <-done:
			if drawn {
				fmt.Fprint(out, "\r\033[K")
			}
			return ws.DocumentAccepted()
		case <-ticker.C:
			snap := ws.Snapshot()
			if snap.Phase != workspace.PhaseUploading && snap.Progress < 100 {
				continue
			}
			infoColor.Fprintf(out, "\rProcessing %s... %3d%%", doc.Name, snap.Progress)
			drawn = true
		}
	}
}
