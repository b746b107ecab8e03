package workspace

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "docchat/errors"
	"docchat/qaclient"
	"docchat/utils"

	"go.uber.org/zap"
)

// Submit validates docs and, if exactly one acceptable document is given,
// uploads it and opens a new session. It blocks until the upload settles;
// the outcome is observable through Snapshot and the notifier.
func (w *Workspace) Submit(ctx context.Context, docs []Document) {
	<-w.SubmitAsync(ctx, docs)
}

// SubmitAsync is Submit without waiting for the service. Validation happens
// before it returns, and so does the switch to PhaseUploading; the returned
// channel is closed once the upload has settled.
func (w *Workspace) SubmitAsync(ctx context.Context, docs []Document) <-chan struct{} {
	done := make(chan struct{})

	doc, gen, ok := w.beginUpload(docs)
	if !ok {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		w.runUpload(ctx, doc, gen)
	}()
	return done
}

// beginUpload validates docs and marks the workspace as uploading.
func (w *Workspace) beginUpload(docs []Document) (Document, uint64, bool) {
	result := w.validator.Validate(docs)
	if !result.Accepted {
		w.logger.Debug("Upload rejected by validator",
			zap.Int("files", len(docs)),
			zap.String("reason", result.Reason.Title))
		w.notifier.Notify(result.Reason)
		return Document{}, 0, false
	}
	doc := docs[0]

	if w.opts.Preflight != nil {
		if err := w.opts.Preflight(doc); err != nil {
			w.logger.Info("Upload rejected by preflight",
				zap.String("filename", doc.Name),
				zap.Error(err))
			w.notifier.Notify(NoticeProcessingFailed)
			return Document{}, 0, false
		}
	}

	w.mu.Lock()
	w.uploadSeq++
	gen := w.uploadSeq
	w.phase = PhaseUploading
	w.progress = 0
	w.lastActive = time.Now()
	w.mu.Unlock()

	return doc, gen, true
}

func (w *Workspace) runUpload(ctx context.Context, doc Document, gen uint64) {
	ticker := w.startProgress(gen)

	callCtx, cancel := w.callContext(ctx)
	defer cancel()

	start := time.Now()
	resp, err := w.upload(callCtx, doc)
	ticker.Stop()

	if err != nil {
		w.failUpload(gen, doc, err)
		return
	}

	w.logger.Info("Document uploaded",
		zap.String("filename", doc.Name),
		zap.String("session_id", resp.SessionID),
		zap.Duration("elapsed", time.Since(start)))

	w.mu.Lock()
	if w.uploadSeq != gen {
		w.mu.Unlock()
		w.logger.Debug("Discarding stale upload result", zap.String("session_id", resp.SessionID))
		return
	}
	w.progress = 100
	w.mu.Unlock()

	if w.opts.SettleDelay > 0 {
		timer := time.NewTimer(w.opts.SettleDelay)
		select {
		case <-timer.C:
		case <-callCtx.Done():
			timer.Stop()
			w.mu.Lock()
			if w.uploadSeq == gen {
				w.phase = PhaseIdle
				w.progress = 0
			}
			w.mu.Unlock()
			return
		}
	}

	w.mu.Lock()
	if w.uploadSeq != gen {
		w.mu.Unlock()
		return
	}
	w.sessionSeq++
	w.sessionID = resp.SessionID
	w.uploaded = true
	w.phase = PhaseDone
	w.pending = 0
	w.messages = []ChatMessage{{
		ID:        utils.GenerateMessageID(),
		Role:      RoleAssistant,
		Text:      welcomeText(resp, doc.Name),
		CreatedAt: time.Now(),
	}}
	w.mu.Unlock()

	w.notifier.Notify(Notice{
		Title:       "Document processed successfully!",
		Description: fmt.Sprintf("%s chunks created and indexed", chunkLabel(resp.ChunksCreated)),
		Variant:     VariantDefault,
	})
}

func (w *Workspace) upload(ctx context.Context, doc Document) (*qaclient.UploadResponse, error) {
	rc, err := doc.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", doc.Name, err)
	}
	defer rc.Close()

	return w.backend.Upload(ctx, doc.Name, doc.ContentType, rc)
}

// failUpload resets the upload state and reports err by category.
func (w *Workspace) failUpload(gen uint64, doc Document, err error) {
	w.mu.Lock()
	stale := w.uploadSeq != gen
	if !stale {
		w.phase = PhaseIdle
		w.progress = 0
	}
	w.mu.Unlock()

	kind := apperrors.Classify(err)
	w.logger.Warn("Upload failed",
		zap.String("filename", doc.Name),
		zap.Stringer("kind", kind),
		zap.Bool("stale", stale),
		zap.Error(err))
	if stale {
		return
	}

	switch kind {
	case apperrors.KindTransient:
		w.notifier.Notify(NoticeServiceUnavailable)
	case apperrors.KindBadInput:
		w.notifier.Notify(NoticeProcessingFailed)
	default:
		w.notifier.Notify(uploadFailedNotice(err.Error()))
	}
}

// welcomeText greets the user once a document is indexed. The server's
// filename wins over the local one; the chunk clause needs a positive count.
func welcomeText(resp *qaclient.UploadResponse, localName string) string {
	name := strings.TrimSpace(resp.Filename)
	if name == "" {
		name = localName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Great! I've successfully processed your document %q. ", name)
	if resp.ChunksCreated != nil && *resp.ChunksCreated > 0 {
		fmt.Fprintf(&b, "Created %d chunks for analysis. ", *resp.ChunksCreated)
	}
	b.WriteString("What would you like to know about it?")
	return b.String()
}

func chunkLabel(chunks *int) string {
	if chunks == nil || *chunks <= 0 {
		return "Multiple"
	}
	return fmt.Sprintf("%d", *chunks)
}
