package workspace

import (
	"context"
	"strings"
	"time"

	apperrors "docchat/errors"
	"docchat/utils"

	"go.uber.org/zap"
)

// Ask sends question to the live session. The user message is appended
// before the call is made; the answer, if any, follows it. Blank questions
// are ignored. Without a session only a notice is emitted.
func (w *Workspace) Ask(ctx context.Context, question string) {
	<-w.AskAsync(ctx, question)
}

// AskAsync is Ask without waiting for the answer. The user message is in
// the transcript when it returns; the channel is closed once the exchange
// has settled.
func (w *Workspace) AskAsync(ctx context.Context, question string) <-chan struct{} {
	done := make(chan struct{})

	sessionID, question, gen, ok := w.beginQuestion(question)
	if !ok {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		w.runQuestion(ctx, sessionID, question, gen)
	}()
	return done
}

func (w *Workspace) beginQuestion(question string) (sessionID, trimmed string, gen uint64, ok bool) {
	trimmed = strings.TrimSpace(question)
	if trimmed == "" {
		return "", "", 0, false
	}

	w.mu.Lock()
	if w.sessionID == "" {
		w.mu.Unlock()
		w.notifier.Notify(NoticeNoSession)
		return "", "", 0, false
	}
	sessionID = w.sessionID
	gen = w.sessionSeq
	w.messages = append(w.messages, ChatMessage{
		ID:        utils.GenerateMessageID(),
		Role:      RoleUser,
		Text:      trimmed,
		CreatedAt: time.Now(),
	})
	w.pending++
	w.lastActive = time.Now()
	w.mu.Unlock()

	return sessionID, trimmed, gen, true
}

func (w *Workspace) runQuestion(ctx context.Context, sessionID, question string, gen uint64) {
	callCtx, cancel := w.callContext(ctx)
	defer cancel()

	resp, err := w.backend.Query(callCtx, sessionID, question)

	w.mu.Lock()
	if w.sessionSeq != gen {
		// Session was replaced or reset while the call was in flight.
		w.mu.Unlock()
		w.logger.Debug("Discarding stale query result",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return
	}
	w.pending--

	if err == nil {
		w.messages = append(w.messages, ChatMessage{
			ID:        utils.GenerateMessageID(),
			Role:      RoleAssistant,
			Text:      resp.Answer,
			Context:   resp.Context,
			CreatedAt: time.Now(),
		})
		w.mu.Unlock()
		return
	}

	kind := apperrors.Classify(err)
	if kind == apperrors.KindSessionNotFound {
		w.expireSessionLocked()
	}
	w.mu.Unlock()

	w.logger.Warn("Query failed",
		zap.String("session_id", sessionID),
		zap.Stringer("kind", kind),
		zap.Error(err))

	if kind == apperrors.KindSessionNotFound {
		w.notifier.Notify(NoticeSessionExpired)
		return
	}
	w.notifier.Notify(queryFailedNotice(err.Error()))
}
