// Package workspace holds the upload, session and chat lifecycle for one
// user: at most one document session at a time, its transcript, and the
// simulated upload progress shown while the service indexes a document.
//
// All failures are turned into notices; nothing is returned to the caller
// as an error.
package workspace

import (
	"context"
	"sync"
	"time"

	"docchat/config"

	"go.uber.org/zap"
)

// Options tunes the controllers.
type Options struct {
	MaxUploadBytes int64
	ProgressTick   time.Duration
	ProgressStep   int
	ProgressCap    int
	SettleDelay    time.Duration
	Preflight      Preflight
}

// DefaultOptions mirrors the stock client behaviour.
func DefaultOptions() Options {
	return Options{
		MaxUploadBytes: DefaultMaxUploadBytes,
		ProgressTick:   200 * time.Millisecond,
		ProgressStep:   10,
		ProgressCap:    90,
		SettleDelay:    500 * time.Millisecond,
	}
}

// OptionsFromConfig builds Options from application config.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		ProgressTick:   cfg.ProgressTick(),
		ProgressStep:   cfg.ProgressStep,
		ProgressCap:    cfg.ProgressCap,
		SettleDelay:    cfg.SettleDelay(),
	}
	if cfg.PDFPreflight {
		opts.Preflight = PDFPreflight
	}
	return opts
}

// Workspace owns one user's session, transcript and upload state.
type Workspace struct {
	backend   Backend
	notifier  Notifier
	validator *Validator
	opts      Options
	logger    *zap.Logger

	// lifetime is cancelled by Close and aborts in-flight calls.
	lifetime context.Context
	cancel   context.CancelFunc

	mu         sync.Mutex
	sessionID  string
	uploaded   bool
	phase      Phase
	progress   int
	pending    int
	messages   []ChatMessage
	lastActive time.Time

	// uploadSeq identifies the current submission; sessionSeq the current
	// session. Results carrying an older value are discarded.
	uploadSeq  uint64
	sessionSeq uint64
}

func New(backend Backend, notifier Notifier, opts Options, logger *zap.Logger) *Workspace {
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ProgressTick <= 0 {
		opts.ProgressTick = DefaultOptions().ProgressTick
	}
	if opts.ProgressStep <= 0 {
		opts.ProgressStep = DefaultOptions().ProgressStep
	}
	if opts.ProgressCap <= 0 || opts.ProgressCap > 100 {
		opts.ProgressCap = DefaultOptions().ProgressCap
	}

	lifetime, cancel := context.WithCancel(context.Background())
	return &Workspace{
		backend:    backend,
		notifier:   notifier,
		validator:  NewValidator(opts.MaxUploadBytes),
		opts:       opts,
		logger:     logger,
		lifetime:   lifetime,
		cancel:     cancel,
		phase:      PhaseIdle,
		lastActive: time.Now(),
	}
}

// Notify forwards n to the workspace's notifier.
func (w *Workspace) Notify(n Notice) {
	w.notifier.Notify(n)
}

// Snapshot returns a copy of the current state.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	messages := make([]ChatMessage, len(w.messages))
	copy(messages, w.messages)

	return Snapshot{
		SessionID: w.sessionID,
		Uploaded:  w.uploaded,
		Phase:     w.phase,
		Progress:  w.progress,
		Awaiting:  w.pending > 0,
		Messages:  messages,
	}
}

// DocumentAccepted reports whether a session is live.
func (w *Workspace) DocumentAccepted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sessionID != ""
}

// Uploading reports whether a submission is outstanding.
func (w *Workspace) Uploading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase == PhaseUploading
}

// NewDocument drops the session, transcript and upload state. Calls still
// in flight are discarded when they complete.
func (w *Workspace) NewDocument() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.resetLocked()
	w.lastActive = time.Now()
	w.logger.Debug("Workspace reset for new document")
}

// resetLocked returns to the initial state. Caller holds mu.
func (w *Workspace) resetLocked() {
	w.uploadSeq++
	w.sessionSeq++
	w.sessionID = ""
	w.uploaded = false
	w.phase = PhaseIdle
	w.progress = 0
	w.pending = 0
	w.messages = nil
}

// expireSessionLocked drops the session and its transcript together but
// leaves an upload in progress alone. Caller holds mu.
func (w *Workspace) expireSessionLocked() {
	w.sessionSeq++
	w.sessionID = ""
	w.uploaded = false
	w.pending = 0
	w.messages = nil
	if w.phase == PhaseDone {
		w.phase = PhaseIdle
		w.progress = 0
	}
}

// Touch records activity for idle eviction.
func (w *Workspace) Touch() {
	w.mu.Lock()
	w.lastActive = time.Now()
	w.mu.Unlock()
}

// LastActive returns the time of the last user action.
func (w *Workspace) LastActive() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastActive
}

// Close aborts in-flight calls. The workspace must not be used afterwards.
func (w *Workspace) Close() {
	w.cancel()
}

// callContext derives a context cancelled by either ctx or Close.
func (w *Workspace) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(w.lifetime, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
