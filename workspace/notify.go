package workspace

import (
	"sync"

	"go.uber.org/zap"
)

// Variant selects how a notice is presented.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notice is a user-facing notification.
type Notice struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

// Notifier receives notices. Implementations must not block.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Notices emitted by the controllers.
var (
	NoticeNoFile = Notice{
		Title:       "No file selected",
		Description: "Please choose a document to upload",
		Variant:     VariantDestructive,
	}
	NoticeMultipleFiles = Notice{
		Title:       "Multiple files detected",
		Description: "Please upload one file at a time",
		Variant:     VariantDestructive,
	}
	NoticeFileTooLarge = Notice{
		Title:       "File too large",
		Description: "Please upload a file smaller than 10MB",
		Variant:     VariantDestructive,
	}
	NoticeUnsupportedFormat = Notice{
		Title:       "Unsupported file format",
		Description: "Please upload a PDF, PNG, JPG, TXT, or MD file",
		Variant:     VariantDestructive,
	}
	NoticeServiceUnavailable = Notice{
		Title:       "AI models temporarily unavailable",
		Description: "Please try again in a few moments",
		Variant:     VariantDestructive,
	}
	NoticeProcessingFailed = Notice{
		Title:       "File processing failed",
		Description: "File format not supported or no text found",
		Variant:     VariantDestructive,
	}
	NoticeNoSession = Notice{
		Title:       "No active session",
		Description: "Please upload a document first",
		Variant:     VariantDestructive,
	}
	NoticeSessionExpired = Notice{
		Title:       "Session expired",
		Description: "Please upload your document again",
		Variant:     VariantDestructive,
	}
	NoticeUploadInProgress = Notice{
		Title:       "Upload in progress",
		Description: "Please wait for the current document to finish processing",
		Variant:     VariantDestructive,
	}
	NoticeRateLimited = Notice{
		Title:       "Too many requests",
		Description: "Please wait a moment before trying again",
		Variant:     VariantDestructive,
	}
)

func uploadFailedNotice(detail string) Notice {
	return Notice{Title: "Upload failed", Description: detail, Variant: VariantDestructive}
}

func queryFailedNotice(detail string) Notice {
	return Notice{Title: "Query failed", Description: detail, Variant: VariantDestructive}
}

// maxQueuedNotices bounds a queue nobody drains.
const maxQueuedNotices = 32

// NoticeQueue buffers notices until a view drains them.
type NoticeQueue struct {
	mu      sync.Mutex
	pending []Notice
}

func NewNoticeQueue() *NoticeQueue {
	return &NoticeQueue{}
}

func (q *NoticeQueue) Notify(n Notice) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, n)
	if len(q.pending) > maxQueuedNotices {
		q.pending = q.pending[len(q.pending)-maxQueuedNotices:]
	}
}

// Drain returns the queued notices in arrival order and empties the queue.
func (q *NoticeQueue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.pending
	q.pending = nil
	return out
}

// LogNotifier logs every notice before forwarding it.
type LogNotifier struct {
	next   Notifier
	logger *zap.Logger
	fields []zap.Field
}

func NewLogNotifier(next Notifier, logger *zap.Logger, fields ...zap.Field) *LogNotifier {
	return &LogNotifier{next: next, logger: logger, fields: fields}
}

func (l *LogNotifier) Notify(n Notice) {
	fields := append([]zap.Field{
		zap.String("title", n.Title),
		zap.String("description", n.Description),
	}, l.fields...)

	if n.Variant == VariantDestructive {
		l.logger.Warn("Notice", fields...)
	} else {
		l.logger.Info("Notice", fields...)
	}

	if l.next != nil {
		l.next.Notify(n)
	}
}
