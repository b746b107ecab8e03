package workspace

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "docchat/errors"
	"docchat/qaclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	mu          sync.Mutex
	uploadCalls int
	queryCalls  int
	uploaded    []string
	questions   []string

	uploadFn func(ctx context.Context) (*qaclient.UploadResponse, error)
	queryFn  func(ctx context.Context, sessionID, question string) (*qaclient.QueryResponse, error)
}

func (f *fakeBackend) Upload(ctx context.Context, filename, contentType string, content io.Reader) (*qaclient.UploadResponse, error) {
	data, _ := io.ReadAll(content)

	f.mu.Lock()
	f.uploadCalls++
	f.uploaded = append(f.uploaded, filename+":"+string(data))
	fn := f.uploadFn
	f.mu.Unlock()

	if fn == nil {
		return &qaclient.UploadResponse{SessionID: "S1", Filename: filename}, nil
	}
	return fn(ctx)
}

func (f *fakeBackend) Query(ctx context.Context, sessionID, question string) (*qaclient.QueryResponse, error) {
	f.mu.Lock()
	f.queryCalls++
	f.questions = append(f.questions, sessionID+":"+question)
	fn := f.queryFn
	f.mu.Unlock()

	if fn == nil {
		return &qaclient.QueryResponse{Answer: "answer to " + question}, nil
	}
	return fn(ctx, sessionID, question)
}

func (f *fakeBackend) calls() (uploads, queries int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadCalls, f.queryCalls
}

type recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *recorder) all() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

func (r *recorder) last() Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}
	}
	return r.notices[len(r.notices)-1]
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.ProgressTick = time.Millisecond
	opts.SettleDelay = 0
	return opts
}

func newTestWorkspace(t *testing.T, backend *fakeBackend) (*Workspace, *recorder) {
	t.Helper()
	rec := &recorder{}
	ws := New(backend, rec, testOptions(), zap.NewNop())
	t.Cleanup(ws.Close)
	return ws, rec
}

func textDoc(name, contentType, body string) Document {
	return Document{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func intPtr(n int) *int { return &n }

func apiErr(op string, status int) error {
	return &apperrors.APIError{Op: op, StatusCode: status, Status: http.StatusText(status)}
}

func activate(t *testing.T, ws *Workspace) {
	t.Helper()
	ws.Submit(context.Background(), []Document{textDoc("doc.pdf", "application/pdf", "%PDF")})
	require.True(t, ws.DocumentAccepted())
}

func assertInitial(t *testing.T, snap Snapshot) {
	t.Helper()
	assert.Empty(t, snap.SessionID)
	assert.False(t, snap.Uploaded)
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Equal(t, 0, snap.Progress)
	assert.False(t, snap.Awaiting)
	assert.Empty(t, snap.Messages)
}

func TestSubmitRejectedMakesNoCall(t *testing.T) {
	backend := &fakeBackend{}
	ws, rec := newTestWorkspace(t, backend)

	ws.Submit(context.Background(), []Document{textDoc("virus.exe", "application/x-msdownload", "MZ")})

	uploads, _ := backend.calls()
	assert.Equal(t, 0, uploads)
	assert.Equal(t, NoticeUnsupportedFormat, rec.last())
	assertInitial(t, ws.Snapshot())
}

func TestSubmitMultipleFilesMakesNoCall(t *testing.T) {
	backend := &fakeBackend{}
	ws, rec := newTestWorkspace(t, backend)

	ws.Submit(context.Background(), []Document{
		textDoc("a.pdf", "application/pdf", "a"),
		textDoc("b.pdf", "application/pdf", "b"),
	})

	uploads, _ := backend.calls()
	assert.Equal(t, 0, uploads)
	assert.Equal(t, NoticeMultipleFiles, rec.last())
	assertInitial(t, ws.Snapshot())
}

func TestSubmitSuccessSeedsWelcome(t *testing.T) {
	backend := &fakeBackend{uploadFn: func(context.Context) (*qaclient.UploadResponse, error) {
		return &qaclient.UploadResponse{SessionID: "S1", Filename: "doc.pdf", ChunksCreated: intPtr(3)}, nil
	}}
	ws, rec := newTestWorkspace(t, backend)

	ws.Submit(context.Background(), []Document{textDoc("local.pdf", "application/pdf", "%PDF-1.4")})

	snap := ws.Snapshot()
	assert.Equal(t, "S1", snap.SessionID)
	assert.True(t, snap.Uploaded)
	assert.Equal(t, PhaseDone, snap.Phase)
	assert.Equal(t, 100, snap.Progress)
	require.Len(t, snap.Messages, 1)

	welcome := snap.Messages[0]
	assert.Equal(t, RoleAssistant, welcome.Role)
	assert.Contains(t, welcome.Text, `"doc.pdf"`)
	assert.Contains(t, welcome.Text, "Created 3 chunks for analysis.")
	assert.NotEmpty(t, welcome.ID)

	assert.Equal(t, Notice{
		Title:       "Document processed successfully!",
		Description: "3 chunks created and indexed",
		Variant:     VariantDefault,
	}, rec.last())

	assert.Equal(t, []string{"local.pdf:%PDF-1.4"}, backend.uploaded)
}

func TestSubmitSuccessWithoutOptionalFields(t *testing.T) {
	tests := []struct {
		name     string
		resp     *qaclient.UploadResponse
		wantName string
	}{
		{"no chunk count", &qaclient.UploadResponse{SessionID: "S2", Filename: "server.pdf"}, "server.pdf"},
		{"zero chunk count", &qaclient.UploadResponse{SessionID: "S2", Filename: "server.pdf", ChunksCreated: intPtr(0)}, "server.pdf"},
		{"no filename", &qaclient.UploadResponse{SessionID: "S2"}, "local.md"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend := &fakeBackend{uploadFn: func(context.Context) (*qaclient.UploadResponse, error) {
				return tc.resp, nil
			}}
			ws, rec := newTestWorkspace(t, backend)

			ws.Submit(context.Background(), []Document{textDoc("local.md", "", "# notes")})

			snap := ws.Snapshot()
			require.Len(t, snap.Messages, 1)
			text := snap.Messages[0].Text
			assert.Contains(t, text, `"`+tc.wantName+`"`)
			assert.NotContains(t, text, "chunks for analysis")
			assert.Equal(t, "Great! I've successfully processed your document \""+tc.wantName+"\". What would you like to know about it?", text)
			assert.Equal(t, "Multiple chunks created and indexed", rec.last().Description)
		})
	}
}

func TestSubmitFailureClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Notice
	}{
		{"service unavailable", apiErr(apperrors.OpUpload, http.StatusServiceUnavailable), NoticeServiceUnavailable},
		{"bad request", apiErr(apperrors.OpUpload, http.StatusBadRequest), NoticeProcessingFailed},
		{"network error", errors.New("dial tcp: connection refused"), uploadFailedNotice("dial tcp: connection refused")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend := &fakeBackend{uploadFn: func(context.Context) (*qaclient.UploadResponse, error) {
				return nil, tc.err
			}}
			ws, rec := newTestWorkspace(t, backend)

			ws.Submit(context.Background(), []Document{textDoc("doc.pdf", "application/pdf", "x")})

			assert.Equal(t, tc.want, rec.last())
			assertInitial(t, ws.Snapshot())
		})
	}
}

func TestSubmitOpenFailureIsGenericUploadFailure(t *testing.T) {
	backend := &fakeBackend{}
	ws, rec := newTestWorkspace(t, backend)

	broken := textDoc("doc.pdf", "application/pdf", "x")
	broken.Open = func() (io.ReadCloser, error) { return nil, errors.New("permission denied") }
	ws.Submit(context.Background(), []Document{broken})

	uploads, _ := backend.calls()
	assert.Equal(t, 0, uploads)
	assert.Equal(t, "Upload failed", rec.last().Title)
	assert.Contains(t, rec.last().Description, "permission denied")
	assertInitial(t, ws.Snapshot())
}

func TestProgressStaysBoundedWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{uploadFn: func(context.Context) (*qaclient.UploadResponse, error) {
		<-release
		return &qaclient.UploadResponse{SessionID: "S1"}, nil
	}}
	ws, _ := newTestWorkspace(t, backend)

	done := make(chan struct{})
	go func() {
		ws.Submit(context.Background(), []Document{textDoc("doc.pdf", "application/pdf", "x")})
		close(done)
	}()

	require.Eventually(t, func() bool {
		snap := ws.Snapshot()
		assert.GreaterOrEqual(t, snap.Progress, 0)
		assert.LessOrEqual(t, snap.Progress, 90)
		return snap.Phase == PhaseUploading && snap.Progress == 90
	}, 2*time.Second, time.Millisecond)

	assert.True(t, ws.Uploading())
	assert.False(t, ws.DocumentAccepted())

	close(release)
	<-done

	snap := ws.Snapshot()
	assert.Equal(t, 100, snap.Progress)
	assert.Equal(t, PhaseDone, snap.Phase)
}

func TestProgressResetsOnFailure(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{uploadFn: func(context.Context) (*qaclient.UploadResponse, error) {
		<-release
		return nil, apiErr(apperrors.OpUpload, http.StatusServiceUnavailable)
	}}
	ws, _ := newTestWorkspace(t, backend)

	done := make(chan struct{})
	go func() {
		ws.Submit(context.Background(), []Document{textDoc("doc.pdf", "application/pdf", "x")})
		close(done)
	}()

	require.Eventually(t, func() bool { return ws.Snapshot().Progress > 0 }, 2*time.Second, time.Millisecond)
	close(release)
	<-done

	// The ticker is stopped; progress must stay at zero afterwards.
	time.Sleep(10 * time.Millisecond)
	assertInitial(t, ws.Snapshot())
}

func TestSettleDelayHoldsSessionBack(t *testing.T) {
	backend := &fakeBackend{}
	rec := &recorder{}
	opts := testOptions()
	opts.SettleDelay = 50 * time.Millisecond
	ws := New(backend, rec, opts, zap.NewNop())
	defer ws.Close()

	done := make(chan struct{})
	go func() {
		ws.Submit(context.Background(), []Document{textDoc("doc.pdf", "application/pdf", "x")})
		close(done)
	}()

	require.Eventually(t, func() bool { return ws.Snapshot().Progress == 100 }, time.Second, time.Millisecond)
	assert.False(t, ws.DocumentAccepted())

	<-done
	assert.True(t, ws.DocumentAccepted())
}

func TestAskWithoutSession(t *testing.T) {
	backend := &fakeBackend{}
	ws, rec := newTestWorkspace(t, backend)

	ws.Ask(context.Background(), "What is this?")

	_, queries := backend.calls()
	assert.Equal(t, 0, queries)
	assert.Equal(t, NoticeNoSession, rec.last())
	assert.Empty(t, ws.Snapshot().Messages)
}

func TestAskBlankQuestionIgnored(t *testing.T) {
	backend := &fakeBackend{}
	ws, rec := newTestWorkspace(t, backend)
	activate(t, ws)
	before := len(rec.all())

	ws.Ask(context.Background(), "   ")

	_, queries := backend.calls()
	assert.Equal(t, 0, queries)
	assert.Len(t, ws.Snapshot().Messages, 1)
	assert.Len(t, rec.all(), before)
}

func TestAskSuccessAppendsInOrder(t *testing.T) {
	backend := &fakeBackend{queryFn: func(_ context.Context, sessionID, question string) (*qaclient.QueryResponse, error) {
		return &qaclient.QueryResponse{Answer: "It is a report.", Context: "Page 1: Annual report"}, nil
	}}
	ws, _ := newTestWorkspace(t, backend)
	activate(t, ws)

	ws.Ask(context.Background(), "  What is this?  ")

	snap := ws.Snapshot()
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, RoleUser, snap.Messages[1].Role)
	assert.Equal(t, "What is this?", snap.Messages[1].Text)
	assert.Equal(t, RoleAssistant, snap.Messages[2].Role)
	assert.Equal(t, "It is a report.", snap.Messages[2].Text)
	assert.Equal(t, "Page 1: Annual report", snap.Messages[2].Context)
	assert.False(t, snap.Awaiting)
	assert.Equal(t, []string{"S1:What is this?"}, backend.questions)
}

func TestAskAppendsUserMessageBeforeResponse(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{queryFn: func(context.Context, string, string) (*qaclient.QueryResponse, error) {
		<-release
		return &qaclient.QueryResponse{Answer: "done"}, nil
	}}
	ws, _ := newTestWorkspace(t, backend)
	activate(t, ws)

	done := make(chan struct{})
	go func() {
		ws.Ask(context.Background(), "slow question")
		close(done)
	}()

	require.Eventually(t, func() bool { return ws.Snapshot().Awaiting }, time.Second, time.Millisecond)
	snap := ws.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "slow question", snap.Messages[1].Text)

	close(release)
	<-done
	snap = ws.Snapshot()
	assert.False(t, snap.Awaiting)
	assert.Len(t, snap.Messages, 3)
}

func TestAskSessionExpired(t *testing.T) {
	backend := &fakeBackend{queryFn: func(context.Context, string, string) (*qaclient.QueryResponse, error) {
		return nil, apiErr(apperrors.OpQuery, http.StatusNotFound)
	}}
	ws, rec := newTestWorkspace(t, backend)
	activate(t, ws)

	ws.Ask(context.Background(), "anyone there?")

	assert.Equal(t, NoticeSessionExpired, rec.last())
	assertInitial(t, ws.Snapshot())

	// Without a session the next question never reaches the service.
	ws.Ask(context.Background(), "again?")
	_, queries := backend.calls()
	assert.Equal(t, 1, queries)
	assert.Equal(t, NoticeNoSession, rec.last())
}

func TestAskOtherFailureKeepsUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"server error", apiErr(apperrors.OpQuery, http.StatusInternalServerError)},
		{"bad request", apiErr(apperrors.OpQuery, http.StatusBadRequest)},
		{"network error", errors.New("connection reset by peer")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend := &fakeBackend{queryFn: func(context.Context, string, string) (*qaclient.QueryResponse, error) {
				return nil, tc.err
			}}
			ws, rec := newTestWorkspace(t, backend)
			activate(t, ws)

			ws.Ask(context.Background(), "why?")

			snap := ws.Snapshot()
			assert.Equal(t, "S1", snap.SessionID)
			assert.True(t, snap.Uploaded)
			assert.False(t, snap.Awaiting)
			require.Len(t, snap.Messages, 2)
			assert.Equal(t, RoleUser, snap.Messages[1].Role)
			assert.Equal(t, queryFailedNotice(tc.err.Error()), rec.last())
		})
	}
}

func TestNewDocumentAlwaysResets(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, ws *Workspace)
	}{
		{"fresh", func(*testing.T, *Workspace) {}},
		{"uploaded", func(t *testing.T, ws *Workspace) { activate(t, ws) }},
		{"mid chat", func(t *testing.T, ws *Workspace) {
			activate(t, ws)
			ws.Ask(context.Background(), "first")
			ws.Ask(context.Background(), "second")
		}},
		{"after error", func(t *testing.T, ws *Workspace) {
			ws.Submit(context.Background(), []Document{textDoc("bad.exe", "application/x-msdownload", "x")})
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ws, _ := newTestWorkspace(t, &fakeBackend{})
			tc.setup(t, ws)

			ws.NewDocument()
			assertInitial(t, ws.Snapshot())
		})
	}
}

func TestNewDocumentDiscardsInFlightUpload(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{uploadFn: func(context.Context) (*qaclient.UploadResponse, error) {
		<-release
		return &qaclient.UploadResponse{SessionID: "late"}, nil
	}}
	ws, rec := newTestWorkspace(t, backend)

	done := make(chan struct{})
	go func() {
		ws.Submit(context.Background(), []Document{textDoc("doc.pdf", "application/pdf", "x")})
		close(done)
	}()
	require.Eventually(t, ws.Uploading, time.Second, time.Millisecond)

	ws.NewDocument()
	close(release)
	<-done

	assertInitial(t, ws.Snapshot())
	assert.Empty(t, rec.all())
}

func TestNewDocumentDiscardsInFlightAnswer(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{queryFn: func(context.Context, string, string) (*qaclient.QueryResponse, error) {
		<-release
		return &qaclient.QueryResponse{Answer: "stale"}, nil
	}}
	ws, _ := newTestWorkspace(t, backend)
	activate(t, ws)

	done := make(chan struct{})
	go func() {
		ws.Ask(context.Background(), "question")
		close(done)
	}()
	require.Eventually(t, func() bool { return ws.Snapshot().Awaiting }, time.Second, time.Millisecond)

	ws.NewDocument()
	close(release)
	<-done

	assertInitial(t, ws.Snapshot())
}

func TestReuploadDoesNotStrandPendingQuestion(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{queryFn: func(context.Context, string, string) (*qaclient.QueryResponse, error) {
		<-release
		return &qaclient.QueryResponse{Answer: "still S1"}, nil
	}}
	ws, _ := newTestWorkspace(t, backend)
	activate(t, ws)

	done := make(chan struct{})
	go func() {
		ws.Ask(context.Background(), "question")
		close(done)
	}()
	require.Eventually(t, func() bool { return ws.Snapshot().Awaiting }, time.Second, time.Millisecond)

	// A second upload that fails leaves the first session in place.
	backend.mu.Lock()
	backend.uploadFn = func(context.Context) (*qaclient.UploadResponse, error) {
		return nil, apiErr(apperrors.OpUpload, http.StatusBadRequest)
	}
	backend.mu.Unlock()
	ws.Submit(context.Background(), []Document{textDoc("other.pdf", "application/pdf", "y")})

	close(release)
	<-done

	snap := ws.Snapshot()
	assert.Equal(t, "S1", snap.SessionID)
	assert.False(t, snap.Awaiting)
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, "still S1", snap.Messages[2].Text)
}

func TestCloseAbortsInFlightQuery(t *testing.T) {
	backend := &fakeBackend{queryFn: func(ctx context.Context, _, _ string) (*qaclient.QueryResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	ws, rec := newTestWorkspace(t, backend)
	activate(t, ws)

	done := make(chan struct{})
	go func() {
		ws.Ask(context.Background(), "hang")
		close(done)
	}()
	require.Eventually(t, func() bool { return ws.Snapshot().Awaiting }, time.Second, time.Millisecond)

	ws.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Ask did not return after Close")
	}
	assert.Equal(t, "Query failed", rec.last().Title)
	assert.False(t, ws.Snapshot().Awaiting)
}

func TestPreflightRejectsBeforeUpload(t *testing.T) {
	backend := &fakeBackend{}
	rec := &recorder{}
	opts := testOptions()
	opts.Preflight = PDFPreflight
	ws := New(backend, rec, opts, zap.NewNop())
	defer ws.Close()

	ws.Submit(context.Background(), []Document{textDoc("broken.pdf", "application/pdf", "not a pdf at all")})

	uploads, _ := backend.calls()
	assert.Equal(t, 0, uploads)
	assert.Equal(t, NoticeProcessingFailed, rec.last())
	assertInitial(t, ws.Snapshot())

	// Non-PDF documents are not inspected.
	ws.Submit(context.Background(), []Document{textDoc("notes.txt", "text/plain", "hello")})
	uploads, _ = backend.calls()
	assert.Equal(t, 1, uploads)
	assert.True(t, ws.DocumentAccepted())
}

func TestPreflightAndUploadEachOpenDocument(t *testing.T) {
	backend := &fakeBackend{}
	rec := &recorder{}
	opts := testOptions()
	var inspected string
	opts.Preflight = func(doc Document) error {
		rc, err := doc.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		inspected = string(data)
		return err
	}
	ws := New(backend, rec, opts, zap.NewNop())
	defer ws.Close()

	opens := 0
	doc := Document{
		Name:        "notes.txt",
		ContentType: "text/plain",
		Size:        5,
		Open: func() (io.ReadCloser, error) {
			opens++
			return io.NopCloser(strings.NewReader("hello")), nil
		},
	}
	ws.Submit(context.Background(), []Document{doc})

	assert.Equal(t, 2, opens)
	assert.Equal(t, "hello", inspected)
	assert.Equal(t, []string{"notes.txt:hello"}, backend.uploaded)
	assert.True(t, ws.DocumentAccepted())
}

func TestNoticeQueueDrain(t *testing.T) {
	q := NewNoticeQueue()
	q.Notify(NoticeNoSession)
	q.Notify(NoticeSessionExpired)

	assert.Equal(t, []Notice{NoticeNoSession, NoticeSessionExpired}, q.Drain())
	assert.Empty(t, q.Drain())

	for i := 0; i < maxQueuedNotices+5; i++ {
		q.Notify(NoticeFileTooLarge)
	}
	assert.Len(t, q.Drain(), maxQueuedNotices)
}

func TestLogNotifierForwards(t *testing.T) {
	rec := &recorder{}
	n := NewLogNotifier(rec, zap.NewNop(), zap.String("workspace", "w1"))

	n.Notify(NoticeMultipleFiles)
	n.Notify(Notice{Title: "ok", Variant: VariantDefault})

	assert.Equal(t, []Notice{NoticeMultipleFiles, {Title: "ok", Variant: VariantDefault}}, rec.all())
}

func TestSubmitAsyncMarksUploadingBeforeReturning(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{uploadFn: func(context.Context) (*qaclient.UploadResponse, error) {
		<-release
		return &qaclient.UploadResponse{SessionID: "S1"}, nil
	}}
	ws, _ := newTestWorkspace(t, backend)

	done := ws.SubmitAsync(context.Background(), []Document{textDoc("doc.pdf", "application/pdf", "x")})
	assert.True(t, ws.Uploading())

	close(release)
	<-done
	assert.True(t, ws.DocumentAccepted())
}

func TestSubmitAsyncRejectionIsImmediate(t *testing.T) {
	ws, rec := newTestWorkspace(t, &fakeBackend{})

	done := ws.SubmitAsync(context.Background(), nil)
	select {
	case <-done:
	default:
		t.Fatal("rejected submission should complete immediately")
	}
	assert.Equal(t, NoticeNoFile, rec.last())
}

func TestAskAsyncAppendsBeforeReturning(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{queryFn: func(context.Context, string, string) (*qaclient.QueryResponse, error) {
		<-release
		return &qaclient.QueryResponse{Answer: "yes"}, nil
	}}
	ws, _ := newTestWorkspace(t, backend)
	activate(t, ws)

	done := ws.AskAsync(context.Background(), "is it?")
	snap := ws.Snapshot()
	assert.True(t, snap.Awaiting)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "is it?", snap.Messages[1].Text)

	close(release)
	<-done
	assert.Len(t, ws.Snapshot().Messages, 3)
}
