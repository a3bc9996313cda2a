package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"document-qa-be/internal/dto"
	"document-qa-be/internal/entity"
	"document-qa-be/pkg/answering"
	"document-qa-be/pkg/clock"
	"document-qa-be/pkg/store"
	"document-qa-be/pkg/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	mu      sync.Mutex
	data    map[string]string
	failSet bool
	deletes []string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

func (f *fakeKV) Set(ctx context.Context, key string, value string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet {
		return false
	}
	f.data[key] = value
	return true
}

func (f *fakeKV) Delete(ctx context.Context, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	f.deletes = append(f.deletes, key)
}

type stubProvider struct {
	mu       sync.Mutex
	calls    int
	lastText string
	answer   string
	err      error
}

func (p *stubProvider) Answer(ctx context.Context, question, documentText string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.lastText = documentText
	if p.err != nil {
		return "", p.err
	}
	return p.answer, nil
}

func (p *stubProvider) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *stubProvider) documentText() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastText
}

type fixture struct {
	svc      IDocumentService
	kv       *fakeKV
	notif    INotificationService
	provider *stubProvider
	sim      *upload.Simulator
}

// newFixture wires the service with millisecond upload timings so async
// paths finish quickly under the real clock. Notifications run on a mock
// clock that is never advanced, so pushed messages stay inspectable.
func newFixture(kv *fakeKV, failureRate float64) *fixture {
	sim := upload.NewSimulator(clock.New(), time.Millisecond, failureRate)
	sim.FailureCheckDelay = time.Millisecond
	sim.CompletionDelay = time.Millisecond

	provider := &stubProvider{answer: "Paris is the capital of France."}
	notif := NewNotificationService(clock.NewMock(), 3*time.Second, nopLogger{})

	svc := NewDocumentService(
		kv,
		answering.NewGateway(provider),
		sim,
		notif,
		nil,
		clock.NewMock(),
		nopLogger{},
		1024,
		512,
	)
	return &fixture{svc: svc, kv: kv, notif: notif, provider: provider, sim: sim}
}

func (f *fixture) waitUploaded(t *testing.T, id string) *entity.Document {
	t.Helper()
	var out *entity.Document
	require.Eventually(t, func() bool {
		docs, _ := f.svc.Documents(context.Background(), "")
		for _, d := range docs {
			if d.Id == id && d.Status == entity.DocumentStatusUploaded {
				out = d
				return true
			}
		}
		return false
	}, 2*time.Second, 2*time.Millisecond)
	return out
}

func (f *fixture) waitAnswered(t *testing.T, documentId string) *entity.QAEntry {
	t.Helper()
	var out *entity.QAEntry
	require.Eventually(t, func() bool {
		for _, e := range f.svc.History(context.Background(), documentId, "") {
			if e.Answer != entity.AnswerPending {
				out = e
				return true
			}
		}
		return false
	}, 2*time.Second, 2*time.Millisecond)
	return out
}

func TestUploadCompletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)

	doc, err := f.svc.Upload(ctx, "notes.txt", "text/plain", []byte("hello world"))
	require.NoError(t, err)

	assert.Equal(t, entity.DocumentStatusUploading, doc.Status)
	assert.Equal(t, 0, doc.Progress)
	assert.Empty(t, doc.Content)

	docs, selected := f.svc.Documents(ctx, "")
	require.Len(t, docs, 1)
	assert.Equal(t, doc.Id, selected)

	done := f.waitUploaded(t, doc.Id)
	assert.Equal(t, 100, done.Progress)
	assert.Equal(t, "hello world", done.Content)

	got := messages(f.notif)
	assert.Contains(t, got, "Uploading notes.txt...")
	assert.Contains(t, got, "Loaded notes.txt")
}

func TestUploadNewestFirstAndSelectsLatest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)

	first, err := f.svc.Upload(ctx, "a.txt", "text/plain", []byte("a"))
	require.NoError(t, err)
	second, err := f.svc.Upload(ctx, "b.txt", "text/plain", []byte("b"))
	require.NoError(t, err)

	docs, selected := f.svc.Documents(ctx, "")
	require.Len(t, docs, 2)
	assert.Equal(t, second.Id, docs[0].Id)
	assert.Equal(t, first.Id, docs[1].Id)
	assert.Equal(t, second.Id, selected)

	f.waitUploaded(t, first.Id)
	f.waitUploaded(t, second.Id)

	// Each completion reconciles by id; contents never cross over.
	docs, _ = f.svc.Documents(ctx, "")
	for _, d := range docs {
		switch d.Id {
		case first.Id:
			assert.Equal(t, "a", d.Content)
		case second.Id:
			assert.Equal(t, "b", d.Content)
		}
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)

	_, err := f.svc.Upload(ctx, "big.txt", "text/plain", make([]byte, 2048))
	require.ErrorIs(t, err, ErrFileTooLarge)

	docs, selected := f.svc.Documents(ctx, "")
	assert.Empty(t, docs)
	assert.Empty(t, selected)
	assert.Contains(t, messages(f.notif), "File too large. Max allowed size is 2 MB.")
}

func TestUploadRejectsOversizedContent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)

	_, err := f.svc.Upload(ctx, "long.txt", "text/plain", make([]byte, 600))
	require.ErrorIs(t, err, ErrContentTooLarge)

	docs, _ := f.svc.Documents(ctx, "")
	assert.Empty(t, docs)
	assert.Contains(t, messages(f.notif), "Document is too large to store locally.")
}

func TestUploadFailureIsTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 1)
	// Make the failure check fire before the first progress tick.
	f.sim.Tick = 20 * time.Millisecond

	doc, err := f.svc.Upload(ctx, "doomed.txt", "text/plain", []byte("payload"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		docs, _ := f.svc.Documents(ctx, "")
		return len(docs) == 1 && docs[0].Status == entity.DocumentStatusFailed
	}, 2*time.Second, 2*time.Millisecond)

	docs, _ := f.svc.Documents(ctx, "")
	failed := docs[0]
	assert.Equal(t, doc.Id, failed.Id)
	assert.Less(t, failed.Progress, 100)
	assert.Empty(t, failed.Content)
	assert.Contains(t, messages(f.notif), "Upload failed for doomed.txt")

	// Terminal: no late tick revives it.
	time.Sleep(50 * time.Millisecond)
	docs, _ = f.svc.Documents(ctx, "")
	assert.Equal(t, entity.DocumentStatusFailed, docs[0].Status)
}

func TestDeleteDuringUploadNeverRecreates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)

	doc, err := f.svc.Upload(ctx, "gone.txt", "text/plain", []byte("payload"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, doc.Id))

	// The in-flight completion must find nothing and do nothing.
	time.Sleep(50 * time.Millisecond)
	docs, _ := f.svc.Documents(ctx, "")
	assert.Empty(t, docs)
}

func TestAskResolvesPlaceholderIntoFinal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)

	doc, err := f.svc.Upload(ctx, "notes.txt", "text/plain", []byte("the capital of France is Paris"))
	require.NoError(t, err)
	f.waitUploaded(t, doc.Id)

	placeholder, err := f.svc.Ask(ctx, doc.Id, "  What is the capital?  ")
	require.NoError(t, err)
	assert.Equal(t, entity.AnswerPending, placeholder.Answer)
	assert.Equal(t, "What is the capital?", placeholder.Question)

	final := f.waitAnswered(t, doc.Id)
	assert.Equal(t, placeholder.Id+entity.FinalIdSuffix, final.Id)
	assert.Equal(t, "Paris is the capital of France.", final.Answer)
	assert.Equal(t, "What is the capital?", final.Question)

	// Exactly one entry remains; the placeholder was replaced, not kept.
	history := f.svc.History(ctx, doc.Id, "")
	require.Len(t, history, 1)

	assert.Equal(t, "the capital of France is Paris", f.provider.documentText())
	got := messages(f.notif)
	assert.Contains(t, got, "Sending to AI...")
	assert.Contains(t, got, "AI answer ready")
}

func TestAskValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)

	_, err := f.svc.Ask(ctx, "", "anything")
	assert.ErrorIs(t, err, ErrNoDocumentSelected)

	_, err = f.svc.Ask(ctx, "some-id", "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	assert.Empty(t, f.svc.History(ctx, "", ""))
	assert.Equal(t, 0, f.provider.callCount())
}

func TestAskMissingDocumentShortCircuits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)

	entry, err := f.svc.Ask(ctx, "no-such-doc", "Where did it go?")
	require.NoError(t, err)

	assert.Equal(t, entity.AnswerDocumentGone, entry.Answer)
	assert.False(t, strings.HasSuffix(entry.Id, entity.FinalIdSuffix))
	assert.Equal(t, 0, f.provider.callCount())

	history := f.svc.History(ctx, "no-such-doc", "")
	require.Len(t, history, 1)
	assert.Equal(t, entity.AnswerDocumentGone, history[0].Answer)
}

func TestAskGatewayErrorBecomesAnswerText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)
	f.provider.setErr(errors.New("model unavailable"))

	doc, err := f.svc.Upload(ctx, "notes.txt", "text/plain", []byte("content"))
	require.NoError(t, err)
	f.waitUploaded(t, doc.Id)

	_, err = f.svc.Ask(ctx, doc.Id, "Anyone home?")
	require.NoError(t, err)

	final := f.waitAnswered(t, doc.Id)
	assert.Equal(t, "Error: model unavailable", final.Answer)

	// The failure is not cached: once the provider recovers, re-asking the
	// same question reaches it again and gets a real answer.
	f.provider.setErr(nil)
	_, err = f.svc.Ask(ctx, doc.Id, "Anyone home?")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		for _, e := range f.svc.History(ctx, doc.Id, "") {
			if e.Answer == "Paris is the capital of France." {
				return true
			}
		}
		return false
	}, 2*time.Second, 2*time.Millisecond)
	assert.Equal(t, 2, f.provider.callCount())
}

func TestAskRepeatedQuestionHitsCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)

	doc, err := f.svc.Upload(ctx, "notes.txt", "text/plain", []byte("content"))
	require.NoError(t, err)
	f.waitUploaded(t, doc.Id)

	_, err = f.svc.Ask(ctx, doc.Id, "What is this?")
	require.NoError(t, err)
	f.waitAnswered(t, doc.Id)

	_, err = f.svc.Ask(ctx, doc.Id, "What is this?")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		pending := 0
		for _, e := range f.svc.History(ctx, doc.Id, "") {
			if e.Answer == entity.AnswerPending {
				pending++
			}
		}
		return pending == 0
	}, 2*time.Second, 2*time.Millisecond)

	assert.Equal(t, 1, f.provider.callCount())
	assert.Len(t, f.svc.History(ctx, doc.Id, ""), 2)
}

func TestHistoryTieBreakKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)

	// Missing-document asks finalize synchronously and share the mock
	// clock's frozen timestamp, so ordering falls to the stable tie-break.
	first, err := f.svc.Ask(ctx, "ghost", "first question")
	require.NoError(t, err)
	second, err := f.svc.Ask(ctx, "ghost", "second question")
	require.NoError(t, err)
	require.Equal(t, first.CreatedAt, second.CreatedAt)

	history := f.svc.History(ctx, "ghost", "")
	require.Len(t, history, 2)
	assert.Equal(t, "second question", history[0].Question)
	assert.Equal(t, "first question", history[1].Question)
}

func TestHistoryFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)

	_, err := f.svc.Ask(ctx, "doc-a", "alpha topic")
	require.NoError(t, err)
	_, err = f.svc.Ask(ctx, "doc-b", "beta topic")
	require.NoError(t, err)

	onlyA := f.svc.History(ctx, "doc-a", "")
	require.Len(t, onlyA, 1)
	assert.Equal(t, "alpha topic", onlyA[0].Question)

	matched := f.svc.History(ctx, "", "ALPHA")
	require.Len(t, matched, 1)
	assert.Equal(t, "doc-a", matched[0].DocumentId)

	assert.Empty(t, f.svc.History(ctx, "", "no such text"))
}

func TestSelectAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)

	a, err := f.svc.Upload(ctx, "a.txt", "text/plain", []byte("a"))
	require.NoError(t, err)
	b, err := f.svc.Upload(ctx, "b.txt", "text/plain", []byte("b"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Select(ctx, a.Id))
	_, selected := f.svc.Documents(ctx, "")
	assert.Equal(t, a.Id, selected)

	assert.ErrorIs(t, f.svc.Select(ctx, "missing"), ErrDocumentNotFound)

	require.NoError(t, f.svc.Delete(ctx, b.Id))
	docs, _ := f.svc.Documents(ctx, "")
	require.Len(t, docs, 1)
	assert.Equal(t, a.Id, docs[0].Id)

	assert.ErrorIs(t, f.svc.Delete(ctx, b.Id), ErrDocumentNotFound)
}

func TestDocumentsSearchFiltersByName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)

	_, err := f.svc.Upload(ctx, "meeting-notes.txt", "text/plain", []byte("m"))
	require.NoError(t, err)
	_, err = f.svc.Upload(ctx, "recipes.md", "text/markdown", []byte("r"))
	require.NoError(t, err)

	docs, _ := f.svc.Documents(ctx, "NOTES")
	require.Len(t, docs, 1)
	assert.Equal(t, "meeting-notes.txt", docs[0].Name)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)

	doc, err := f.svc.Upload(ctx, "notes.txt", "text/plain", []byte("content"))
	require.NoError(t, err)
	f.waitUploaded(t, doc.Id)

	_, err = f.svc.Ask(ctx, doc.Id, "What is this?")
	require.NoError(t, err)
	f.waitAnswered(t, doc.Id)

	filename, data, err := f.svc.Export(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt.json", filename)

	var exported []dto.ExportedEntry
	require.NoError(t, json.Unmarshal(data, &exported))
	require.Len(t, exported, 1)
	assert.Equal(t, "What is this?", exported[0].Question)
	assert.Equal(t, "Paris is the capital of France.", exported[0].Answer)
	assert.NotEmpty(t, exported[0].CreatedAt)
}

func TestExportFallbackFilename(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFakeKV(), 0)

	_, err := f.svc.Ask(ctx, "vanished", "question")
	require.NoError(t, err)

	filename, _, err := f.svc.Export(ctx, "vanished")
	require.NoError(t, err)
	assert.Equal(t, "qa_history.json", filename)
}

func TestExportWithoutSelection(t *testing.T) {
	f := newFixture(newFakeKV(), 0)

	_, _, err := f.svc.Export(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoDocumentSelected)
}

func TestClearAllWipesEverything(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	f := newFixture(kv, 0)

	doc, err := f.svc.Upload(ctx, "notes.txt", "text/plain", []byte("content"))
	require.NoError(t, err)
	f.waitUploaded(t, doc.Id)
	_, err = f.svc.Ask(ctx, doc.Id, "question")
	require.NoError(t, err)
	f.waitAnswered(t, doc.Id)

	f.svc.ClearAll(ctx)

	docs, selected := f.svc.Documents(ctx, "")
	assert.Empty(t, docs)
	assert.Empty(t, selected)
	assert.Empty(t, f.svc.History(ctx, "", ""))
	assert.Contains(t, kv.deletes, store.KeyDocuments)
	assert.Contains(t, kv.deletes, store.KeyHistory)
	assert.Contains(t, kv.deletes, store.KeySelected)
	assert.Contains(t, messages(f.notif), "All data cleared from local storage")

	// Second wipe is a no-op apart from the notification.
	f.svc.ClearAll(ctx)
	docs, _ = f.svc.Documents(ctx, "")
	assert.Empty(t, docs)
}

func TestStateSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	f := newFixture(kv, 0)

	doc, err := f.svc.Upload(ctx, "notes.txt", "text/plain", []byte("content"))
	require.NoError(t, err)
	f.waitUploaded(t, doc.Id)
	_, err = f.svc.Ask(ctx, doc.Id, "question")
	require.NoError(t, err)
	f.waitAnswered(t, doc.Id)

	restarted := newFixture(kv, 0)
	docs, selected := restarted.svc.Documents(ctx, "")
	require.Len(t, docs, 1)
	assert.Equal(t, doc.Id, docs[0].Id)
	assert.Equal(t, "content", docs[0].Content)
	assert.Equal(t, doc.Id, selected)

	history := restarted.svc.History(ctx, doc.Id, "")
	require.Len(t, history, 1)
	assert.Equal(t, "question", history[0].Question)
}

func TestSaveFailureKeepsMemoryAuthoritative(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kv.failSet = true
	f := newFixture(kv, 0)

	doc, err := f.svc.Upload(ctx, "notes.txt", "text/plain", []byte("content"))
	require.NoError(t, err)

	// The record exists and keeps evolving even though nothing persists.
	docs, selected := f.svc.Documents(ctx, "")
	require.Len(t, docs, 1)
	assert.Equal(t, doc.Id, selected)

	got := messages(f.notif)
	assert.Contains(t, got, "Storage full — document list not saved.")
	assert.Contains(t, got, "Unable to save selected document.")

	_, err = f.svc.Ask(ctx, "ghost", "question")
	require.NoError(t, err)
	assert.Contains(t, messages(f.notif), "Storage full — Q&A history not saved.")
}
