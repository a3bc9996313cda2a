package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"document-qa-be/internal/dto"
	"document-qa-be/internal/entity"
	"document-qa-be/internal/pkg/logger"
	"document-qa-be/internal/repository/contract"
	"document-qa-be/internal/repository/memory"
	"document-qa-be/pkg/answering"
	"document-qa-be/pkg/clock"
	"document-qa-be/pkg/events"
	"document-qa-be/pkg/store"
	"document-qa-be/pkg/upload"

	"github.com/google/uuid"
)

// Validation failures are answered synchronously: no record is created, at
// most a notification is emitted, and the caller gets one of these to map
// onto a 4xx.
var (
	ErrFileTooLarge       = errors.New("file too large")
	ErrContentTooLarge    = errors.New("document content too large")
	ErrNoDocumentSelected = errors.New("no document selected")
	ErrEmptyQuestion      = errors.New("question is empty")
	ErrDocumentNotFound   = errors.New("document not found")
)

type IDocumentService interface {
	Upload(ctx context.Context, name, mimeType string, content []byte) (*entity.Document, error)
	Documents(ctx context.Context, search string) ([]*entity.Document, string)
	Select(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Ask(ctx context.Context, documentId, question string) (*entity.QAEntry, error)
	History(ctx context.Context, documentId, search string) []*entity.QAEntry
	Export(ctx context.Context, documentId string) (string, []byte, error)
	ClearAll(ctx context.Context)
}

// documentService is the single owner of the three collections and the
// selection field. Every committed mutation happens as one locked
// snapshot-to-snapshot transition and is mirrored to the durable store
// before the lock is released; background completions reconcile strictly
// by id so interleaved uploads and answers never touch each other's
// records, and a completion whose record is gone is a no-op.
type documentService struct {
	mu         sync.Mutex
	documents  []*entity.Document
	history    []*entity.QAEntry
	selectedId string

	kv            contract.IKVRepository
	gateway       *answering.Gateway
	simulator     *upload.Simulator
	notifications INotificationService
	publisher     IPublisherService
	cache         *memory.AnswerCache
	clk           clock.Clock
	logger        logger.ILogger

	maxFileSize   int64
	maxContentLen int
}

func NewDocumentService(
	kv contract.IKVRepository,
	gateway *answering.Gateway,
	simulator *upload.Simulator,
	notifications INotificationService,
	publisher IPublisherService,
	clk clock.Clock,
	log logger.ILogger,
	maxFileSize int64,
	maxContentLen int,
) IDocumentService {
	ctx := context.Background()
	s := &documentService{
		documents:     store.LoadJSON(ctx, kv, store.KeyDocuments, []*entity.Document{}),
		history:       store.LoadJSON(ctx, kv, store.KeyHistory, []*entity.QAEntry{}),
		kv:            kv,
		gateway:       gateway,
		simulator:     simulator,
		notifications: notifications,
		publisher:     publisher,
		cache:         memory.NewAnswerCache(),
		clk:           clk,
		logger:        log,
		maxFileSize:   maxFileSize,
		maxContentLen: maxContentLen,
	}
	if raw, ok := kv.Get(ctx, store.KeySelected); ok {
		s.selectedId = raw
	}
	return s
}

// Upload validates the raw file, inserts the uploading placeholder at the
// front of the list, marks it selected, and hands the rest of the timeline
// to a background goroutine. Content is only attached on success.
func (s *documentService) Upload(ctx context.Context, name, mimeType string, content []byte) (*entity.Document, error) {
	if int64(len(content)) > s.maxFileSize {
		s.notifications.Push("File too large. Max allowed size is 2 MB.")
		return nil, ErrFileTooLarge
	}

	text := string(content)
	if len(text) > s.maxContentLen {
		s.notifications.Push("Document is too large to store locally.")
		return nil, ErrContentTooLarge
	}

	doc := &entity.Document{
		Id:         uuid.New().String(),
		Name:       name,
		Size:       int64(len(content)),
		Type:       mimeType,
		UploadedAt: s.clk.Now().Format(time.RFC3339),
		Status:     entity.DocumentStatusUploading,
		Progress:   0,
	}

	s.mu.Lock()
	s.documents = append([]*entity.Document{doc}, s.documents...)
	s.selectedId = doc.Id
	s.saveDocumentsLocked(ctx)
	s.saveSelectedLocked(ctx)
	snapshot := *doc
	s.mu.Unlock()

	s.notifications.Push(fmt.Sprintf("Uploading %s...", name))
	s.logger.Info("DocumentService", "Upload started", map[string]interface{}{
		"document_id": doc.Id,
		"name":        name,
		"size":        doc.Size,
	})

	go s.runUpload(doc.Id, name, text)

	return &snapshot, nil
}

func (s *documentService) runUpload(id, name, text string) {
	ctx := context.Background()
	err := s.simulator.Run(ctx, func(progress int) {
		s.applyProgress(ctx, id, progress)
	})
	if err != nil {
		s.failUpload(ctx, id, name, err)
		return
	}
	s.completeUpload(ctx, id, name, text)
}

func (s *documentService) applyProgress(ctx context.Context, id string, progress int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.findDocumentLocked(id)
	if doc == nil || doc.Status != entity.DocumentStatusUploading {
		return
	}
	doc.Progress = progress
	s.saveDocumentsLocked(ctx)
}

func (s *documentService) completeUpload(ctx context.Context, id, name, text string) {
	s.mu.Lock()
	doc := s.findDocumentLocked(id)
	if doc == nil {
		// Deleted while in flight. Never recreate.
		s.mu.Unlock()
		return
	}
	doc.Status = entity.DocumentStatusUploaded
	doc.Progress = 100
	doc.Content = text
	s.saveDocumentsLocked(ctx)
	s.mu.Unlock()

	s.notifications.Push(fmt.Sprintf("Loaded %s", name))
	s.publishEvent(ctx, events.TypeDocumentUploaded, map[string]interface{}{
		"document_id": id,
		"name":        name,
	})
	s.logger.Info("DocumentService", "Upload completed", map[string]interface{}{
		"document_id": id,
		"name":        name,
	})
}

func (s *documentService) failUpload(ctx context.Context, id, name string, cause error) {
	s.mu.Lock()
	doc := s.findDocumentLocked(id)
	if doc == nil {
		s.mu.Unlock()
		return
	}
	// Terminal state. Progress keeps its last value, content never arrives.
	doc.Status = entity.DocumentStatusFailed
	s.saveDocumentsLocked(ctx)
	s.mu.Unlock()

	s.notifications.Push(fmt.Sprintf("Upload failed for %s", name))
	s.publishEvent(ctx, events.TypeDocumentUploadFailed, map[string]interface{}{
		"document_id": id,
		"name":        name,
	})
	s.logger.Warn("DocumentService", "Upload failed", map[string]interface{}{
		"document_id": id,
		"name":        name,
		"error":       cause.Error(),
	})
}

func (s *documentService) Documents(ctx context.Context, search string) ([]*entity.Document, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]*entity.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if needle != "" && !strings.Contains(strings.ToLower(doc.Name), needle) {
			continue
		}
		snapshot := *doc
		out = append(out, &snapshot)
	}
	return out, s.selectedId
}

func (s *documentService) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findDocumentLocked(id) == nil {
		return ErrDocumentNotFound
	}
	s.selectedId = id
	s.saveSelectedLocked(ctx)
	return nil
}

// Delete removes one document. The selection may be left dangling on
// purpose; readers tolerate a miss. In-flight upload or answer completions
// for the removed id become no-ops.
func (s *documentService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, doc := range s.documents {
		if doc.Id == id {
			s.documents = append(s.documents[:i], s.documents[i+1:]...)
			s.saveDocumentsLocked(ctx)
			return nil
		}
	}
	return ErrDocumentNotFound
}

// Ask runs the question state machine: validate, optimistic placeholder,
// then resolve in the background. The returned entry is the placeholder.
func (s *documentService) Ask(ctx context.Context, documentId, question string) (*entity.QAEntry, error) {
	if documentId == "" {
		return nil, ErrNoDocumentSelected
	}
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return nil, ErrEmptyQuestion
	}

	now := s.clk.Now()
	placeholder := &entity.QAEntry{
		Id:         fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.New().String()[:4]),
		DocumentId: documentId,
		Question:   trimmed,
		Answer:     entity.AnswerPending,
		CreatedAt:  now.Format(time.RFC3339),
	}

	s.mu.Lock()
	s.history = append([]*entity.QAEntry{placeholder}, s.history...)
	s.saveHistoryLocked(ctx)
	s.mu.Unlock()

	s.notifications.Push("Sending to AI...")
	s.logger.Info("DocumentService", "Question submitted", map[string]interface{}{
		"document_id": documentId,
		"entry_id":    placeholder.Id,
	})

	s.mu.Lock()
	doc := s.findDocumentLocked(documentId)
	if doc == nil {
		// No gateway call is made: finalize the placeholder in place with
		// the sentinel and stop.
		placeholder.Answer = entity.AnswerDocumentGone
		s.saveHistoryLocked(ctx)
		snapshot := *placeholder
		s.mu.Unlock()
		return &snapshot, nil
	}
	documentText := doc.Content
	snapshot := *placeholder
	s.mu.Unlock()

	go s.resolveAnswer(placeholder.Id, documentId, trimmed, documentText)

	return &snapshot, nil
}

func (s *documentService) resolveAnswer(placeholderId, documentId, question, documentText string) {
	ctx := context.Background()

	answer, cached := s.cache.Get(documentId, question)
	if !cached {
		var resolved bool
		answer, resolved = s.gateway.Ask(ctx, question, documentText)
		// A degraded error answer stays out of the cache so the next ask
		// retries the gateway instead of replaying the failure.
		if resolved {
			s.cache.Save(documentId, question, answer)
		}
	}

	s.mu.Lock()
	idx := -1
	for i, e := range s.history {
		if e.Id == placeholderId {
			idx = i
			break
		}
	}
	if idx == -1 {
		// History was cleared while the call was in flight.
		s.mu.Unlock()
		return
	}
	final := &entity.QAEntry{
		Id:         placeholderId + entity.FinalIdSuffix,
		DocumentId: documentId,
		Question:   question,
		Answer:     answer,
		CreatedAt:  s.clk.Now().Format(time.RFC3339),
	}
	rest := append(s.history[:idx:idx], s.history[idx+1:]...)
	s.history = append([]*entity.QAEntry{final}, rest...)
	s.saveHistoryLocked(ctx)
	s.mu.Unlock()

	s.notifications.Push("AI answer ready")
	s.publishEvent(ctx, events.TypeQAAnswerReady, map[string]interface{}{
		"document_id": documentId,
		"entry_id":    final.Id,
		"cached":      cached,
	})
}

// History returns entries for one document, newest first. Writes already
// prepend, but the read side still sorts by createdAt descending with a
// stable sort so equal timestamps keep their insertion order.
func (s *documentService) History(ctx context.Context, documentId, search string) []*entity.QAEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]*entity.QAEntry, 0, len(s.history))
	for _, e := range s.history {
		if documentId != "" && e.DocumentId != documentId {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(e.Question), needle) &&
			!strings.Contains(strings.ToLower(e.Answer), needle) {
			continue
		}
		snapshot := *e
		out = append(out, &snapshot)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

// Export serializes the selected document's history as a pretty-printed
// attachment named after the document.
func (s *documentService) Export(ctx context.Context, documentId string) (string, []byte, error) {
	if documentId == "" {
		s.mu.Lock()
		documentId = s.selectedId
		s.mu.Unlock()
	}
	if documentId == "" {
		return "", nil, ErrNoDocumentSelected
	}

	filename := "qa_history.json"
	s.mu.Lock()
	if doc := s.findDocumentLocked(documentId); doc != nil {
		filename = doc.Name + ".json"
	}
	s.mu.Unlock()

	entries := s.History(ctx, documentId, "")
	exported := make([]dto.ExportedEntry, 0, len(entries))
	for _, e := range entries {
		exported = append(exported, dto.ExportedEntry{
			Question:  e.Question,
			Answer:    e.Answer,
			CreatedAt: e.CreatedAt,
		})
	}
	data, err := json.MarshalIndent(exported, "", "  ")
	if err != nil {
		return "", nil, err
	}
	return filename, data, nil
}

// ClearAll wipes the in-memory state and the three durable keys. Calling
// it twice is the same as calling it once.
func (s *documentService) ClearAll(ctx context.Context) {
	s.mu.Lock()
	s.documents = nil
	s.history = nil
	s.selectedId = ""
	s.kv.Delete(ctx, store.KeyDocuments)
	s.kv.Delete(ctx, store.KeyHistory)
	s.kv.Delete(ctx, store.KeySelected)
	s.mu.Unlock()

	s.cache.Flush()
	s.notifications.Push("All data cleared from local storage")
	s.publishEvent(ctx, events.TypeStorageCleared, map[string]interface{}{})
}

func (s *documentService) findDocumentLocked(id string) *entity.Document {
	for _, doc := range s.documents {
		if doc.Id == id {
			return doc
		}
	}
	return nil
}

// Persistence is fire-and-forget: a failed save keeps the in-memory state
// authoritative and tells the user, nothing is rolled back or retried.
func (s *documentService) saveDocumentsLocked(ctx context.Context) {
	if !store.SaveJSON(ctx, s.kv, store.KeyDocuments, s.documents) {
		s.notifications.Push("Storage full — document list not saved.")
	}
}

func (s *documentService) saveHistoryLocked(ctx context.Context) {
	if !store.SaveJSON(ctx, s.kv, store.KeyHistory, s.history) {
		s.notifications.Push("Storage full — Q&A history not saved.")
	}
}

func (s *documentService) saveSelectedLocked(ctx context.Context) {
	if s.selectedId == "" {
		s.kv.Delete(ctx, store.KeySelected)
		return
	}
	if !s.kv.Set(ctx, store.KeySelected, s.selectedId) {
		s.notifications.Push("Unable to save selected document.")
	}
}

func (s *documentService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: s.clk.Now(),
	}
	// Notification-side fan-out is auxiliary; never fail the operation.
	if err := s.publisher.PublishEvent(ctx, evt); err != nil {
		s.logger.Warn("DocumentService", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
