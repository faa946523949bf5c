package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/bartek717/passionproject/internal/model"
	appErr "github.com/bartek717/passionproject/internal/pkg/errors"
)

type fakeClassStore struct {
	mu      sync.Mutex
	classes map[string]model.Class
}

func newFakeClassStore() *fakeClassStore {
	return &fakeClassStore{classes: make(map[string]model.Class)}
}

func (s *fakeClassStore) Create(ctx context.Context, class *model.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[class.ID]; ok {
		return appErr.ErrConflict
	}
	s.classes[class.ID] = *class
	return nil
}

func (s *fakeClassStore) GetByID(ctx context.Context, userID, classID string) (*model.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	class, ok := s.classes[classID]
	if !ok || class.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	return &class, nil
}

func (s *fakeClassStore) ListByUser(ctx context.Context, userID string) ([]model.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Class
	for _, class := range s.classes {
		if class.UserID == userID {
			result = append(result, class)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *fakeClassStore) Delete(ctx context.Context, userID, classID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	class, ok := s.classes[classID]
	if !ok || class.UserID != userID {
		return appErr.ErrNotFound
	}
	delete(s.classes, classID)
	return nil
}

type fakeDocumentStore struct {
	mu        sync.Mutex
	docs      map[string]model.Document
	createErr error
	similar   []model.Document
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{docs: make(map[string]model.Document)}
}

func (s *fakeDocumentStore) Create(ctx context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.docs {
		if existing.ClassID == doc.ClassID && existing.FilePath == doc.FilePath {
			return appErr.ErrConflict
		}
	}
	s.docs[doc.ID] = *doc
	return nil
}

func (s *fakeDocumentStore) GetByID(ctx context.Context, userID, docID string) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok || doc.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	return &doc, nil
}

func (s *fakeDocumentStore) ListByClass(ctx context.Context, userID, classID string) ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Document
	for _, doc := range s.docs {
		if doc.UserID == userID && doc.ClassID == classID {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *fakeDocumentStore) ListByClassIDs(ctx context.Context, userID string, classIDs []string) (map[string][]model.Document, error) {
	result := make(map[string][]model.Document)
	for _, classID := range classIDs {
		docs, err := s.ListByClass(ctx, userID, classID)
		if err != nil {
			return nil, err
		}
		if len(docs) > 0 {
			result[classID] = docs
		}
	}
	return result, nil
}

func (s *fakeDocumentStore) SearchSimilar(ctx context.Context, userID, classID string, queryEmb []float32, topK int) ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.similar != nil {
		if len(s.similar) > topK {
			return s.similar[:topK], nil
		}
		return s.similar, nil
	}
	var result []model.Document
	for _, doc := range s.docs {
		if doc.UserID == userID && doc.ClassID == classID && doc.Embedding != nil {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if len(result) > topK {
		result = result[:topK]
	}
	return result, nil
}

func (s *fakeDocumentStore) Delete(ctx context.Context, userID, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok || doc.UserID != userID {
		return appErr.ErrNotFound
	}
	delete(s.docs, docID)
	return nil
}

func (s *fakeDocumentStore) DeleteByClass(ctx context.Context, userID, classID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, doc := range s.docs {
		if doc.UserID == userID && doc.ClassID == classID {
			delete(s.docs, id)
			removed++
		}
	}
	return removed, nil
}

type fakeBlobStore struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	saveErr   error
	deleteErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (s *fakeBlobStore) Type() string { return "fake" }

func (s *fakeBlobStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return nil
}

func (s *fakeBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (s *fakeBlobStore) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *fakeBlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for key := range s.blobs {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

type fakeEmbedder struct {
	err      error
	calls    int
	lastText string
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.calls++
	e.lastText = text
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 0.5, 0.25}, nil
}

func (e *fakeEmbedder) ModelName() string { return "fake-embedding" }

type fakeGenerator struct {
	answer     string
	err        error
	lastPrompt string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.lastPrompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

var errBoom = fmt.Errorf("boom")
