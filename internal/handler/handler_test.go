package handler

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/bartek717/passionproject/internal/model"
	appErr "github.com/bartek717/passionproject/internal/pkg/errors"
	"github.com/bartek717/passionproject/internal/pkg/jwt"
	"github.com/bartek717/passionproject/internal/service"
)

var (
	testSecret = []byte("handler-test-secret")
	errFake    = errors.New("fake upstream failure")
)

type memClassStore struct {
	mu      sync.Mutex
	classes map[string]model.Class
}

func (s *memClassStore) Create(ctx context.Context, class *model.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[class.ID] = *class
	return nil
}

func (s *memClassStore) GetByID(ctx context.Context, userID, classID string) (*model.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	class, ok := s.classes[classID]
	if !ok || class.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	return &class, nil
}

func (s *memClassStore) ListByUser(ctx context.Context, userID string) ([]model.Class, error) {
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

func (s *memClassStore) Delete(ctx context.Context, userID, classID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	class, ok := s.classes[classID]
	if !ok || class.UserID != userID {
		return appErr.ErrNotFound
	}
	delete(s.classes, classID)
	return nil
}

type memDocumentStore struct {
	mu   sync.Mutex
	docs map[string]model.Document
}

func (s *memDocumentStore) Create(ctx context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.docs {
		if existing.ClassID == doc.ClassID && existing.FilePath == doc.FilePath {
			return appErr.ErrConflict
		}
	}
	s.docs[doc.ID] = *doc
	return nil
}

func (s *memDocumentStore) GetByID(ctx context.Context, userID, docID string) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok || doc.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	return &doc, nil
}

func (s *memDocumentStore) ListByClass(ctx context.Context, userID, classID string) ([]model.Document, error) {
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

func (s *memDocumentStore) ListByClassIDs(ctx context.Context, userID string, classIDs []string) (map[string][]model.Document, error) {
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

func (s *memDocumentStore) SearchSimilar(ctx context.Context, userID, classID string, queryEmb []float32, topK int) ([]model.Document, error) {
	docs, err := s.ListByClass(ctx, userID, classID)
	if err != nil {
		return nil, err
	}
	if len(docs) > topK {
		docs = docs[:topK]
	}
	return docs, nil
}

func (s *memDocumentStore) Delete(ctx context.Context, userID, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok || doc.UserID != userID {
		return appErr.ErrNotFound
	}
	delete(s.docs, docID)
	return nil
}

func (s *memDocumentStore) DeleteByClass(ctx context.Context, userID, classID string) (int64, error) {
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

type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (s *memBlobStore) Type() string { return "mem" }

func (s *memBlobStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return nil
}

func (s *memBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memBlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *memBlobStore) List(ctx context.Context, prefix string) ([]string, error) {
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

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (stubEmbedder) ModelName() string { return "stub" }

type stubGenerator struct {
	answer string
	err    error
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.answer, g.err
}

type testEnv struct {
	router *gin.Engine
	token  string
	blobs  *memBlobStore
	gen    *stubGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	classes := &memClassStore{classes: make(map[string]model.Class)}
	documents := &memDocumentStore{docs: make(map[string]model.Document)}
	blobs := &memBlobStore{blobs: make(map[string][]byte)}
	gen := &stubGenerator{answer: "a helpful answer"}

	classService := service.NewClassService(classes, documents, blobs)
	ingestService := service.NewIngestService(classes, documents, blobs, stubEmbedder{}, 0)
	chatService := service.NewChatService(documents, stubEmbedder{}, gen, time.Minute, 0)

	deps := RouterDeps{
		Classes:   NewClassHandler(classService, ingestService, 20),
		Chat:      NewChatHandler(chatService),
		Files:     NewFileHandler(blobs),
		JWTSecret: testSecret,
	}
	router := gin.New()
	RegisterRoutes(router.Group("/api"), deps)

	token, err := jwt.GenerateToken("user-1", "", testSecret, time.Hour)
	require.NoError(t, err)
	return &testEnv{router: router, token: token, blobs: blobs, gen: gen}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+e.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// buildDocx builds a minimal word document the real extractor accepts.
func buildDocx(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	f, err := writer.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body>
</w:document>`))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func multipartBody(t *testing.T, name string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		require.NoError(t, mw.WriteField("name", name))
	}
	for filename, data := range files {
		part, err := mw.CreateFormFile("files", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}
