package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/bartek717/passionproject/internal/ai"
	"github.com/bartek717/passionproject/internal/extract"
	"github.com/bartek717/passionproject/internal/filestore"
	"github.com/bartek717/passionproject/internal/model"
	appErr "github.com/bartek717/passionproject/internal/pkg/errors"
	"github.com/bartek717/passionproject/internal/pkg/timeutil"
)

// UploadedFile carries one uploaded file through the pipeline.
type UploadedFile struct {
	Name      string
	MediaType string
	Data      []byte
}

// ExtractFunc matches extract.Document; injectable for tests.
type ExtractFunc func(data []byte, mediaType string) (extract.Doc, error)

type IngestService struct {
	classes       ClassStore
	documents     DocumentStore
	store         filestore.Store
	embedder      ai.IEmbedder
	extract       ExtractFunc
	maxInputChars int
}

func NewIngestService(classes ClassStore, documents DocumentStore, store filestore.Store, embedder ai.IEmbedder, maxInputChars int) *IngestService {
	return &IngestService{
		classes:       classes,
		documents:     documents,
		store:         store,
		embedder:      embedder,
		extract:       extract.Document,
		maxInputChars: maxInputChars,
	}
}

// capInput truncates text to at most max runes; 0 disables the cap. The
// full text is still stored, only the embedder input is bounded.
func capInput(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

// CreateClass creates the class row first and then ingests the files into
// it. A mid-ingestion failure leaves the class and any already-processed
// documents in place; the caller re-lists to see what landed.
func (s *IngestService) CreateClass(ctx context.Context, name, description, userID string, files []UploadedFile) (string, error) {
	if userID == "" {
		return "", appErr.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", appErr.ErrInvalid
	}
	class := &model.Class{
		ID:          newID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		UserID:      userID,
		Ctime:       timeutil.NowUnix(),
	}
	if err := s.classes.Create(ctx, class); err != nil {
		return "", err
	}
	if err := s.AddDocuments(ctx, class.ID, userID, files); err != nil {
		return "", err
	}
	return class.ID, nil
}

// AddDocuments runs the per-file pipeline sequentially in upload order:
// sanitize name, extract text, embed, upload blob, insert record. The
// first failure aborts the remaining files; documents already written
// stay. If the record insert fails after the blob upload succeeded, the
// blob is deleted again so the two never diverge for that file.
func (s *IngestService) AddDocuments(ctx context.Context, classID, userID string, files []UploadedFile) error {
	if userID == "" {
		return appErr.ErrUnauthorized
	}
	if _, err := s.classes.GetByID(ctx, userID, classID); err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID), zap.String("class_id", classID))
	for _, file := range files {
		if err := s.ingestOne(ctx, classID, userID, file); err != nil {
			logger.Error("ingestion aborted", zap.String("file", file.Name), zap.Error(err))
			return err
		}
		logger.Info("document ingested", zap.String("file", file.Name))
	}
	return nil
}

func (s *IngestService) ingestOne(ctx context.Context, classID, userID string, file UploadedFile) error {
	key := classID + "/" + SanitizeFileName(file.Name)

	doc, err := s.extract(file.Data, file.MediaType)
	if err != nil {
		return err
	}

	embedding, err := s.embedder.Embed(ctx, capInput(doc.Text, s.maxInputChars), "RETRIEVAL_DOCUMENT")
	if err != nil {
		return fmt.Errorf("%w: embed %s: %v", appErr.ErrUpstream, file.Name, err)
	}

	if err := s.store.Save(ctx, key, bytes.NewReader(file.Data), int64(len(file.Data)), file.MediaType); err != nil {
		return fmt.Errorf("%w: upload %s: %v", appErr.ErrStorage, key, err)
	}

	record := &model.Document{
		ID:        newID(),
		Name:      file.Name,
		FilePath:  key,
		FileType:  file.MediaType,
		ClassID:   classID,
		UserID:    userID,
		Content:   doc.Text,
		Embedding: embedding,
		PageCount: doc.Pages,
		Ctime:     timeutil.NowUnix(),
	}
	if err := s.documents.Create(ctx, record); err != nil {
		if appErr.IsConflict(err) {
			// The existing record owns the blob at this key; leave it.
			return err
		}
		// Compensate: do not leave a blob no record points at.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logutil.GetLogger(ctx).Warn("failed to clean up blob after insert failure",
				zap.String("key", key), zap.Error(delErr))
		}
		return fmt.Errorf("%w: insert record %s: %v", appErr.ErrStorage, file.Name, err)
	}
	return nil
}
