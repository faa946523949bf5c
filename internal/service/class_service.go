package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/bartek717/passionproject/internal/filestore"
	"github.com/bartek717/passionproject/internal/model"
	appErr "github.com/bartek717/passionproject/internal/pkg/errors"
)

type ClassService struct {
	classes   ClassStore
	documents DocumentStore
	store     filestore.Store
}

func NewClassService(classes ClassStore, documents DocumentStore, store filestore.Store) *ClassService {
	return &ClassService{classes: classes, documents: documents, store: store}
}

// ClassWithDocuments is the eager list-join shape the UI consumes.
type ClassWithDocuments struct {
	model.Class
	Documents []model.Document `json:"documents"`
}

func (s *ClassService) List(ctx context.Context, userID string) ([]ClassWithDocuments, error) {
	if userID == "" {
		return nil, appErr.ErrUnauthorized
	}
	classes, err := s.classes.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	classIDs := make([]string, 0, len(classes))
	for _, class := range classes {
		classIDs = append(classIDs, class.ID)
	}
	docsByClass, err := s.documents.ListByClassIDs(ctx, userID, classIDs)
	if err != nil {
		return nil, err
	}
	result := make([]ClassWithDocuments, 0, len(classes))
	for _, class := range classes {
		docs := docsByClass[class.ID]
		if docs == nil {
			docs = []model.Document{}
		}
		result = append(result, ClassWithDocuments{Class: class, Documents: docs})
	}
	return result, nil
}

// DeleteClass removes the class, its document rows and their blobs. Blobs
// go first so a failure never leaves a record pointing at a missing blob.
func (s *ClassService) DeleteClass(ctx context.Context, userID, classID string) error {
	if userID == "" {
		return appErr.ErrUnauthorized
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID), zap.String("class_id", classID))
	if _, err := s.classes.GetByID(ctx, userID, classID); err != nil {
		return err
	}
	docs, err := s.documents.ListByClass(ctx, userID, classID)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := s.store.Delete(ctx, doc.FilePath); err != nil {
			logger.Error("failed to delete blob", zap.String("key", doc.FilePath), zap.Error(err))
			return fmt.Errorf("%w: delete blob %s: %v", appErr.ErrStorage, doc.FilePath, err)
		}
	}
	if _, err := s.documents.DeleteByClass(ctx, userID, classID); err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrStorage, err)
	}
	if err := s.classes.Delete(ctx, userID, classID); err != nil {
		return err
	}
	logger.Info("class deleted", zap.Int("documents", len(docs)))
	return nil
}

// DeleteDocument removes one document's blob and record, blob first: a
// storage failure aborts before the row delete.
func (s *ClassService) DeleteDocument(ctx context.Context, userID, docID string) error {
	if userID == "" {
		return appErr.ErrUnauthorized
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID), zap.String("doc_id", docID))
	doc, err := s.documents.GetByID(ctx, userID, docID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.FilePath); err != nil {
		logger.Error("failed to delete blob", zap.String("key", doc.FilePath), zap.Error(err))
		return fmt.Errorf("%w: delete blob %s: %v", appErr.ErrStorage, doc.FilePath, err)
	}
	if err := s.documents.Delete(ctx, userID, docID); err != nil {
		return err
	}
	logger.Info("document deleted", zap.String("key", doc.FilePath))
	return nil
}
