package service

import (
	"context"

	"github.com/bartek717/passionproject/internal/model"
)

// ClassStore and DocumentStore are the persistence surfaces the services
// depend on; internal/repo provides the postgres implementations.
type ClassStore interface {
	Create(ctx context.Context, class *model.Class) error
	GetByID(ctx context.Context, userID, classID string) (*model.Class, error)
	ListByUser(ctx context.Context, userID string) ([]model.Class, error)
	Delete(ctx context.Context, userID, classID string) error
}

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, userID, docID string) (*model.Document, error)
	ListByClass(ctx context.Context, userID, classID string) ([]model.Document, error)
	ListByClassIDs(ctx context.Context, userID string, classIDs []string) (map[string][]model.Document, error)
	SearchSimilar(ctx context.Context, userID, classID string, queryEmb []float32, topK int) ([]model.Document, error)
	Delete(ctx context.Context, userID, docID string) error
	DeleteByClass(ctx context.Context, userID, classID string) (int64, error)
}
