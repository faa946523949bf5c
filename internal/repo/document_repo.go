package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/bartek717/passionproject/internal/model"
	appErr "github.com/bartek717/passionproject/internal/pkg/errors"
	"github.com/bartek717/passionproject/internal/pkg/dbutil"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = "id, name, file_path, file_type, class_id, user_id, content, page_count, ctime"

func scanDocument(scanner interface{ Scan(...interface{}) error }) (*model.Document, error) {
	var doc model.Document
	if err := scanner.Scan(&doc.ID, &doc.Name, &doc.FilePath, &doc.FileType, &doc.ClassID, &doc.UserID, &doc.Content, &doc.PageCount, &doc.Ctime); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	const query = `
		INSERT INTO documents (id, name, file_path, file_type, class_id, user_id, content, embedding, page_count, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var embedding interface{}
	if doc.Embedding != nil {
		embedding = pgvector.NewVector(doc.Embedding)
	}
	_, err := r.db.ExecContext(ctx, query,
		doc.ID,
		doc.Name,
		doc.FilePath,
		doc.FileType,
		doc.ClassID,
		doc.UserID,
		doc.Content,
		embedding,
		doc.PageCount,
		doc.Ctime,
	)
	if dbutil.IsConflict(err) {
		return appErr.ErrConflict
	}
	return err
}

func (r *DocumentRepo) GetByID(ctx context.Context, userID, docID string) (*model.Document, error) {
	where := map[string]interface{}{
		"id":      docID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, []string{documentColumns})
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, dbutil.Rebind(sqlStr), args...)
	doc, err := scanDocument(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepo) ListByClass(ctx context.Context, userID, classID string) ([]model.Document, error) {
	where := map[string]interface{}{
		"class_id": classID,
		"user_id":  userID,
		"_orderby": "ctime asc",
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, []string{documentColumns})
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, dbutil.Rebind(sqlStr), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// ListByClassIDs returns documents grouped by class, for the eager list-join.
func (r *DocumentRepo) ListByClassIDs(ctx context.Context, userID string, classIDs []string) (map[string][]model.Document, error) {
	result := make(map[string][]model.Document)
	if len(classIDs) == 0 {
		return result, nil
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = ? AND class_id IN (?) ORDER BY ctime ASC`
	query, args, err := sqlx.In(query, userID, classIDs)
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result[doc.ClassID] = append(result[doc.ClassID], *doc)
	}
	return result, rows.Err()
}

// SearchSimilar runs a cosine-distance top-k search scoped to one class.
// Rows without an embedding are excluded.
func (r *DocumentRepo) SearchSimilar(ctx context.Context, userID, classID string, queryEmb []float32, topK int) ([]model.Document, error) {
	const query = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE class_id = $1 AND user_id = $2 AND embedding IS NOT NULL
		ORDER BY embedding <=> $3
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, query, classID, userID, pgvector.NewVector(queryEmb), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (r *DocumentRepo) Delete(ctx context.Context, userID, docID string) error {
	where := map[string]interface{}{
		"id":      docID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildDelete("documents", where)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, dbutil.Rebind(sqlStr), args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) DeleteByClass(ctx context.Context, userID, classID string) (int64, error) {
	where := map[string]interface{}{
		"class_id": classID,
		"user_id":  userID,
	}
	sqlStr, args, err := builder.BuildDelete("documents", where)
	if err != nil {
		return 0, err
	}
	result, err := r.db.ExecContext(ctx, dbutil.Rebind(sqlStr), args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListAllPaths returns every stored blob key; used by the orphan sweep.
func (r *DocumentRepo) ListAllPaths(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT file_path FROM documents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	paths := make([]string, 0)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

func collectDocuments(rows *sql.Rows) ([]model.Document, error) {
	docs := make([]model.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}
