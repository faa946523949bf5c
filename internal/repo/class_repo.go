package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/bartek717/passionproject/internal/model"
	appErr "github.com/bartek717/passionproject/internal/pkg/errors"
	"github.com/bartek717/passionproject/internal/pkg/dbutil"
)

type ClassRepo struct {
	db *sql.DB
}

func NewClassRepo(db *sql.DB) *ClassRepo {
	return &ClassRepo{db: db}
}

func (r *ClassRepo) Create(ctx context.Context, class *model.Class) error {
	data := map[string]interface{}{
		"id":          class.ID,
		"name":        class.Name,
		"description": class.Description,
		"user_id":     class.UserID,
		"ctime":       class.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("classes", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, dbutil.Rebind(sqlStr), args...)
	if dbutil.IsConflict(err) {
		return appErr.ErrConflict
	}
	return err
}

func (r *ClassRepo) GetByID(ctx context.Context, userID, classID string) (*model.Class, error) {
	where := map[string]interface{}{
		"id":      classID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildSelect("classes", where, []string{"id", "name", "description", "user_id", "ctime"})
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, dbutil.Rebind(sqlStr), args...)
	var class model.Class
	if err := row.Scan(&class.ID, &class.Name, &class.Description, &class.UserID, &class.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &class, nil
}

func (r *ClassRepo) ListByUser(ctx context.Context, userID string) ([]model.Class, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("classes", where, []string{"id", "name", "description", "user_id", "ctime"})
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, dbutil.Rebind(sqlStr), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	classes := make([]model.Class, 0)
	for rows.Next() {
		var class model.Class
		if err := rows.Scan(&class.ID, &class.Name, &class.Description, &class.UserID, &class.Ctime); err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}
	return classes, rows.Err()
}

func (r *ClassRepo) Delete(ctx context.Context, userID, classID string) error {
	where := map[string]interface{}{
		"id":      classID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildDelete("classes", where)
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
