package dbutil

import (
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Rebind converts gendry's mysql-style placeholders to postgres ones.
func Rebind(query string) string {
	return sqlx.Rebind(sqlx.DOLLAR, query)
}

func IsConflict(err error) bool {
	if pgErr, ok := err.(*pq.Error); ok {
		return pgErr.Code == "23505"
	}
	return false
}
