// Package repomanager vends repositories bound to either the database
// handle or an open transaction, so services can compose several
// repositories under dbx.WithTx.
package repomanager

import (
	"github.com/isdelr/blog-api/internal/dbx"
	"github.com/isdelr/blog-api/internal/repositories/events"
	"github.com/isdelr/blog-api/internal/repositories/posts"
	"github.com/isdelr/blog-api/internal/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
	Events(db dbx.DBTX) events.Repository
}

// SQLiteRepositoryManager vends the SQLite repository implementations.
type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Posts(db dbx.DBTX) posts.Repository {
	return posts.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Events(db dbx.DBTX) events.Repository {
	return events.NewSQLiteRepository(db)
}
