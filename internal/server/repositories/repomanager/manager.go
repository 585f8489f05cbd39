package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/remotefiles/internal/dbx"
	"github.com/dmitrijs2005/remotefiles/internal/server/repositories/photos"
)

// RepositoryManager runs migrations and hands out repositories bound to a
// connection or transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Photos(db dbx.DBTX) photos.Repository
}
