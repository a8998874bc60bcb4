package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/ldbvault/internal/dbx"
	"github.com/dmitrijs2005/ldbvault/internal/server/repositories/failedattempts"
	"github.com/dmitrijs2005/ldbvault/internal/server/repositories/servers"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Servers(db dbx.DBTX) servers.Repository
	FailedAttempts(db dbx.DBTX) failedattempts.Repository
}
