package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/rollcall/internal/dbx"
	"github.com/dmitrijs2005/rollcall/internal/server/repositories/attendees"
	"github.com/dmitrijs2005/rollcall/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/rollcall/internal/server/repositories/scans"
	"github.com/dmitrijs2005/rollcall/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Attendees(db dbx.DBTX) attendees.Repository
	Scans(db dbx.DBTX) scans.Repository
}
