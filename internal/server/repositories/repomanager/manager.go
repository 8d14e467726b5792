package repomanager

import (
	"context"
	"database/sql"

	"github.com/ecoquad/greenbond/internal/dbx"
	"github.com/ecoquad/greenbond/internal/server/repositories/bonds"
	"github.com/ecoquad/greenbond/internal/server/repositories/investments"
	"github.com/ecoquad/greenbond/internal/server/repositories/kycdocuments"
	"github.com/ecoquad/greenbond/internal/server/repositories/orders"
	"github.com/ecoquad/greenbond/internal/server/repositories/projects"
	"github.com/ecoquad/greenbond/internal/server/repositories/refreshtokens"
	"github.com/ecoquad/greenbond/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// the same repository code on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Bonds(db dbx.DBTX) bonds.Repository
	Projects(db dbx.DBTX) projects.Repository
	Investments(db dbx.DBTX) investments.Repository
	Orders(db dbx.DBTX) orders.Repository
	KYCDocuments(db dbx.DBTX) kycdocuments.Repository
}
